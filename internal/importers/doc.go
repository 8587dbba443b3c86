// Package importers turns book manifests into stored books.
//
// # Architecture
//
//	Manifest (YAML or JSON) → ParseManifest → Manifest.Book → Pipeline → ImportService → Storage
//
// A manifest lists a book's pages in reading order. Each page carries its
// image references and its caption payload, either as the raw JSON string
// stored by the reader or as structured YAML:
//
//	title: The Moon Rabbit
//	author: Anonymous
//	cover: book-covers/moon-rabbit.jpg
//	pages:
//	  - page_no: 1
//	    image: books/1/page1.jpg
//	    captions:
//	      sentences:
//	        - {s: 0, e: 2.5, text: "Once upon a time", sound: "p1_s1.mp3"}
//	  - page_no: 2
//	    image: books/1/page2.jpg
//	    captions: '{"sentences":[{"s":0,"e":3000,"t":"Hop","sound":"p2_s1.mp3"}]}'
//
// JSON manifests are accepted unchanged since JSON is valid YAML.
//
// # Example Usage
//
//	pipeline := importers.NewPipeline(importService)
//	result, err := pipeline.ImportFile("moon-rabbit.yaml")
package importers
