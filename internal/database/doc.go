// Package database provides the Content Store persistence layer.
//
// # Architecture
//
//	database/
//	└── database.go      # Connection setup, migrations, book and page queries
//
// Books own an ordered list of pages. Each page carries its raw caption
// payload untouched; decoding happens in the captions package so a malformed
// payload never prevents a page from being stored or listed.
//
// # Usage
//
//	db, err := database.NewDatabase("./readalong.db")
//	book, err := db.GetBook(1)
//	pages, err := db.ListPages(book.ID) // ordered by page_no
//
// # Interface Implementations
//
//	var _ services.BookStore = (*Database)(nil)
package database
