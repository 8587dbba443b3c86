// Package storage resolves stored-asset references to fetchable URLs.
//
// References come in three shapes:
//
//	https://cdn.example.com/a.jpg   absolute, returned unchanged
//	book-covers/rabbit/cover.jpg    <bucket>/<path> against the storage service
//	cover.jpg                       single segment, resolved in the default bucket
//
// Narration clips follow a fixed per-book convention:
//
//	<root>/storage/v1/object/public/books/<bookID>/sound/<clipRef>
package storage

import (
	"fmt"
	"net/url"
	"strings"
)

const publicObjectPath = "/storage/v1/object/public/"

// Resolver builds public object URLs for a storage service.
type Resolver struct {
	root          string
	defaultBucket string
	soundBucket   string
}

// NewResolver creates a resolver rooted at rootURL. Empty bucket names fall
// back to "book-covers" and "books".
func NewResolver(rootURL, defaultBucket, soundBucket string) *Resolver {
	if defaultBucket == "" {
		defaultBucket = "book-covers"
	}
	if soundBucket == "" {
		soundBucket = "books"
	}
	return &Resolver{
		root:          strings.TrimRight(rootURL, "/"),
		defaultBucket: defaultBucket,
		soundBucket:   soundBucket,
	}
}

// ResolveAssetURL resolves a cover or page image reference.
// Returns an empty string for an empty reference.
func (r *Resolver) ResolveAssetURL(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if isAbsoluteURL(ref) {
		return ref
	}

	path := strings.TrimPrefix(ref, "/")
	bucket, filePath, found := strings.Cut(path, "/")
	if !found {
		return r.publicURL(r.defaultBucket, path)
	}
	return r.publicURL(bucket, filePath)
}

// ResolveAudioURL resolves a narration clip reference for a book.
func (r *Resolver) ResolveAudioURL(clipRef string, bookID uint) string {
	clipRef = strings.TrimSpace(clipRef)
	if clipRef == "" {
		return ""
	}
	if isAbsoluteURL(clipRef) {
		return clipRef
	}
	fileName := strings.TrimPrefix(clipRef, "/")
	return r.publicURL(r.soundBucket, fmt.Sprintf("%d/sound/%s", bookID, fileName))
}

func (r *Resolver) publicURL(bucket, filePath string) string {
	segments := strings.Split(filePath, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return r.root + publicObjectPath + url.PathEscape(bucket) + "/" + strings.Join(segments, "/")
}

func isAbsoluteURL(ref string) bool {
	return strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://")
}
