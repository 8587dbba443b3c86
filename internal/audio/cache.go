// Package audio preloads and holds narration clips for a book.
//
// The Cache owns every clip for the lifetime of a reader session. Clips are
// collected as the union of distinct clip references across all pages and
// loaded until fully buffered; a clip that fails to load is logged and left
// out, it never aborts the batch.
package audio

import (
	"context"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hanyong5/2025book/internal/captions"
)

// URLResolver maps a clip reference to a fetchable address.
type URLResolver interface {
	ResolveAudioURL(clipRef string, bookID uint) string
}

// ProgressFunc receives aggregate load progress in percent (0..100).
type ProgressFunc func(percent float64)

// Cache holds loaded clips keyed by clip reference.
type Cache struct {
	loader      Loader
	resolver    URLResolver
	concurrency int

	mu    sync.RWMutex
	clips map[string]Handle
}

// NewCache creates a clip cache. Concurrency below 2 loads clips one at a time.
func NewCache(loader Loader, resolver URLResolver, concurrency int) *Cache {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Cache{
		loader:      loader,
		resolver:    resolver,
		concurrency: concurrency,
		clips:       make(map[string]Handle),
	}
}

// CollectClipRefs returns the distinct clip references across all sets in
// first-seen order.
func CollectClipRefs(sets []captions.Set) []string {
	seen := make(map[string]struct{})
	var refs []string
	for _, set := range sets {
		for _, ref := range set.ClipRefs() {
			if _, ok := seen[ref]; ok {
				continue
			}
			seen[ref] = struct{}{}
			refs = append(refs, ref)
		}
	}
	return refs
}

// Preload loads every distinct clip referenced by sets. progress is called
// after each clip resolves, success or failure, and reaches exactly 100 when
// the batch completes. The returned map holds only the clips that loaded.
// The only error is ctx's, when the batch is cancelled.
func (c *Cache) Preload(ctx context.Context, bookID uint, sets []captions.Set, progress ProgressFunc) (map[string]Handle, error) {
	if progress == nil {
		progress = func(float64) {}
	}

	refs := CollectClipRefs(sets)
	if len(refs) == 0 {
		progress(100)
		return map[string]Handle{}, nil
	}

	var (
		mu        sync.Mutex
		completed int
		loaded    = make(map[string]Handle, len(refs))
	)
	total := len(refs)

	resolve := func(ref string) {
		clip, err := c.load(ctx, bookID, ref)

		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			log.Printf("[AUDIO] Failed to load clip %s for book %d: %v", ref, bookID, err)
		} else {
			loaded[ref] = clip
		}
		completed++
		progress(float64(completed) / float64(total) * 100)
	}

	if c.concurrency == 1 {
		for _, ref := range refs {
			if err := ctx.Err(); err != nil {
				return c.store(loaded), err
			}
			resolve(ref)
		}
		return c.store(loaded), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, ref := range refs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			resolve(ref)
			return nil
		})
	}
	err := g.Wait()
	return c.store(loaded), err
}

func (c *Cache) load(ctx context.Context, bookID uint, ref string) (Handle, error) {
	if clip, ok := c.Get(ref); ok {
		return clip, nil
	}
	return c.loader.Load(ctx, bookID, ref, c.resolver.ResolveAudioURL(ref, bookID))
}

func (c *Cache) store(loaded map[string]Handle) map[string]Handle {
	c.mu.Lock()
	defer c.mu.Unlock()
	for ref, clip := range loaded {
		c.clips[ref] = clip
	}
	return loaded
}

// Get returns a loaded clip.
func (c *Cache) Get(ref string) (Handle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	clip, ok := c.clips[ref]
	return clip, ok
}

// Len returns the number of loaded clips.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.clips)
}

// StopAll pauses and rewinds every clip. Clips stay cached.
func (c *Cache) StopAll() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, clip := range c.clips {
		clip.Pause()
		clip.Rewind()
	}
}
