package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/hanyong5/2025book/internal/audio"
	"github.com/hanyong5/2025book/internal/captions"
	"github.com/hanyong5/2025book/internal/services"
)

// WarmBookAudioTask downloads every narration clip of a book into the local
// clip cache so that reader sessions preload from disk.
type WarmBookAudioTask struct {
	BookID uint `json:"book_id"`
}

// Config returns the queue configuration for audio warm-up tasks.
func (t WarmBookAudioTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "warm_book_audio",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ClipFetcher downloads a clip body, consulting and filling the disk cache.
type ClipFetcher interface {
	Fetch(ctx context.Context, bookID uint, url string) ([]byte, error)
}

// WarmResult summarizes a warm-up run.
type WarmResult struct {
	Clips   int
	Fetched int
	Failed  int
}

// WarmBookAudio fetches each distinct clip of a book once. Clip failures are
// counted; only an unreadable book fails the run.
func WarmBookAudio(ctx context.Context, store services.ContentStore, resolver audio.URLResolver, fetcher ClipFetcher, bookID uint) (WarmResult, error) {
	if _, err := store.GetBook(bookID); err != nil {
		return WarmResult{}, fmt.Errorf("get book %d: %w", bookID, err)
	}
	pages, err := store.ListPages(bookID)
	if err != nil {
		return WarmResult{}, fmt.Errorf("list pages of book %d: %w", bookID, err)
	}

	sets := make([]captions.Set, 0, len(pages))
	for _, p := range pages {
		sets = append(sets, captions.Parse(p.Text))
	}
	refs := audio.CollectClipRefs(sets)

	result := WarmResult{Clips: len(refs)}
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		url := resolver.ResolveAudioURL(ref, bookID)
		if _, err := fetcher.Fetch(ctx, bookID, url); err != nil {
			log.Printf("[TASK] Failed to warm clip %q of book %d: %v", ref, bookID, err)
			result.Failed++
			continue
		}
		result.Fetched++
	}
	return result, nil
}

// WarmBookAudioProcessor creates a processor function for WarmBookAudioTask.
func WarmBookAudioProcessor(store services.ContentStore, resolver audio.URLResolver, fetcher ClipFetcher) backlite.QueueProcessor[WarmBookAudioTask] {
	return func(ctx context.Context, task WarmBookAudioTask) error {
		if fetcher == nil {
			return fmt.Errorf("clip fetcher not configured")
		}

		result, err := WarmBookAudio(ctx, store, resolver, fetcher, task.BookID)
		if err != nil {
			return err
		}

		log.Printf("[TASK] Warmed audio for book %d: %d/%d clips cached, %d failed",
			task.BookID, result.Fetched, result.Clips, result.Failed)
		return nil
	}
}

// NewWarmBookAudioQueue creates a backlite queue for audio warm-up tasks.
func NewWarmBookAudioQueue(store services.ContentStore, resolver audio.URLResolver, fetcher ClipFetcher) backlite.Queue {
	return backlite.NewQueue(WarmBookAudioProcessor(store, resolver, fetcher))
}
