package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanyong5/2025book/internal/captions"
)

type fakeResolver struct{}

func (fakeResolver) ResolveAudioURL(ref string, bookID uint) string {
	return fmt.Sprintf("mem://%d/%s", bookID, ref)
}

type fakeLoader struct {
	mu     sync.Mutex
	fail   map[string]bool
	loaded []string
}

func (l *fakeLoader) Load(_ context.Context, _ uint, ref, url string) (Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loaded = append(l.loaded, url)
	if l.fail[ref] {
		return nil, errors.New("decode error")
	}
	return NewClip(ref, url, []byte(ref), nil), nil
}

func pageSets() []captions.Set {
	return []captions.Set{
		{{Text: "a", ClipRef: "01.mp3", Start: 0, End: 1}, {Text: "b", ClipRef: "02.mp3", Start: 1, End: 2}},
		nil,
		{{Text: "c", ClipRef: "02.mp3", Start: 0, End: 1}, {Text: "d", ClipRef: "03.mp3", Start: 1, End: 2}, {Text: "e", Start: 2, End: 3}},
	}
}

func TestCollectClipRefs(t *testing.T) {
	assert.Equal(t, []string{"01.mp3", "02.mp3", "03.mp3"}, CollectClipRefs(pageSets()))
	assert.Empty(t, CollectClipRefs(nil))
}

func TestCache_Preload(t *testing.T) {
	loader := &fakeLoader{}
	cache := NewCache(loader, fakeResolver{}, 1)

	var progress []float64
	clips, err := cache.Preload(context.Background(), 7, pageSets(), func(p float64) {
		progress = append(progress, p)
	})
	require.NoError(t, err)

	assert.Len(t, clips, 3)
	assert.Equal(t, 3, cache.Len())
	assert.Equal(t, []string{"mem://7/01.mp3", "mem://7/02.mp3", "mem://7/03.mp3"}, loader.loaded, "each distinct clip loads once, in order")
	require.Len(t, progress, 3)
	assert.InDelta(t, 100.0/3, progress[0], 1e-9)
	assert.Equal(t, 100.0, progress[2])
}

func TestCache_PreloadIsolatesFailures(t *testing.T) {
	loader := &fakeLoader{fail: map[string]bool{"02.mp3": true}}
	cache := NewCache(loader, fakeResolver{}, 1)

	var progress []float64
	clips, err := cache.Preload(context.Background(), 7, pageSets(), func(p float64) {
		progress = append(progress, p)
	})
	require.NoError(t, err)

	assert.Len(t, clips, 2)
	_, ok := cache.Get("02.mp3")
	assert.False(t, ok)
	assert.Equal(t, 100.0, progress[len(progress)-1])
	assert.Len(t, progress, 3, "failed clips still advance progress")
}

func TestCache_PreloadWithoutClips(t *testing.T) {
	loader := &fakeLoader{}
	cache := NewCache(loader, fakeResolver{}, 1)

	var progress []float64
	clips, err := cache.Preload(context.Background(), 1, []captions.Set{{{Text: "x", Start: 0, End: 1}}}, func(p float64) {
		progress = append(progress, p)
	})
	require.NoError(t, err)

	assert.Empty(t, clips)
	assert.Equal(t, []float64{100}, progress)
	assert.Empty(t, loader.loaded)
}

func TestCache_PreloadConcurrentProgressIsMonotonic(t *testing.T) {
	sets := []captions.Set{}
	for i := 0; i < 20; i++ {
		sets = append(sets, captions.Set{{Text: "x", ClipRef: fmt.Sprintf("%02d.mp3", i), Start: 0, End: 1}})
	}
	loader := &fakeLoader{fail: map[string]bool{"05.mp3": true}}
	cache := NewCache(loader, fakeResolver{}, 4)

	var progress []float64
	clips, err := cache.Preload(context.Background(), 1, sets, func(p float64) {
		progress = append(progress, p)
	})
	require.NoError(t, err)

	assert.Len(t, clips, 19)
	require.Len(t, progress, 20)
	for i := 1; i < len(progress); i++ {
		assert.GreaterOrEqual(t, progress[i], progress[i-1])
	}
	assert.Equal(t, 100.0, progress[19])
}

func TestCache_PreloadCancelled(t *testing.T) {
	cache := NewCache(&fakeLoader{}, fakeResolver{}, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := cache.Preload(ctx, 1, pageSets(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCache_StopAll(t *testing.T) {
	cache := NewCache(&fakeLoader{}, fakeResolver{}, 1)
	_, err := cache.Preload(context.Background(), 1, pageSets(), nil)
	require.NoError(t, err)

	clip, _ := cache.Get("01.mp3")
	require.NoError(t, clip.Play())

	cache.StopAll()
	assert.True(t, clip.Paused())
	assert.Equal(t, 3, cache.Len(), "stopping does not evict")
}
