package audio

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// maxClipSize bounds a single narration clip download.
const maxClipSize = 64 << 20

// Loader fetches a clip until it is fully buffered and ready to play.
type Loader interface {
	Load(ctx context.Context, bookID uint, ref, url string) (Handle, error)
}

// HTTPLoaderConfig configures an HTTPLoader.
type HTTPLoaderConfig struct {
	Timeout   time.Duration // Per-clip request timeout. Default: 30s
	RateLimit float64       // Downloads per second, 0 = unlimited
	DiskCache *DiskCache    // Optional local clip cache
	Output    Output        // Output used by loaded clips
}

// HTTPLoader downloads clips over HTTP, consulting an optional disk cache.
type HTTPLoader struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	disk       *DiskCache
	out        Output
}

// NewHTTPLoader creates a loader from cfg.
func NewHTTPLoader(cfg HTTPLoaderConfig) *HTTPLoader {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}
	return &HTTPLoader{
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		disk:       cfg.DiskCache,
		out:        cfg.Output,
	}
}

// Load returns a ready clip. The whole body is read before returning, so a
// returned clip can start without buffering gaps.
func (l *HTTPLoader) Load(ctx context.Context, bookID uint, ref, url string) (Handle, error) {
	data, err := l.Fetch(ctx, bookID, url)
	if err != nil {
		return nil, err
	}
	return NewClip(ref, url, data, l.out), nil
}

// Fetch returns clip bytes from the disk cache or the network, storing
// network results in the disk cache.
func (l *HTTPLoader) Fetch(ctx context.Context, bookID uint, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty clip url")
	}
	if l.disk != nil {
		if data, ok := l.disk.Get(bookID, url); ok {
			return data, nil
		}
	}

	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	data, err := l.download(ctx, url)
	if err != nil {
		return nil, err
	}

	if l.disk != nil {
		if err := l.disk.Put(bookID, url, data); err != nil {
			log.Printf("[AUDIO] Failed to cache clip %s on disk: %v", url, err)
		}
	}
	return data, nil
}

func (l *HTTPLoader) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "ReadAlong/1.0")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch clip: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxClipSize+1))
	if err != nil {
		return nil, fmt.Errorf("read clip body: %w", err)
	}
	if len(data) > maxClipSize {
		return nil, fmt.Errorf("clip exceeds %d bytes", maxClipSize)
	}
	if len(data) == 0 {
		return nil, ErrEmptyClip
	}
	return data, nil
}
