package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mikestefanello/backlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanyong5/2025book/internal/entities"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	cfg := DefaultConfig()
	cfg.Workers = 1

	client, err := NewClient(dbPath, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestNewClient(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	client, err := NewClient(dbPath, DefaultConfig())
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(tmpDir, "test-tasks.db"))
	assert.NoError(t, err, "tasks database should be created")

	assert.NoError(t, client.Close())
}

func TestTasksDBPath(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "readalong-tasks.db"), TasksDBPath(filepath.Join("data", "readalong.db")))
	assert.Equal(t, "books-tasks", TasksDBPath("books"))
}

func TestClientStartStop(t *testing.T) {
	client := newTestClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	time.Sleep(50 * time.Millisecond)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	assert.True(t, client.Stop(stopCtx), "stop should succeed gracefully")
}

func TestStopWithoutStart(t *testing.T) {
	client := newTestClient(t)
	assert.True(t, client.Stop(context.Background()))
}

type stubStore struct {
	pages []entities.Page
	err   error
}

func (s *stubStore) GetBook(id uint) (*entities.Book, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &entities.Book{ID: id, Title: "The Moon Rabbit"}, nil
}

func (s *stubStore) ListBooks() ([]entities.Book, error)     { return nil, nil }
func (s *stubStore) ListPages(uint) ([]entities.Page, error) { return s.pages, nil }

type stubResolver struct{}

func (stubResolver) ResolveAudioURL(ref string, bookID uint) string {
	return "http://storage.test/" + ref
}

type recordingFetcher struct {
	fetched chan string
	fail    map[string]bool
}

func (f *recordingFetcher) Fetch(_ context.Context, _ uint, url string) ([]byte, error) {
	if f.fail[url] {
		return nil, errors.New("404")
	}
	f.fetched <- url
	return []byte("ID3"), nil
}

func warmPages() []entities.Page {
	return []entities.Page{
		{PageNo: 1, Text: `{"sentences":[{"s":0,"e":1,"text":"a","sound":"1.mp3"},{"s":1,"e":2,"text":"b","sound":"2.mp3"}]}`},
		{PageNo: 2, Text: `{"sentences":[{"s":0,"e":1,"text":"c","sound":"1.mp3"}]}`},
		{PageNo: 3, Text: `broken`},
	}
}

func TestWarmBookAudio(t *testing.T) {
	fetcher := &recordingFetcher{
		fetched: make(chan string, 10),
		fail:    map[string]bool{"http://storage.test/2.mp3": true},
	}

	result, err := WarmBookAudio(context.Background(), &stubStore{pages: warmPages()}, stubResolver{}, fetcher, 7)
	require.NoError(t, err)

	assert.Equal(t, WarmResult{Clips: 2, Fetched: 1, Failed: 1}, result)
	assert.Equal(t, "http://storage.test/1.mp3", <-fetcher.fetched)
}

func TestWarmBookAudio_MissingBook(t *testing.T) {
	fetcher := &recordingFetcher{fetched: make(chan string, 1)}
	_, err := WarmBookAudio(context.Background(), &stubStore{err: errors.New("record not found")}, stubResolver{}, fetcher, 7)
	assert.Error(t, err)
}

func TestWarmBookAudioQueue(t *testing.T) {
	client := newTestClient(t)

	fetcher := &recordingFetcher{fetched: make(chan string, 10)}
	client.Register(NewWarmBookAudioQueue(&stubStore{pages: warmPages()}, stubResolver{}, fetcher))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	id, err := client.EnqueueWarmBookAudio(7)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	got := make(map[string]bool)
	for len(got) < 2 {
		select {
		case url := <-fetcher.fetched:
			got[url] = true
		case <-time.After(5 * time.Second):
			t.Fatal("clips were not warmed within timeout")
		}
	}
	assert.True(t, got["http://storage.test/1.mp3"])
	assert.True(t, got["http://storage.test/2.mp3"])
}

func TestWarmBookAudioTaskConfig(t *testing.T) {
	cfg := WarmBookAudioTask{BookID: 1}.Config()

	assert.Equal(t, "warm_book_audio", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 10*time.Minute, cfg.Timeout)
	assert.NotNil(t, cfg.Retention)
}

func TestStatusName(t *testing.T) {
	assert.Equal(t, "pending", StatusName(backlite.TaskStatusPending))
	assert.Equal(t, "success", StatusName(backlite.TaskStatusSuccess))
	assert.Equal(t, "not_found", StatusName(backlite.TaskStatusNotFound))
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 15*time.Minute, cfg.ReleaseAfter)
	assert.Equal(t, time.Hour, cfg.CleanupInterval)
}
