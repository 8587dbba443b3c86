package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanyong5/2025book/internal/captions"
	"github.com/hanyong5/2025book/internal/entities"
	"github.com/hanyong5/2025book/internal/playback"
	"github.com/hanyong5/2025book/internal/playback/playbacktest"
)

const manifest = `
title: The Moon Rabbit
author: Anonymous
pages:
  - image: books/1/page1.jpg
    captions:
      sentences:
        - {s: 0, e: 2.5, text: "Once upon a time", sound: "p1_s1.mp3"}
  - image: books/1/page2.jpg
`

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return out.String()
}

func TestImportAndCaptionsCommands(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "moon-rabbit.yaml")
	require.NoError(t, os.WriteFile(manifestPath, []byte(manifest), 0o644))
	dbPath := filepath.Join(dir, "readalong.db")

	out := execute(t, "import", manifestPath, "--db", dbPath)
	assert.Contains(t, out, `Found "The Moon Rabbit" by Anonymous with 2 pages`)
	assert.Contains(t, out, "Pages saved: 2 (1 timed)")
	assert.Contains(t, out, "Narration clips: 1")
	assert.Contains(t, out, "Import complete!")

	out = execute(t, "captions", "1", "--db", dbPath)
	assert.Contains(t, out, "The Moon Rabbit (2 pages)")
	assert.Contains(t, out, "Page 1 (#1), 2.5s")
	assert.Contains(t, out, "Once upon a time  [p1_s1.mp3]")
	assert.Contains(t, out, "Page 2 (#2), untimed")
}

func TestParseBookID(t *testing.T) {
	id, err := parseBookID("42")
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)

	for _, arg := range []string{"0", "-1", "abc"} {
		_, err := parseBookID(arg)
		assert.Error(t, err, arg)
	}
}

func TestApplyCommand(t *testing.T) {
	sched := playbacktest.NewManualScheduler()
	session, err := playback.NewSession(
		entities.Book{ID: 1, Title: "The Moon Rabbit"},
		[]entities.Page{
			{ID: 1, PageNo: 1, Text: `{"sentences":[{"s":0,"e":10,"text":"Hello"}]}`},
			{ID: 2, PageNo: 2},
		},
		playback.Options{ID: "cli", Scheduler: sched, Now: sched.Now},
	)
	require.NoError(t, err)
	session.Preload(context.Background(), nil)

	require.NoError(t, applyCommand(session, "s"))
	assert.Equal(t, playback.Playing, session.Snapshot().State)

	require.NoError(t, applyCommand(session, "p"))
	assert.Equal(t, playback.Paused, session.Snapshot().State)

	require.NoError(t, applyCommand(session, "g 2"))
	assert.Equal(t, 1, session.Snapshot().PageIndex)

	require.NoError(t, applyCommand(session, "b"))
	assert.Equal(t, 0, session.Snapshot().PageIndex)

	require.NoError(t, applyCommand(session, "  "))
	assert.Error(t, applyCommand(session, "g 0"))
	assert.Error(t, applyCommand(session, "g"))
	assert.Error(t, applyCommand(session, "x"))
	assert.ErrorIs(t, applyCommand(session, "g 9"), playback.ErrPageOutOfRange)

	require.NoError(t, applyCommand(session, "q"))
	assert.True(t, session.Closed())
}

func TestSnapshotPrinter(t *testing.T) {
	var out bytes.Buffer
	p := &snapshotPrinter{w: &out}

	hello := captions.Set{{Text: "Hello", Start: 0, End: 2}}

	p.Print(playback.Snapshot{BookTitle: "The Moon Rabbit", PageCount: 2, State: playback.NotStarted, AudioLoading: true})
	p.Print(playback.Snapshot{BookTitle: "The Moon Rabbit", PageCount: 2, State: playback.NotStarted, AudioLoading: true, AudioProgress: 50})
	p.Print(playback.Snapshot{BookTitle: "The Moon Rabbit", PageCount: 2, State: playback.Playing, Captions: hello, ElapsedSeconds: 0.1})
	p.Print(playback.Snapshot{BookTitle: "The Moon Rabbit", PageCount: 2, State: playback.Playing, Captions: hello, ElapsedSeconds: 0.2})
	p.Print(playback.Snapshot{BookTitle: "The Moon Rabbit", PageCount: 2, PageIndex: 1, State: playback.Playing})
	p.Print(playback.Snapshot{BookTitle: "The Moon Rabbit", PageCount: 2, PageIndex: 1, State: playback.BookFinished, Closed: true, CloseReason: playback.CloseCompleted})

	expected := `Reading "The Moon Rabbit" (2 pages)
Loading audio... 0%

--- Page 1/2 ---
[not_started]
Loading audio... 50%
[playing]
    0.1s  Hello

--- Page 2/2 ---
[book_finished]
Session closed (completed)
`
	assert.Equal(t, expected, out.String())
}
