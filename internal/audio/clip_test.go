package audio

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingOutput struct {
	starts  []time.Duration
	stops   int
	failing error
}

func (o *recordingOutput) Start(_ Handle, offset time.Duration) error {
	if o.failing != nil {
		return o.failing
	}
	o.starts = append(o.starts, offset)
	return nil
}

func (o *recordingOutput) Stop(Handle) { o.stops++ }

func newTestClip(out Output) (*Clip, *time.Time) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	clip := NewClip("01.mp3", "http://x/01.mp3", []byte("audio"), out)
	clip.now = func() time.Time { return now }
	return clip, &now
}

func TestClip_PlayPauseResume(t *testing.T) {
	out := &recordingOutput{}
	clip, now := newTestClip(out)

	assert.True(t, clip.Paused())
	require.NoError(t, clip.Play())
	assert.False(t, clip.Paused())

	*now = now.Add(1500 * time.Millisecond)
	assert.Equal(t, 1500*time.Millisecond, clip.Position())

	clip.Pause()
	assert.True(t, clip.Paused())
	assert.Equal(t, 1, out.stops)

	*now = now.Add(time.Hour)
	assert.Equal(t, 1500*time.Millisecond, clip.Position(), "paused clip must not advance")

	require.NoError(t, clip.Play())
	assert.Equal(t, []time.Duration{0, 1500 * time.Millisecond}, out.starts)
}

func TestClip_PositionIsUnboundedWhilePlaying(t *testing.T) {
	clip, now := newTestClip(nil)

	require.NoError(t, clip.Play())
	*now = now.Add(10 * time.Minute)
	assert.Equal(t, 10*time.Minute, clip.Position())
	assert.False(t, clip.Paused())

	clip.Pause()
	clip.Rewind()
	assert.Equal(t, time.Duration(0), clip.Position())
}

func TestClip_PlayIsIdempotent(t *testing.T) {
	out := &recordingOutput{}
	clip, _ := newTestClip(out)

	require.NoError(t, clip.Play())
	require.NoError(t, clip.Play())
	assert.Len(t, out.starts, 1)
}

func TestClip_Rewind(t *testing.T) {
	clip, now := newTestClip(nil)

	require.NoError(t, clip.Play())
	*now = now.Add(2 * time.Second)
	clip.Pause()
	clip.Rewind()
	assert.Equal(t, time.Duration(0), clip.Position())
}

func TestClip_OutputRefusal(t *testing.T) {
	out := &recordingOutput{failing: errors.New("autoplay blocked")}
	clip, _ := newTestClip(out)

	assert.Error(t, clip.Play())
	assert.True(t, clip.Paused())
}

func TestClip_Empty(t *testing.T) {
	clip := NewClip("x", "", nil, nil)
	assert.ErrorIs(t, clip.Play(), ErrEmptyClip)
}
