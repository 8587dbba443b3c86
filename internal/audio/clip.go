package audio

import (
	"errors"
	"sync"
	"time"
)

// ErrEmptyClip is returned when a clip has no audio data to play.
var ErrEmptyClip = errors.New("clip has no audio data")

// Handle is a ready-to-play narration clip. Handles are owned by the Cache;
// the playback engine only borrows them to start and stop playback.
type Handle interface {
	Ref() string
	URL() string
	// Play starts or resumes playback from the current position.
	Play() error
	// Pause stops playback and keeps the current position.
	Pause()
	// Rewind moves the position back to zero.
	Rewind()
	Paused() bool
	// Position is the time played since the last rewind. Clips carry no
	// decoded length, so it keeps growing past the end of the narration
	// until the clip is paused or rewound.
	Position() time.Duration
}

// Output renders clip audio. Start may refuse playback, e.g. when the device
// is busy or the platform blocks autoplay.
type Output interface {
	Start(clip Handle, offset time.Duration) error
	Stop(clip Handle)
}

// DiscardOutput accepts every clip and renders nothing. Presentation surfaces
// that read published snapshots play the audio themselves.
type DiscardOutput struct{}

func (DiscardOutput) Start(Handle, time.Duration) error { return nil }
func (DiscardOutput) Stop(Handle)                       {}

// Clip is a fully buffered clip whose position advances with wall-clock time
// while playing. The bytes are never decoded; the Output owns the actual end
// of the sound.
type Clip struct {
	ref  string
	url  string
	data []byte
	out  Output
	now  func() time.Time

	mu        sync.Mutex
	playing   bool
	offset    time.Duration
	startedAt time.Time
}

// NewClip wraps downloaded clip data. A nil output discards audio.
func NewClip(ref, url string, data []byte, out Output) *Clip {
	if out == nil {
		out = DiscardOutput{}
	}
	return &Clip{
		ref:  ref,
		url:  url,
		data: data,
		out:  out,
		now:  time.Now,
	}
}

func (c *Clip) Ref() string  { return c.ref }
func (c *Clip) URL() string  { return c.url }
func (c *Clip) Data() []byte { return c.data }
func (c *Clip) Size() int    { return len(c.data) }

func (c *Clip) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.playing {
		return nil
	}
	if len(c.data) == 0 {
		return ErrEmptyClip
	}
	if err := c.out.Start(c, c.offset); err != nil {
		return err
	}
	c.playing = true
	c.startedAt = c.now()
	return nil
}

func (c *Clip) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.playing {
		return
	}
	c.offset += c.now().Sub(c.startedAt)
	c.playing = false
	c.out.Stop(c)
}

func (c *Clip) Rewind() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.offset = 0
	if c.playing {
		c.startedAt = c.now()
	}
}

func (c *Clip) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.playing
}

func (c *Clip) Position() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.playing {
		return c.offset + c.now().Sub(c.startedAt)
	}
	return c.offset
}
