package playback

import "fmt"

// State is the reader's playback state.
//
//	NotStarted ─► AutoStartPending ─► Playing ⇄ Paused
//	     └──────── start ──────────────┘  │
//	                                  PageFinished ─► Playing (next page)
//	                                       └────────► BookFinished (last page)
type State int

const (
	NotStarted State = iota
	AutoStartPending
	Playing
	Paused
	PageFinished
	BookFinished
)

var stateNames = map[State]string{
	NotStarted:       "not_started",
	AutoStartPending: "auto_start_pending",
	Playing:          "playing",
	Paused:           "paused",
	PageFinished:     "page_finished",
	BookFinished:     "book_finished",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText encodes the state by name in JSON snapshots.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for state, name := range stateNames {
		if name == string(text) {
			*s = state
			return nil
		}
	}
	return fmt.Errorf("unknown playback state %q", text)
}

// started reports whether the reader has left the pre-start screen.
func (s State) started() bool {
	return s != NotStarted && s != AutoStartPending
}
