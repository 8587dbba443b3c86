// Package captions decodes a page's raw timing payload into caption intervals.
//
// The payload is a JSON object, optionally double-encoded as a JSON string:
//
//	{"sentences": [{"s": 0, "e": 2.4, "text": "Once upon a time", "sound": "01_01.mp3"}]}
//
// "t" is accepted in place of "text" and "audio" in place of "sound".
package captions

import (
	"bytes"
	"encoding/json"
	"log"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MillisecondThreshold is the raw value above which a time is read as
// milliseconds. A unit heuristic, not a unit tag: a 1000.5 second offset and a
// 1000 ms offset are indistinguishable from the payload alone.
const MillisecondThreshold = 1000

type rawPayload struct {
	Sentences []rawSentence `json:"sentences"`
}

type rawSentence struct {
	Start flexFloat `json:"s"`
	End   flexFloat `json:"e"`
	Text  string    `json:"text"`
	T     string    `json:"t"`
	Sound string    `json:"sound"`
	Audio string    `json:"audio"`
}

// flexFloat accepts a JSON number, a numeric string, or null.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// Parse decodes a raw caption payload. It returns nil when the payload is
// empty, not parseable, has no sentence list, or the list is empty. A nil Set
// means the page has no timed captions.
func Parse(raw string) Set {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	payload, err := decodePayload([]byte(raw))
	if err != nil {
		log.Printf("[CAPTIONS] Failed to parse caption payload: %v", err)
		return nil
	}
	if len(payload.Sentences) == 0 {
		return nil
	}

	set := make(Set, 0, len(payload.Sentences))
	for _, s := range payload.Sentences {
		set = append(set, normalize(s))
	}
	return set
}

// decodePayload unwraps a string-encoded payload before decoding the object.
func decodePayload(data []byte) (*rawPayload, error) {
	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil, err
		}
		data = []byte(strings.TrimSpace(inner))
	}

	var payload rawPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func normalize(s rawSentence) Interval {
	text := s.Text
	if text == "" {
		text = s.T
	}
	clip := s.Sound
	if clip == "" {
		clip = s.Audio
	}

	start := ToSeconds(float64(s.Start))
	end := ToSeconds(float64(s.End))
	if start < 0 {
		start = 0
	}
	if end < start {
		end = start
	}

	return Interval{
		Text:    norm.NFC.String(text),
		ClipRef: strings.TrimSpace(clip),
		Start:   start,
		End:     end,
	}
}

// ToSeconds applies the millisecond heuristic to a raw time value.
func ToSeconds(v float64) float64 {
	if v > MillisecondThreshold {
		return v / 1000
	}
	return v
}
