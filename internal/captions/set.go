package captions

// Interval is a timed caption with an optional narration clip.
type Interval struct {
	Text    string  `json:"text"`
	ClipRef string  `json:"sound,omitempty"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
}

// HasClip reports whether the interval references a narration clip.
func (i Interval) HasClip() bool {
	return i.ClipRef != ""
}

// Set is the ordered caption sequence of one page.
type Set []Interval

// Duration returns max(end) - min(start) over the set, regardless of order.
// ok is false for an empty set or a degenerate duration <= 0, which callers
// treat as an untimed page.
func (s Set) Duration() (d float64, ok bool) {
	if len(s) == 0 {
		return 0, false
	}
	minStart, maxEnd := s[0].Start, s[0].End
	for _, iv := range s[1:] {
		if iv.Start < minStart {
			minStart = iv.Start
		}
		if iv.End > maxEnd {
			maxEnd = iv.End
		}
	}
	d = maxEnd - minStart
	if d <= 0 {
		return 0, false
	}
	return d, true
}

// Active returns the intervals covering t, inclusive at both ends, in
// sequence order.
func (s Set) Active(t float64) Set {
	var active Set
	for _, iv := range s {
		if t >= iv.Start && t <= iv.End {
			active = append(active, iv)
		}
	}
	return active
}

// Trailing returns the intervals ending at or after d.
func (s Set) Trailing(d float64) Set {
	var trailing Set
	for _, iv := range s {
		if iv.End >= d {
			trailing = append(trailing, iv)
		}
	}
	return trailing
}

// Same reports whether both sets hold the same intervals by position,
// comparing count and boundaries only.
func (s Set) Same(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i].Start != other[i].Start || s[i].End != other[i].End {
			return false
		}
	}
	return true
}

// FirstClip returns the first interval in sequence order that has a clip.
func (s Set) FirstClip() (Interval, bool) {
	for _, iv := range s {
		if iv.HasClip() {
			return iv, true
		}
	}
	return Interval{}, false
}

// ClipRefs returns the distinct clip references in first-seen order.
func (s Set) ClipRefs() []string {
	seen := make(map[string]struct{})
	var refs []string
	for _, iv := range s {
		if !iv.HasClip() {
			continue
		}
		if _, ok := seen[iv.ClipRef]; ok {
			continue
		}
		seen[iv.ClipRef] = struct{}{}
		refs = append(refs, iv.ClipRef)
	}
	return refs
}
