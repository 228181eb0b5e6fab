package metroline

import (
	"strconv"
	"strings"
)

// Status is the derived state of one stage.
type Status string

const (
	StatusNotStarted Status = "not-started"
	StatusCurrent    Status = "current"
	StatusDone       Status = "done"
)

// Label is the badge text shown for a status.
func (s Status) Label() string {
	switch s {
	case StatusDone:
		return "Concluída"
	case StatusCurrent:
		return "Em andamento"
	default:
		return "Não iniciada"
	}
}

// ParseStatus reads a caller-supplied status override. Both the English
// values and the Portuguese ones stored by the backend are accepted.
func ParseStatus(s string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "done", "concluida", "concluída", "finalizada":
		return StatusDone, true
	case "current", "atual", "em_andamento", "em andamento":
		return StatusCurrent, true
	case "not-started", "not_started", "nao_iniciada", "não iniciada", "pendente":
		return StatusNotStarted, true
	}
	return "", false
}

// Pointer identifies the current stage either by position or by key/title.
// The zero Pointer points at index 0.
type Pointer struct {
	index int
	key   string
	byKey bool
}

// AtIndex points at the stage in position i (zero-based).
func AtIndex(i int) Pointer { return Pointer{index: i} }

// AtKey points at the first stage whose key or title equals key.
func AtKey(key string) Pointer { return Pointer{key: key, byKey: true} }

// ParsePointer converts a wire value: all-digit strings are indexes,
// anything else is a key.
func ParsePointer(raw string) Pointer {
	raw = strings.TrimSpace(raw)
	if raw != "" && strings.Trim(raw, "0123456789") == "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return AtIndex(n)
		}
	}
	return AtKey(raw)
}

// IsKey reports whether the pointer matches by key/title.
func (p Pointer) IsKey() bool { return p.byKey }

func (p Pointer) String() string {
	if p.byKey {
		return p.key
	}
	return strconv.Itoa(p.index)
}

// Resolve returns the index of the current stage. An out-of-range index or a
// key with no match falls back to 0. With duplicate titles the first match
// wins.
func Resolve(stages []Stage, p Pointer) int {
	if !p.byKey {
		if p.index >= 0 && p.index < len(stages) {
			return p.index
		}
		return 0
	}
	for i, s := range stages {
		if s.Key == p.key || s.Title == p.key {
			return i
		}
	}
	return 0
}

// Derive computes one status per stage from the pointer. It holds no state
// and returns the same result for the same inputs.
func Derive(stages []Stage, p Pointer) []Status {
	out := make([]Status, len(stages))
	cur := Resolve(stages, p)
	for i := range stages {
		out[i] = statusAt(i, cur)
	}
	return out
}

func statusAt(i, cur int) Status {
	switch {
	case i < cur:
		return StatusDone
	case i == cur:
		return StatusCurrent
	default:
		return StatusNotStarted
	}
}
