// Package metroline implements the "linha metrô" stage tracker: the ordered,
// vertically connected list of stages a case moves through, the per-stage
// status derived from the current-stage pointer, and the workflow used to
// register a ProgressEvent against a stage.
//
// Everything here is pure view-layer logic. Persistence and transport live in
// the stores and in the casesapi client; rendering lives in the feature
// templates, which consume the view models built by Build.
package metroline

import (
	"fmt"
	"strconv"
	"strings"
)

// Stage is the canonical stage shape every renderer works with.
type Stage struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
}

// Descriptor is implemented by typed stage sources (Stage, StageData, the
// catalogue definitions) so Normalize does not need to probe their fields.
type Descriptor interface {
	StageKey() string
	StageTitle() string
	StageSubtitle() string
}

func (s Stage) StageKey() string      { return s.Key }
func (s Stage) StageTitle() string    { return s.Title }
func (s Stage) StageSubtitle() string { return s.Subtitle }

// Normalize converts heterogeneous stage descriptors into canonical stages.
//
// Accepted items: Descriptor values, plain strings, and loosely shaped maps
// (keys key/codigo, title/nome, subtitle/descricao). Anything else is
// stringified into the title. Output is one-to-one with the input and keeps
// its order.
//
// A missing key becomes the zero-based index. A key repeating an earlier
// output key is suffixed with "-<index>" so keys stay unique. A missing title
// falls back to the key. Normalize never fails.
func Normalize(items []any) []Stage {
	out := make([]Stage, 0, len(items))
	seen := make(map[string]struct{}, len(items))

	for i, item := range items {
		key, title, subtitle := describe(item)
		if key == "" {
			key = strconv.Itoa(i)
		}
		key = uniqueKey(key, i, seen)
		seen[key] = struct{}{}

		if title == "" {
			title = key
		}
		out = append(out, Stage{Key: key, Title: title, Subtitle: subtitle})
	}
	return out
}

// NormalizeStages is Normalize for an already typed slice.
func NormalizeStages[T Descriptor](items []T) []Stage {
	anys := make([]any, len(items))
	for i := range items {
		anys[i] = items[i]
	}
	return Normalize(anys)
}

func describe(item any) (key, title, subtitle string) {
	switch v := item.(type) {
	case nil:
		return "", "", ""
	case Descriptor:
		return strings.TrimSpace(v.StageKey()), strings.TrimSpace(v.StageTitle()), strings.TrimSpace(v.StageSubtitle())
	case string:
		// Plain strings carry no identity; the index becomes the key.
		return "", strings.TrimSpace(v), ""
	case map[string]any:
		return firstField(v, "key", "codigo"), firstField(v, "title", "nome"), firstField(v, "subtitle", "descricao")
	case map[string]string:
		m := make(map[string]any, len(v))
		for k, s := range v {
			m[k] = s
		}
		return describe(m)
	case fmt.Stringer:
		return "", strings.TrimSpace(v.String()), ""
	default:
		return "", strings.TrimSpace(fmt.Sprint(v)), ""
	}
}

func firstField(m map[string]any, names ...string) string {
	for _, n := range names {
		v, ok := m[n]
		if !ok || v == nil {
			continue
		}
		var s string
		switch t := v.(type) {
		case string:
			s = t
		case float64:
			// JSON numbers decode as float64; integral codes read as integers.
			s = strconv.FormatFloat(t, 'f', -1, 64)
		default:
			s = fmt.Sprint(t)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func uniqueKey(key string, index int, seen map[string]struct{}) string {
	if _, dup := seen[key]; !dup {
		return key
	}
	suffix := "-" + strconv.Itoa(index)
	candidate := key + suffix
	for {
		if _, dup := seen[candidate]; !dup {
			return candidate
		}
		candidate += suffix
	}
}
