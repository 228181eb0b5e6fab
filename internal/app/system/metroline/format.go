package metroline

import (
	"strconv"
	"strings"
	"time"

	"github.com/suashub/suashub/internal/domain/models"
)

// Placeholder is shown for absent or unparseable timestamps.
const Placeholder = "—"

// DateTimeLayout is the pt-BR date-time layout.
const DateTimeLayout = "02/01/2006 15:04"

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// FormatDateTime renders t in loc (UTC when nil). A zero time renders the
// placeholder.
func FormatDateTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return Placeholder
	}
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(DateTimeLayout)
}

// ParseTimestamp reads an ISO timestamp in any of the layouts the backend
// has been seen to send. Empty or invalid input reports false.
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MunicipalityName resolves id against list, falling back to the id itself.
func MunicipalityName(id int64, list []models.Municipio) string {
	for _, m := range list {
		if m.ID == id {
			return m.Nome
		}
	}
	return strconv.FormatInt(id, 10)
}
