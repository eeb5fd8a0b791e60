package sessions

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/justestif/skate-sessions/internal/db"
)

// Completion states accepted by ToggleCompletion.
const (
	DesiredComplete   = "complete"
	DesiredIncomplete = "incomplete"
)

// CreateInput holds the raw form fields for creating a session.
type CreateInput struct {
	Title          string
	SpotName       string
	PlannedForDate string // YYYY-MM-DD or blank
}

// AttachInput holds the raw form fields for attaching a trick to a session.
type AttachInput struct {
	SessionID      string
	TrickID        string
	TargetAttempts string
	Notes          string
}

// UpdateInput holds the raw form fields for editing a session trick.
type UpdateInput struct {
	SessionTrickID string
	SessionID      string
	TargetAttempts string
	LandedAttempts string
	Notes          string
}

// ToggleInput holds the raw form fields for toggling completion.
type ToggleInput struct {
	SessionTrickID string
	SessionID      string
	Desired        string // "complete" or "incomplete"
}

// ParseSessionID parses a session identifier.
func ParseSessionID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, invalid("session id", raw)
	}
	return id, nil
}

// parseID parses a positive integer identifier.
func parseID(field, raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, invalid(field, raw)
	}
	return id, nil
}

// optionalInt parses an optional integer no smaller than lowest.
// Blank input means unset and yields nil.
func optionalInt(field, raw string, lowest int) (*int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil || n < lowest {
		return nil, invalid(field, raw)
	}
	return &n, nil
}

// optionalText returns nil for blank input and the input verbatim otherwise.
func optionalText(raw string) *string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return &raw
}

// optionalTrimmed returns nil for blank input and the trimmed input otherwise.
func optionalTrimmed(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// optionalDate parses an optional YYYY-MM-DD calendar date.
func optionalDate(field, raw string) (*time.Time, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	d, err := time.Parse(db.DateLayout, trimmed)
	if err != nil {
		return nil, invalid(field, raw)
	}
	return &d, nil
}
