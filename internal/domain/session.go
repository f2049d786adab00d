package domain

import (
	"time"

	"github.com/google/uuid"
)

// DownloadRequest describes what a session fetches. It is cloned when a
// session starts and never mutated afterwards.
type DownloadRequest struct {
	Kind    RequestKind `json:"kind"`
	URL     string      `json:"url,omitempty"`
	ItemIDs []string    `json:"ids,omitempty"`
	Format  Format      `json:"format"`
}

// Clone returns a copy that shares no memory with r.
func (r DownloadRequest) Clone() DownloadRequest {
	c := r
	if r.ItemIDs != nil {
		c.ItemIDs = append([]string(nil), r.ItemIDs...)
	}
	return c
}

// ProgressSnapshot is the best-known progress reading of the active session.
type ProgressSnapshot struct {
	Percent  float64 `json:"percent"`
	Speed    string  `json:"speed"`
	ETA      string  `json:"eta"`
	Sequence int     `json:"sequence"`
}

// ItemResult pairs a requested batch item with the file it produced.
type ItemResult struct {
	ID   string `json:"id"`
	Path string `json:"path"`
}

// Outcome is the terminal result of a successful session.
// Path is set for single downloads, Paths and Items for batches.
type Outcome struct {
	Path  string       `json:"path,omitempty"`
	Paths []string     `json:"paths,omitempty"`
	Items []ItemResult `json:"items,omitempty"`
}

// Session is one full lifecycle of a download request.
type Session struct {
	ID         uuid.UUID        `json:"session_id"`
	Request    DownloadRequest  `json:"request"`
	Status     SessionStatus    `json:"status"`
	Progress   ProgressSnapshot `json:"progress"`
	Log        []string         `json:"log"`
	Outcome    *Outcome         `json:"outcome,omitempty"`
	Error      string           `json:"error,omitempty"`
	ErrorKind  string           `json:"error_kind,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
}

// NewSession creates a running session with a zeroed snapshot and an empty log.
func NewSession(req DownloadRequest) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New(),
		Request:   req.Clone(),
		Status:    SessionStatusRunning,
		Log:       make([]string, 0),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy safe to hand out while the session keeps running.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Request = s.Request.Clone()
	c.Log = append(make([]string, 0, len(s.Log)), s.Log...)
	if s.Outcome != nil {
		o := *s.Outcome
		o.Paths = append([]string(nil), s.Outcome.Paths...)
		o.Items = append([]ItemResult(nil), s.Outcome.Items...)
		c.Outcome = &o
	}
	if s.FinishedAt != nil {
		t := *s.FinishedAt
		c.FinishedAt = &t
	}
	return &c
}

// SessionEvent is pushed to observers whenever the active session changes.
type SessionEvent struct {
	Type      EventType         `json:"type"`
	SessionID uuid.UUID         `json:"session_id"`
	Status    SessionStatus     `json:"status"`
	Progress  *ProgressSnapshot `json:"progress,omitempty"`
	Line      string            `json:"line,omitempty"`
	Outcome   *Outcome          `json:"outcome,omitempty"`
	Error     string            `json:"error,omitempty"`
}
