package domain

// SessionStatus represents the current state of a download session.
type SessionStatus string

const (
	SessionStatusIdle      SessionStatus = "idle"
	SessionStatusRunning   SessionStatus = "running"
	SessionStatusSucceeded SessionStatus = "succeeded"
	SessionStatusFailed    SessionStatus = "failed"
)

// IsTerminal returns true once the session has produced an outcome or a failure.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionStatusSucceeded || s == SessionStatusFailed
}

// RequestKind distinguishes a single-item download from a playlist batch.
type RequestKind string

const (
	KindSingle RequestKind = "single"
	KindBatch  RequestKind = "batch"
)

// Format is the media flavour requested from the fetcher.
type Format string

const (
	FormatAudio Format = "audio"
	FormatVideo Format = "video"
)

// IsValid reports whether f is one of the supported formats.
// The legacy mp4/mp3/wav values are not accepted.
func (f Format) IsValid() bool {
	return f == FormatAudio || f == FormatVideo
}

// EventType identifies a SessionEvent.
type EventType string

const (
	EventSessionStarted  EventType = "session:started"
	EventSessionProgress EventType = "session:progress"
	EventSessionFinished EventType = "session:finished"
)
