package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/veranemoloko/media-downloader/internal/aggregate"
	"github.com/veranemoloko/media-downloader/internal/domain"
	errpkg "github.com/veranemoloko/media-downloader/internal/errors"
	"github.com/veranemoloko/media-downloader/internal/metrics"
	"github.com/veranemoloko/media-downloader/internal/progress"
	repo "github.com/veranemoloko/media-downloader/internal/repository"
	"github.com/veranemoloko/media-downloader/internal/validation"
)

// ErrShuttingDown is returned by Start once Shutdown has been called.
var ErrShuttingDown = errors.New("service is shutting down")

// Fetcher downloads media on behalf of a session.
type Fetcher interface {
	FetchSingle(ctx context.Context, url string, format domain.Format) (string, error)
	FetchBatch(ctx context.Context, ids []string, format domain.Format) ([]string, error)
}

// LineSource is the global stream of fetcher status lines.
type LineSource interface {
	Subscribe(fn func(line string)) (unsubscribe func())
}

// Notifier observes session changes. Notify is called with the controller
// lock held and must not block.
type Notifier interface {
	Notify(event domain.SessionEvent)
}

type nopNotifier struct{}

// sessionRun tracks one started session until it reaches a terminal state.
// final and err are set before done is closed.
type sessionRun struct {
	done  chan struct{}
	final *domain.Session
	err   error
}

func (nopNotifier) Notify(domain.SessionEvent) {}

// SessionController runs at most one download session at a time and keeps
// its progress snapshot and log current.
type SessionController struct {
	sessionRepo repo.SessionRepo
	fetcher     Fetcher
	lines       LineSource
	notifier    Notifier
	logger      *slog.Logger

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu      sync.Mutex
	current *domain.Session
	active  *sessionRun
}

// NewSessionController creates a new SessionController. A nil notifier is allowed.
func NewSessionController(
	sessionRepo repo.SessionRepo,
	fetcher Fetcher,
	lines LineSource,
	notifier Notifier,
	logger *slog.Logger,
) *SessionController {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &SessionController{
		sessionRepo: sessionRepo,
		fetcher:     fetcher,
		lines:       lines,
		notifier:    notifier,
		logger:      logger,
		baseCtx:     ctx,
		cancel:      cancel,
	}
}

// Start begins a new session for req and returns a copy of it.
// It fails with ErrSessionRunning while another session is running, leaving
// that session untouched. An invalid request is recorded as a failed session
// and its ValidationError returned.
func (c *SessionController) Start(ctx context.Context, req domain.DownloadRequest) (*domain.Session, error) {
	session, _, err := c.start(ctx, req)
	return session, err
}

func (c *SessionController) start(ctx context.Context, req domain.DownloadRequest) (*domain.Session, *sessionRun, error) {
	c.mu.Lock()
	if c.current != nil && c.current.Status == domain.SessionStatusRunning {
		c.mu.Unlock()
		metrics.SessionsRejected.Inc()
		return nil, nil, errpkg.ErrSessionRunning
	}
	if c.baseCtx.Err() != nil {
		c.mu.Unlock()
		return nil, nil, ErrShuttingDown
	}

	session := domain.NewSession(req)
	active := &sessionRun{done: make(chan struct{})}
	c.current = session
	c.active = active

	if err := validation.ValidateRequest(session.Request); err != nil {
		snapshot := c.finishLocked(session, nil, err)
		c.mu.Unlock()
		close(active.done)

		c.logger.Warn("download request rejected",
			"session_id", session.ID,
			"error", err,
		)
		metrics.SessionsFailed.WithLabelValues(string(req.Kind), errpkg.KindValidation).Inc()
		c.persist(ctx, snapshot, true)
		return snapshot, active, err
	}

	snapshot := session.Clone()
	c.notifier.Notify(domain.SessionEvent{
		Type:      domain.EventSessionStarted,
		SessionID: session.ID,
		Status:    session.Status,
		Progress:  &snapshot.Progress,
	})
	c.mu.Unlock()

	c.persist(ctx, snapshot, true)
	metrics.SessionsStarted.WithLabelValues(string(session.Request.Kind)).Inc()
	c.logger.Info("session started",
		"session_id", session.ID,
		"kind", session.Request.Kind,
		"format", session.Request.Format,
	)

	c.wg.Add(1)
	go c.run(session.ID, session.Request, active)

	return snapshot, active, nil
}

// Wait blocks until the current session reaches a terminal state and returns a copy of it.
func (c *SessionController) Wait(ctx context.Context) (*domain.Session, error) {
	c.mu.Lock()
	active := c.active
	c.mu.Unlock()

	if active != nil {
		select {
		case <-active.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return c.Current(), nil
}

// Run starts a session and waits for that session to finish. The returned
// error is the one the session failed with.
func (c *SessionController) Run(ctx context.Context, req domain.DownloadRequest) (*domain.Session, error) {
	session, active, err := c.start(ctx, req)
	if err != nil {
		return session, err
	}
	return c.await(ctx, active)
}

func (c *SessionController) await(ctx context.Context, active *sessionRun) (*domain.Session, error) {
	select {
	case <-active.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return active.final.Clone(), active.err
}

// Current returns a copy of the current session, or an idle session if none has run.
func (c *SessionController) Current() *domain.Session {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return &domain.Session{
			ID:     uuid.Nil,
			Status: domain.SessionStatusIdle,
			Log:    make([]string, 0),
		}
	}
	return c.current.Clone()
}

// Get returns the session with the given id from the current session or history.
func (c *SessionController) Get(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	c.mu.Lock()
	if c.current != nil && c.current.ID == id {
		s := c.current.Clone()
		c.mu.Unlock()
		return s, nil
	}
	c.mu.Unlock()

	return c.sessionRepo.GetSession(ctx, id)
}

func (c *SessionController) run(id uuid.UUID, req domain.DownloadRequest, active *sessionRun) {
	defer c.wg.Done()
	defer close(active.done)

	start := time.Now()
	outcome, err := c.execute(id, req)

	c.mu.Lock()
	snapshot := c.finishLocked(c.current, outcome, err)
	c.mu.Unlock()

	c.persist(context.Background(), snapshot, false)

	kind := string(req.Kind)
	metrics.SessionDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SessionsFailed.WithLabelValues(kind, errpkg.Kind(err)).Inc()
		c.logger.Error("session failed",
			"session_id", id,
			"error_kind", errpkg.Kind(err),
			"error", err,
		)
		return
	}

	metrics.SessionsSucceeded.WithLabelValues(kind).Inc()
	c.logger.Info("session succeeded",
		"session_id", id,
		"duration", time.Since(start),
	)
}

// execute subscribes to the line stream, calls the fetcher and always
// unsubscribes, including when the fetcher panics.
func (c *SessionController) execute(id uuid.UUID, req domain.DownloadRequest) (outcome *domain.Outcome, err error) {
	unsubscribe := c.lines.Subscribe(func(line string) {
		c.handleLine(id, line)
	})
	defer unsubscribe()

	defer func() {
		if r := recover(); r != nil {
			outcome = nil
			err = fmt.Errorf("session panicked: %v", r)
		}
	}()

	switch req.Kind {
	case domain.KindSingle:
		path, err := c.fetcher.FetchSingle(c.baseCtx, req.URL, req.Format)
		if err != nil {
			return nil, err
		}
		return &domain.Outcome{Path: path}, nil
	case domain.KindBatch:
		paths, err := c.fetcher.FetchBatch(c.baseCtx, req.ItemIDs, req.Format)
		if err != nil {
			return nil, err
		}
		return aggregate.Outcome(req.ItemIDs, paths)
	default:
		return nil, &errpkg.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown request kind %q", req.Kind)}
	}
}

func (c *SessionController) handleLine(id uuid.UUID, line string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.current
	if s == nil || s.ID != id || s.Status != domain.SessionStatusRunning {
		return
	}

	s.Log = append(s.Log, line)
	s.UpdatedAt = time.Now()
	metrics.ProgressLines.Inc()

	event := domain.SessionEvent{
		Type:      domain.EventSessionProgress,
		SessionID: id,
		Status:    s.Status,
		Line:      line,
	}
	if progress.Parse(line).ApplyTo(&s.Progress) {
		p := s.Progress
		event.Progress = &p
	}
	c.notifier.Notify(event)
}

// finishLocked moves s to its terminal state and returns a copy. c.mu must be held.
func (c *SessionController) finishLocked(s *domain.Session, outcome *domain.Outcome, err error) *domain.Session {
	now := time.Now()
	s.UpdatedAt = now
	s.FinishedAt = &now

	if err != nil {
		s.Status = domain.SessionStatusFailed
		s.Error = err.Error()
		s.ErrorKind = errpkg.Kind(err)
		// The fetcher's own ERROR line usually carries the same text.
		if n := len(s.Log); n == 0 || s.Log[n-1] != s.Error {
			s.Log = append(s.Log, s.Error)
		}
	} else {
		s.Status = domain.SessionStatusSucceeded
		s.Outcome = outcome
	}

	snapshot := s.Clone()
	if c.active != nil {
		c.active.final = snapshot
		c.active.err = err
	}
	c.notifier.Notify(domain.SessionEvent{
		Type:      domain.EventSessionFinished,
		SessionID: s.ID,
		Status:    s.Status,
		Progress:  &snapshot.Progress,
		Outcome:   snapshot.Outcome,
		Error:     s.Error,
	})
	return snapshot
}

func (c *SessionController) persist(ctx context.Context, s *domain.Session, create bool) {
	if ctx.Err() != nil {
		ctx = context.Background()
	}

	var err error
	if create {
		err = c.sessionRepo.CreateSession(ctx, s)
	} else {
		err = c.sessionRepo.UpdateSession(ctx, s)
	}
	if err != nil {
		c.logger.Error("failed to persist session",
			"session_id", s.ID,
			"status", s.Status,
			"error", err,
		)
	}
}

// RecoverInterrupted marks sessions left running by a previous process as failed.
func (c *SessionController) RecoverInterrupted(ctx context.Context) error {
	running, err := c.sessionRepo.GetSessionsByStatus(ctx, domain.SessionStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to get running sessions: %w", err)
	}

	for _, s := range running {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := time.Now()
		s.Status = domain.SessionStatusFailed
		s.Error = "interrupted by restart"
		s.ErrorKind = errpkg.KindInternal
		s.Log = append(s.Log, s.Error)
		s.FinishedAt = &now

		if err := c.sessionRepo.UpdateSession(ctx, s); err != nil {
			return fmt.Errorf("failed to update session %s: %w", s.ID, err)
		}
		c.logger.Warn("interrupted session marked as failed", "session_id", s.ID)
	}

	if len(running) > 0 {
		c.logger.Info("interrupted sessions recovered", "count", len(running))
	}
	return nil
}

// Shutdown stops the running fetcher, if any, and waits for its session to be recorded.
func (c *SessionController) Shutdown(ctx context.Context) error {
	c.logger.Info("shutting down session controller")
	c.cancel()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		c.logger.Info("session controller shutdown completed")
		return nil
	case <-ctx.Done():
		c.logger.Warn("session controller shutdown timed out")
		return ctx.Err()
	}
}
