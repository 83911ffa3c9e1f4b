package player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"interlude/internal/logging"
	"interlude/internal/media"
	"interlude/internal/store"
	"interlude/internal/structure"
)

var (
	// ErrInvalidTransition is returned when an operation does not apply to the
	// session's current state.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrTransitionInFlight is returned when input arrives while a previous
	// commit is still outstanding. The caller should not retry blindly; the
	// pending transition will settle first.
	ErrTransitionInFlight = errors.New("transition in flight")
	// ErrSessionClosed is returned for any operation after Close.
	ErrSessionClosed = errors.New("session closed")
	// ErrUnknownChoice is returned when a selected choice id is not offered by
	// the current node.
	ErrUnknownChoice = errors.New("unknown choice")
	// ErrCommit tags persistence failures surfaced from the gateway. The
	// session stays on its pre-commit state so the same input can be retried.
	ErrCommit = errors.New("commit failed")
)

const (
	defaultCommitTimeout = 10 * time.Second
	defaultCommitRetries = 3
)

// Committer persists progress updates. Both the in-process service and the
// REST gateway satisfy it.
type Committer interface {
	Save(ctx context.Context, update store.ProgressUpdate) (*store.UserProgress, error)
}

// Options configures a playback session.
type Options struct {
	UserID    int64
	EpisodeID int64
	GameID    int64
	Structure *structure.Structure
	Gateway   Committer
	Logger    *slog.Logger

	// Settings is the user's playback overlay. Nil falls open to defaults
	// (subtitles on, full volume); preference fetch failures are cosmetic and
	// must not block playback.
	Settings *store.UserSettings

	// CommitTimeout bounds one commit attempt including retries. Zero applies
	// the default.
	CommitTimeout time.Duration
	// CommitRetries is the number of retry attempts after the first failed
	// commit. Zero applies the default; negative disables retries.
	CommitRetries int
}

// Snapshot is a read-only view of session state for callers and tests.
type Snapshot struct {
	State         State               `json:"state"`
	CurrentNodeID string              `json:"currentNodeId"`
	History       []store.ChoiceEntry `json:"history"`
	Completed     bool                `json:"completed"`
	Err           string              `json:"error,omitempty"`
}

// Session is one user's traversal through one episode's graph.
type Session struct {
	mu sync.Mutex

	id        string
	userID    int64
	episodeID int64
	gameID    int64
	graph     *structure.Structure
	gateway   Committer
	logger    *slog.Logger
	settings  store.UserSettings

	commitTimeout time.Duration
	commitRetries int

	state         State
	currentNodeID string
	history       []store.ChoiceEntry
	completed     bool
	inFlight      bool
	lastErr       error
}

// NewSession builds a session in the Loading state. Initialize must be called
// before playback operations.
func NewSession(opts Options) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := opts.CommitTimeout
	if timeout <= 0 {
		timeout = defaultCommitTimeout
	}
	retries := opts.CommitRetries
	if retries == 0 {
		retries = defaultCommitRetries
	}
	if retries < 0 {
		retries = 0
	}
	settings := store.DefaultSettings(opts.UserID)
	if opts.Settings != nil {
		settings = *opts.Settings
	}
	id := uuid.NewString()
	return &Session{
		id:            id,
		userID:        opts.UserID,
		episodeID:     opts.EpisodeID,
		gameID:        opts.GameID,
		graph:         opts.Structure,
		gateway:       opts.Gateway,
		logger:        logging.WithComponent(logger, "player").With(slog.String(logging.FieldSessionID, id)),
		settings:      settings,
		commitTimeout: timeout,
		commitRetries: retries,
		state:         StateLoading,
	}
}

// Initialize binds the structure and an optional resumed progress record.
// A resume cursor pointing at a node that no longer exists falls back to the
// start node with empty history. Structural defects move the session to
// Failed and are reported tagged with structure.ErrIntegrity.
func (s *Session) Initialize(resumed *store.UserProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateLoading {
		return fmt.Errorf("%w: initialize from %s", ErrInvalidTransition, s.state)
	}
	if s.graph == nil {
		s.fail(fmt.Errorf("%w: no structure bound", structure.ErrIntegrity))
		return s.lastErr
	}
	if err := s.graph.Validate(); err != nil {
		s.fail(err)
		return s.lastErr
	}

	s.currentNodeID = s.graph.StartNodeID
	s.history = nil
	if resumed != nil && resumed.CurrentNodeID != "" {
		if _, ok := s.graph.Node(resumed.CurrentNodeID); ok {
			s.currentNodeID = resumed.CurrentNodeID
			s.history = append([]store.ChoiceEntry(nil), resumed.Choices...)
		} else {
			// Stale cursor, likely from a re-authored episode. Restart rather
			// than fail the whole session.
			s.logger.Warn("resume cursor not in structure, restarting",
				logging.FieldEpisodeID, s.episodeID,
				logging.FieldNodeID, resumed.CurrentNodeID)
		}
	}
	s.state = StateReady
	s.logger.Info("session ready",
		logging.FieldUserID, s.userID,
		logging.FieldEpisodeID, s.episodeID,
		logging.FieldNodeID, s.currentNodeID,
		"resumed", len(s.history) > 0)
	return nil
}

// OnVideoComplete handles the current node's video finishing. Terminal nodes
// commit completion and end the playthrough; branching nodes move to
// AwaitingChoice without writing anything.
func (s *Session) OnVideoComplete(ctx context.Context) error {
	s.mu.Lock()
	if err := s.acceptInput(StateReady); err != nil {
		s.mu.Unlock()
		return err
	}
	node, ok := s.graph.Node(s.currentNodeID)
	if !ok {
		s.fail(fmt.Errorf("%w: current node %q vanished", structure.ErrIntegrity, s.currentNodeID))
		err := s.lastErr
		s.mu.Unlock()
		return err
	}
	if !node.Terminal() {
		s.state = StateAwaitingChoice
		s.mu.Unlock()
		return nil
	}

	update := store.ProgressUpdate{
		UserID:        s.userID,
		EpisodeID:     s.episodeID,
		GameID:        s.gameID,
		CurrentNodeID: s.currentNodeID,
		Completed:     true,
		Choices:       append([]store.ChoiceEntry(nil), s.history...),
	}
	s.inFlight = true
	s.mu.Unlock()

	commitErr := s.commit(ctx, update)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if s.state == StateClosed {
		return ErrSessionClosed
	}
	if commitErr != nil {
		// Stay on Ready so completion can be retried with the same payload.
		return commitErr
	}
	s.state = StateCompleted
	s.completed = true
	s.logger.Info("playthrough completed",
		logging.FieldUserID, s.userID,
		logging.FieldEpisodeID, s.episodeID,
		logging.FieldNodeID, s.currentNodeID)
	return nil
}

// OnChoiceSelected commits the chosen branch and then advances to its target
// node. On commit failure the session stays in AwaitingChoice with history
// unchanged, so the same choice can be retried.
func (s *Session) OnChoiceSelected(ctx context.Context, choiceID string) error {
	s.mu.Lock()
	if err := s.acceptInput(StateAwaitingChoice); err != nil {
		s.mu.Unlock()
		return err
	}
	node, ok := s.graph.Node(s.currentNodeID)
	if !ok {
		s.fail(fmt.Errorf("%w: current node %q vanished", structure.ErrIntegrity, s.currentNodeID))
		err := s.lastErr
		s.mu.Unlock()
		return err
	}
	choice, ok := node.Choice(choiceID)
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %q on node %q", ErrUnknownChoice, choiceID, s.currentNodeID)
	}

	pending := append(append([]store.ChoiceEntry(nil), s.history...), store.ChoiceEntry{
		NodeID:   s.currentNodeID,
		ChoiceID: choice.ID,
	})
	update := store.ProgressUpdate{
		UserID:        s.userID,
		EpisodeID:     s.episodeID,
		GameID:        s.gameID,
		CurrentNodeID: choice.NextNodeID,
		Completed:     false,
		Choices:       pending,
	}
	s.inFlight = true
	s.mu.Unlock()

	commitErr := s.commit(ctx, update)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if s.state == StateClosed {
		return ErrSessionClosed
	}
	if commitErr != nil {
		return commitErr
	}
	s.history = pending
	s.currentNodeID = choice.NextNodeID
	s.state = StateReady
	s.logger.Debug("choice committed",
		logging.FieldUserID, s.userID,
		logging.FieldEpisodeID, s.episodeID,
		logging.FieldNodeID, s.currentNodeID,
		"choice_id", choice.ID)
	return nil
}

// SubtitleAt resolves the subtitle cue for elapsed time t within the current
// node. It is a pure read and is allowed in Ready and AwaitingChoice.
func (s *Session) SubtitleAt(t float64) (structure.Subtitle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.settings.Subtitles {
		return structure.Subtitle{}, false
	}
	if s.state != StateReady && s.state != StateAwaitingChoice {
		return structure.Subtitle{}, false
	}
	node, ok := s.graph.Node(s.currentNodeID)
	if !ok {
		return structure.Subtitle{}, false
	}
	return node.SubtitleAt(t)
}

// Volume returns the effective master volume in [0, 10], honoring mute-all.
func (s *Session) Volume() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.settings.MuteAll {
		return 0
	}
	return s.settings.MasterVolume
}

// Snapshot returns the current session view.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		State:         s.state,
		CurrentNodeID: s.currentNodeID,
		History:       append([]store.ChoiceEntry(nil), s.history...),
		Completed:     s.completed,
	}
	if s.lastErr != nil {
		snap.Err = s.lastErr.Error()
	}
	return snap
}

// ID returns the session's correlation id, present on all its log records.
func (s *Session) ID() string {
	return s.id
}

// State returns the session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close tears the session down. A commit already in flight settles in the
// store but its result is discarded; no new transition is written.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.state = StateClosed
}

// acceptInput gates playback input: the session must be in want with no
// outstanding commit. Callers hold the mutex.
func (s *Session) acceptInput(want State) error {
	switch {
	case s.state == StateClosed:
		return ErrSessionClosed
	case s.inFlight:
		return ErrTransitionInFlight
	case s.state != want:
		return fmt.Errorf("%w: input for %s while %s", ErrInvalidTransition, want, s.state)
	}
	return nil
}

// fail moves the session to Failed and records the defect. Callers hold the
// mutex.
func (s *Session) fail(err error) {
	s.state = StateFailed
	s.lastErr = err
	s.logger.Error("session failed",
		logging.FieldUserID, s.userID,
		logging.FieldEpisodeID, s.episodeID,
		logging.Error(err))
}

// commit persists one update with bounded retries. The payload is idempotent,
// so retrying the identical commit is safe.
func (s *Session) commit(ctx context.Context, update store.ProgressUpdate) error {
	if s.gateway == nil {
		return fmt.Errorf("%w: no gateway configured", ErrCommit)
	}
	ctx, cancel := context.WithTimeout(ctx, s.commitTimeout)
	defer cancel()

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(s.commitRetries)),
		ctx,
	)
	err := backoff.Retry(func() error {
		_, err := s.gateway.Save(ctx, update)
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCommit, err)
	}
	return nil
}

// retryable reports whether a gateway failure is worth retrying. Rejected
// payloads stay rejected; only transient I/O is retried.
func retryable(err error) bool {
	if errors.Is(err, media.ErrValidation) || errors.Is(err, media.ErrNotFound) {
		return false
	}
	return true
}
