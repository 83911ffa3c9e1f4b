package media

import (
	"context"
	"fmt"
	"log/slog"

	"interlude/internal/logging"
	"interlude/internal/notify"
	"interlude/internal/store"
	"interlude/internal/structure"
)

// ProgressService persists playback cursors and publishes change events.
type ProgressService struct {
	store  *store.Store
	hub    *notify.Hub
	logger *slog.Logger
}

// NewProgressService constructs a ProgressService. The hub may be nil when no
// subscribers exist, e.g. in CLI tooling.
func NewProgressService(st *store.Store, hub *notify.Hub, logger *slog.Logger) *ProgressService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ProgressService{store: st, hub: hub, logger: logging.WithComponent(logger, "progress")}
}

// Save commits one progress update. The current node must exist in the
// episode's graph, and the completed flag is only accepted on terminal nodes.
// Repeating an identical commit is harmless.
func (s *ProgressService) Save(ctx context.Context, update store.ProgressUpdate) (*store.UserProgress, error) {
	if update.UserID == 0 || update.EpisodeID == 0 {
		return nil, wrap(ErrValidation, "save progress", "user id and episode id are required", nil)
	}
	if update.CurrentNodeID == "" {
		return nil, wrap(ErrValidation, "save progress", "current node id is required", nil)
	}

	episode, err := s.store.GetEpisode(ctx, update.EpisodeID)
	if err != nil {
		return nil, err
	}
	if episode == nil {
		return nil, wrap(ErrNotFound, "save progress", fmt.Sprintf("episode %d", update.EpisodeID), nil)
	}
	if update.GameID == 0 {
		update.GameID = episode.GameID
	} else if update.GameID != episode.GameID {
		return nil, wrap(ErrValidation, "save progress", "game id does not match episode", nil)
	}

	graph, err := structure.Decode([]byte(episode.StructureJSON))
	if err != nil {
		return nil, fmt.Errorf("decode stored structure for episode %d: %w", episode.ID, err)
	}
	node, ok := graph.Node(update.CurrentNodeID)
	if !ok {
		return nil, wrap(ErrValidation, "save progress",
			fmt.Sprintf("node %q not in episode %d", update.CurrentNodeID, episode.ID), nil)
	}
	if update.Completed && !node.Terminal() {
		return nil, wrap(ErrValidation, "save progress",
			fmt.Sprintf("node %q is not terminal", update.CurrentNodeID), nil)
	}
	for _, entry := range update.Choices {
		origin, ok := graph.Node(entry.NodeID)
		if !ok {
			return nil, wrap(ErrValidation, "save progress",
				fmt.Sprintf("history references unknown node %q", entry.NodeID), nil)
		}
		if _, ok := origin.Choice(entry.ChoiceID); !ok {
			return nil, wrap(ErrValidation, "save progress",
				fmt.Sprintf("history references unknown choice %q on node %q", entry.ChoiceID, entry.NodeID), nil)
		}
	}

	progress, err := s.store.UpsertProgress(ctx, update)
	if err != nil {
		return nil, err
	}
	if s.hub != nil {
		s.hub.Publish(notify.ProgressEvent{
			UserID:    progress.UserID,
			GameID:    progress.GameID,
			EpisodeID: progress.EpisodeID,
			NodeID:    progress.CurrentNodeID,
			Completed: progress.Completed,
			UpdatedAt: progress.UpdatedAt,
		})
	}
	s.logger.Debug("progress committed",
		logging.FieldUserID, progress.UserID,
		logging.FieldEpisodeID, progress.EpisodeID,
		logging.FieldNodeID, progress.CurrentNodeID,
		"completed", progress.Completed)
	return progress, nil
}

// Get returns the saved cursor for a (user, episode) pair, or nil when the
// user has never played the episode. Absent progress is not an error.
func (s *ProgressService) Get(ctx context.Context, userID, episodeID int64) (*store.UserProgress, error) {
	return s.store.GetProgress(ctx, userID, episodeID)
}

// List returns all of a user's progress rows, most recently updated first.
func (s *ProgressService) List(ctx context.Context, userID int64) ([]*store.UserProgress, error) {
	return s.store.ListProgress(ctx, userID)
}

// Recent returns the user's most recently played episodes joined with catalog
// display fields. Limit zero applies the default rail size.
func (s *ProgressService) Recent(ctx context.Context, userID int64, limit int) ([]*store.RecentPlay, error) {
	return s.store.RecentProgress(ctx, userID, limit)
}
