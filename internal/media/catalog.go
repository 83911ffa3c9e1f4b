package media

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"interlude/internal/logging"
	"interlude/internal/store"
	"interlude/internal/structure"
)

// GameInput is the payload for creating a catalog entry.
type GameInput struct {
	Title         string    `json:"title" validate:"required,max=200"`
	Description   string    `json:"description" validate:"required"`
	ThumbnailURL  string    `json:"thumbnailUrl" validate:"omitempty,url"`
	BackgroundURL string    `json:"backgroundUrl" validate:"omitempty,url"`
	Lore          string    `json:"lore"`
	ReleaseDate   time.Time `json:"releaseDate"`
}

// EpisodeInput is the payload for publishing an episode. The branching graph
// is validated before anything is written.
type EpisodeInput struct {
	GameID        int64                `json:"gameId" validate:"required"`
	Title         string               `json:"title" validate:"required,max=200"`
	Description   string               `json:"description"`
	SeasonNumber  int                  `json:"seasonNumber" validate:"min=1"`
	EpisodeNumber int                  `json:"episodeNumber" validate:"min=1"`
	IsFree        bool                 `json:"isFree"`
	Price         int                  `json:"price" validate:"min=0"`
	ReleaseDate   time.Time            `json:"releaseDate"`
	Structure     *structure.Structure `json:"structure" validate:"required"`
}

// EpisodeDetail is an episode row with its decoded branching graph.
type EpisodeDetail struct {
	store.Episode
	Structure *structure.Structure `json:"structure"`
}

// GameDetail is a game row joined with its episodes and characters.
type GameDetail struct {
	store.Game
	Episodes   []*store.Episode   `json:"episodes"`
	Characters []*store.Character `json:"characters"`
}

// CatalogService manages games, characters, episodes, and achievements.
type CatalogService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewCatalogService constructs a CatalogService around the store.
func NewCatalogService(st *store.Store, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &CatalogService{store: st, logger: logging.WithComponent(logger, "catalog")}
}

// CreateGame inserts a catalog entry.
func (s *CatalogService) CreateGame(ctx context.Context, input GameInput) (*store.Game, error) {
	if err := validateStruct("create game", input); err != nil {
		return nil, err
	}
	return s.store.CreateGame(ctx, store.Game{
		Title:         input.Title,
		Description:   input.Description,
		ThumbnailURL:  input.ThumbnailURL,
		BackgroundURL: input.BackgroundURL,
		Lore:          input.Lore,
		ReleaseDate:   input.ReleaseDate,
	})
}

// ListGames returns the catalog, newest first.
func (s *CatalogService) ListGames(ctx context.Context) ([]*store.Game, error) {
	return s.store.ListGames(ctx)
}

// SearchGames filters the catalog by accent-insensitive substring match on
// title and description. An empty query returns the full catalog.
func (s *CatalogService) SearchGames(ctx context.Context, query string) ([]*store.Game, error) {
	games, err := s.store.ListGames(ctx)
	if err != nil {
		return nil, err
	}
	needle := foldForSearch(query)
	if needle == "" {
		return games, nil
	}
	matched := make([]*store.Game, 0, len(games))
	for _, game := range games {
		if searchMatch(game.Title, needle) || searchMatch(game.Description, needle) {
			matched = append(matched, game)
		}
	}
	return matched, nil
}

// GetGame returns a game with its episodes and characters.
func (s *CatalogService) GetGame(ctx context.Context, id int64) (*GameDetail, error) {
	game, err := s.store.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	if game == nil {
		return nil, wrap(ErrNotFound, "get game", fmt.Sprintf("game %d", id), nil)
	}
	episodes, err := s.store.ListEpisodes(ctx, id)
	if err != nil {
		return nil, err
	}
	characters, err := s.store.ListCharacters(ctx, id)
	if err != nil {
		return nil, err
	}
	return &GameDetail{Game: *game, Episodes: episodes, Characters: characters}, nil
}

// CreateCharacter adds a lore entry to a game.
func (s *CatalogService) CreateCharacter(ctx context.Context, character store.Character) (*store.Character, error) {
	if character.GameID == 0 || character.Name == "" {
		return nil, wrap(ErrValidation, "create character", "game id and name are required", nil)
	}
	if err := s.requireGame(ctx, character.GameID, "create character"); err != nil {
		return nil, err
	}
	return s.store.CreateCharacter(ctx, character)
}

// ListCharacters returns a game's characters.
func (s *CatalogService) ListCharacters(ctx context.Context, gameID int64) ([]*store.Character, error) {
	return s.store.ListCharacters(ctx, gameID)
}

// CreateEpisode validates the branching graph and publishes the episode.
// Unreachable nodes are tolerated but logged; broken references are not.
func (s *CatalogService) CreateEpisode(ctx context.Context, input EpisodeInput) (*EpisodeDetail, error) {
	if err := validateStruct("create episode", input); err != nil {
		return nil, err
	}
	if err := input.Structure.Validate(); err != nil {
		return nil, wrap(ErrValidation, "create episode", "structure rejected", err)
	}
	if orphans := input.Structure.Unreachable(); len(orphans) > 0 {
		s.logger.Warn("episode structure has unreachable nodes",
			logging.FieldGameID, input.GameID,
			"nodes", orphans)
	}
	if err := s.requireGame(ctx, input.GameID, "create episode"); err != nil {
		return nil, err
	}

	raw, err := input.Structure.Encode()
	if err != nil {
		return nil, wrap(ErrValidation, "create episode", "encode structure", err)
	}
	episode, err := s.store.CreateEpisode(ctx, store.Episode{
		GameID:        input.GameID,
		Title:         input.Title,
		Description:   input.Description,
		SeasonNumber:  input.SeasonNumber,
		EpisodeNumber: input.EpisodeNumber,
		IsFree:        input.IsFree,
		Price:         input.Price,
		ReleaseDate:   input.ReleaseDate,
		StructureJSON: string(raw),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("episode published",
		logging.FieldGameID, episode.GameID,
		logging.FieldEpisodeID, episode.ID,
		"season", episode.SeasonNumber,
		"episode", episode.EpisodeNumber)
	return &EpisodeDetail{Episode: *episode, Structure: input.Structure}, nil
}

// GetEpisode returns an episode with its decoded graph.
func (s *CatalogService) GetEpisode(ctx context.Context, id int64) (*EpisodeDetail, error) {
	episode, err := s.store.GetEpisode(ctx, id)
	if err != nil {
		return nil, err
	}
	if episode == nil {
		return nil, wrap(ErrNotFound, "get episode", fmt.Sprintf("episode %d", id), nil)
	}
	decoded, err := structure.Decode([]byte(episode.StructureJSON))
	if err != nil {
		// A row that fails decode means a write-path bug, not caller error.
		return nil, fmt.Errorf("decode stored structure for episode %d: %w", id, err)
	}
	return &EpisodeDetail{Episode: *episode, Structure: decoded}, nil
}

// ListEpisodes returns a game's episodes in season/episode order.
func (s *CatalogService) ListEpisodes(ctx context.Context, gameID int64) ([]*store.Episode, error) {
	return s.store.ListEpisodes(ctx, gameID)
}

// CreateAchievement defines an unlockable for a game.
func (s *CatalogService) CreateAchievement(ctx context.Context, achievement store.Achievement) (*store.Achievement, error) {
	if achievement.GameID == 0 || achievement.Title == "" {
		return nil, wrap(ErrValidation, "create achievement", "game id and title are required", nil)
	}
	if err := s.requireGame(ctx, achievement.GameID, "create achievement"); err != nil {
		return nil, err
	}
	return s.store.CreateAchievement(ctx, achievement)
}

// ListAchievements returns a game's achievement definitions.
func (s *CatalogService) ListAchievements(ctx context.Context, gameID int64) ([]*store.Achievement, error) {
	return s.store.ListAchievements(ctx, gameID)
}

// ListUserAchievements returns the achievements a user has unlocked.
func (s *CatalogService) ListUserAchievements(ctx context.Context, userID int64) ([]*store.UnlockedAchievement, error) {
	return s.store.ListUserAchievements(ctx, userID)
}

// UnlockAchievement records an unlock; repeat unlocks are no-ops.
func (s *CatalogService) UnlockAchievement(ctx context.Context, userID, achievementID int64) error {
	return s.store.UnlockAchievement(ctx, userID, achievementID)
}

func (s *CatalogService) requireGame(ctx context.Context, gameID int64, operation string) error {
	game, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return err
	}
	if game == nil {
		return wrap(ErrNotFound, operation, fmt.Sprintf("game %d", gameID), nil)
	}
	return nil
}
