package seed

import (
	"context"
	"fmt"
	"log/slog"

	"interlude/internal/logging"
	"interlude/internal/media"
	"interlude/internal/structure"
)

// Apply inserts the sample game and episode when the catalog is empty. It is
// idempotent: a non-empty catalog is left untouched.
func Apply(ctx context.Context, catalog *media.CatalogService, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.WithComponent(logger, "seed")

	games, err := catalog.ListGames(ctx)
	if err != nil {
		return fmt.Errorf("inspect catalog: %w", err)
	}
	if len(games) > 0 {
		return nil
	}

	game, err := catalog.CreateGame(ctx, media.GameInput{
		Title:         "Shadow over the Grid",
		Description:   "A dark mystery unfolding in a virtual space.",
		ThumbnailURL:  "https://placehold.co/800x450/1a1a1a/ffffff?text=Shadow+over+the+Grid",
		BackgroundURL: "https://placehold.co/1920x1080/1a1a1a/ffffff?text=Shadow+over+the+Grid+BG",
		Lore:          "The digital world is collapsing, and you are the only one who can stop it.",
	})
	if err != nil {
		return fmt.Errorf("seed game: %w", err)
	}

	episode, err := catalog.CreateEpisode(ctx, media.EpisodeInput{
		GameID:        game.ID,
		Title:         "The Beginning",
		Description:   "The first step into the darkness.",
		SeasonNumber:  1,
		EpisodeNumber: 1,
		IsFree:        true,
		Structure:     SampleEpisode(),
	})
	if err != nil {
		return fmt.Errorf("seed episode: %w", err)
	}

	logger.Info("sample catalog seeded",
		logging.FieldGameID, game.ID,
		logging.FieldEpisodeID, episode.ID)
	return nil
}

// SampleEpisode is a one-node looping graph: both choices replay the node, so
// the sample is playable forever without further content.
func SampleEpisode() *structure.Structure {
	return &structure.Structure{
		StartNodeID: "node1",
		Nodes: map[string]structure.VideoNode{
			"node1": {
				VideoURL: "https://commondatastorage.googleapis.com/gtv-videos-bucket/sample/BigBuckBunny.mp4",
				Choices: []structure.Choice{
					{ID: "c1", Text: "Investigate the glitch", NextNodeID: "node1"},
					{ID: "c2", Text: "Ignore the warning", NextNodeID: "node1"},
				},
				Subtitles: []structure.Subtitle{
					{StartTime: 0, EndTime: 5, Text: "Systems offline. Emergency protocols engaged."},
				},
			},
		},
	}
}
