package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"interlude/internal/logging"
	"interlude/internal/player"
	"interlude/internal/structure"
)

const simulateMaxSteps = 100

func newSimulateCommand(ctx *commandContext) *cobra.Command {
	var userID int64
	var gameID int64
	var episodeID int64
	var choices []string

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Walk an episode graph headlessly against a running daemon",
		Long: "Simulate drives a playback session through an episode's branching " +
			"graph, committing progress through the REST API exactly as a player " +
			"would. Scripted choices are consumed in order; the walk stops at the " +
			"first unscripted choice point.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 || episodeID <= 0 {
				return fmt.Errorf("--user and --episode are required")
			}

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.newClient()
			if err != nil {
				return err
			}

			detail, err := client.Episode(cmd.Context(), episodeID)
			if err != nil {
				return fmt.Errorf("fetch episode: %w", err)
			}
			if gameID > 0 && gameID != detail.GameID {
				return fmt.Errorf("episode %d belongs to game %d, not %d", episodeID, detail.GameID, gameID)
			}

			resumed, err := client.Progress(cmd.Context(), userID, episodeID)
			if err != nil {
				return fmt.Errorf("fetch saved progress: %w", err)
			}

			// Preferences are cosmetic; a fetch failure falls open to defaults.
			settings, err := client.Settings(cmd.Context(), userID)
			if err != nil {
				settings = nil
			}

			session := player.NewSession(player.Options{
				UserID:        userID,
				EpisodeID:     episodeID,
				GameID:        detail.GameID,
				Structure:     detail.Structure,
				Gateway:       client,
				Logger:        logging.NewNop(),
				Settings:      settings,
				CommitTimeout: time.Duration(cfg.Player.CommitTimeoutSeconds) * time.Second,
				CommitRetries: cfg.Player.CommitRetries,
			})
			if err := session.Initialize(resumed); err != nil {
				return fmt.Errorf("initialize session: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Simulating %q (episode %d) as user %d\n", detail.Title, episodeID, userID)
			if resumed != nil {
				fmt.Fprintf(out, "Resuming from saved cursor %q\n", resumed.CurrentNodeID)
			}

			return walkGraph(cmd.Context(), out, session, detail.Structure, choices)
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User id to play as")
	cmd.Flags().Int64Var(&gameID, "game", 0, "Game id the episode belongs to (optional cross-check)")
	cmd.Flags().Int64Var(&episodeID, "episode", 0, "Episode id to play")
	cmd.Flags().StringSliceVar(&choices, "choices", nil, "Choice ids to take, in order")
	return cmd
}

func walkGraph(ctx context.Context, out io.Writer, session *player.Session, graph *structure.Structure, scripted []string) error {
	next := 0
	for step := 0; step < simulateMaxSteps; step++ {
		snap := session.Snapshot()
		fmt.Fprintf(out, "[%d] node %s\n", step+1, snap.CurrentNodeID)

		if err := session.OnVideoComplete(ctx); err != nil {
			return fmt.Errorf("complete node %s: %w", snap.CurrentNodeID, err)
		}

		switch session.State() {
		case player.StateCompleted:
			final := session.Snapshot()
			fmt.Fprintf(out, "Episode complete after %d choice(s)\n", len(final.History))
			return nil
		case player.StateAwaitingChoice:
			node, _ := graph.Node(snap.CurrentNodeID)
			if next >= len(scripted) {
				fmt.Fprintf(out, "Stopped at choice point %s; available choices:\n", snap.CurrentNodeID)
				for _, choice := range node.Choices {
					fmt.Fprintf(out, "  %s: %s -> %s\n", choice.ID, choice.Text, choice.NextNodeID)
				}
				return nil
			}
			choiceID := scripted[next]
			next++
			choice, ok := node.Choice(choiceID)
			if !ok {
				return fmt.Errorf("node %s has no choice %q", snap.CurrentNodeID, choiceID)
			}
			if err := session.OnChoiceSelected(ctx, choiceID); err != nil {
				return fmt.Errorf("select choice %s: %w", choiceID, err)
			}
			fmt.Fprintf(out, "    chose %s (%s) -> %s\n", choice.ID, choice.Text, choice.NextNodeID)
		default:
			return fmt.Errorf("unexpected session state %s", session.State())
		}
	}
	return fmt.Errorf("stopped after %d steps without reaching a terminal node", simulateMaxSteps)
}
