package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newGamesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "games",
		Short: "List the game catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.newClient()
			if err != nil {
				return err
			}
			games, err := client.Games(cmd.Context())
			if err != nil {
				return fmt.Errorf("list games: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(games) == 0 {
				fmt.Fprintln(out, "Catalog is empty")
				return nil
			}

			rows := make([][]string, 0, len(games))
			for _, game := range games {
				rows = append(rows, []string{
					strconv.FormatInt(game.ID, 10),
					game.Title,
					game.Description,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Title", "Description"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func newEpisodesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "episodes <gameID>",
		Short: "List the episodes of a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || gameID <= 0 {
				return fmt.Errorf("invalid game id %q", args[0])
			}

			client, err := ctx.newClient()
			if err != nil {
				return err
			}
			episodes, err := client.Episodes(cmd.Context(), gameID)
			if err != nil {
				return fmt.Errorf("list episodes: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(episodes) == 0 {
				fmt.Fprintln(out, "No episodes found")
				return nil
			}

			rows := make([][]string, 0, len(episodes))
			for _, episode := range episodes {
				rows = append(rows, []string{
					strconv.FormatInt(episode.ID, 10),
					fmt.Sprintf("S%02dE%02d", episode.SeasonNumber, episode.EpisodeNumber),
					episode.Title,
					yesNo(episode.IsFree),
					strconv.Itoa(episode.Price),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Episode", "Title", "Free", "Price"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}
}
