package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const progressColumns = "id, user_id, episode_id, game_id, current_node_id, completed, choices_json, updated_at"

func scanProgress(scanner interface{ Scan(dest ...any) error }) (*UserProgress, error) {
	var (
		progress   UserProgress
		nodeID     sql.NullString
		completed  int
		choicesRaw sql.NullString
		updatedRaw sql.NullString
	)
	if err := scanner.Scan(
		&progress.ID,
		&progress.UserID,
		&progress.EpisodeID,
		&progress.GameID,
		&nodeID,
		&completed,
		&choicesRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	progress.CurrentNodeID = nodeID.String
	progress.Completed = completed != 0

	choices, err := decodeChoices(choicesRaw)
	if err != nil {
		return nil, err
	}
	progress.Choices = choices

	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		progress.UpdatedAt = updated
	}
	return &progress, nil
}

// GetProgress fetches the resume cursor for one (user, episode) pair.
func (s *Store) GetProgress(ctx context.Context, userID, episodeID int64) (*UserProgress, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+progressColumns+` FROM user_progress WHERE user_id = ? AND episode_id = ?`,
		userID,
		episodeID,
	)
	progress, err := scanProgress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get progress: %w", err)
	}
	return progress, nil
}

// UpsertProgress commits one transition. Exactly one live record exists per
// (user, episode) pair: the first commit creates it, every later commit
// overwrites cursor, completion flag, and history, and bumps updated_at.
// Identical repeated commits are safe; they converge on the same stored row.
func (s *Store) UpsertProgress(ctx context.Context, update ProgressUpdate) (*UserProgress, error) {
	if update.UserID == 0 || update.EpisodeID == 0 {
		return nil, errors.New("progress requires user and episode ids")
	}

	choicesJSON, err := encodeChoices(update.Choices)
	if err != nil {
		return nil, err
	}

	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO user_progress (user_id, episode_id, game_id, current_node_id, completed, choices_json, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT (user_id, episode_id) DO UPDATE SET
             game_id = excluded.game_id,
             current_node_id = excluded.current_node_id,
             completed = excluded.completed,
             choices_json = excluded.choices_json,
             updated_at = excluded.updated_at`,
		update.UserID,
		update.EpisodeID,
		update.GameID,
		nullableString(update.CurrentNodeID),
		boolToInt(update.Completed),
		choicesJSON,
		timestamp(time.Now()),
	); err != nil {
		return nil, fmt.Errorf("upsert progress: %w", err)
	}

	return s.GetProgress(ctx, update.UserID, update.EpisodeID)
}

// ListProgress returns every progress record for a user, most recent first.
func (s *Store) ListProgress(ctx context.Context, userID int64) ([]*UserProgress, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+progressColumns+` FROM user_progress WHERE user_id = ? ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var records []*UserProgress
	for rows.Next() {
		progress, err := scanProgress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		records = append(records, progress)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress: %w", err)
	}
	return records, nil
}

// RecentProgress returns the user's most recently played episodes joined
// with catalog display fields.
func (s *Store) RecentProgress(ctx context.Context, userID int64, limit int) ([]*RecentPlay, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT p.id, p.user_id, p.episode_id, p.game_id, p.current_node_id, p.completed, p.choices_json, p.updated_at,
                g.title, e.title, g.thumbnail_url
         FROM user_progress p
         JOIN games g ON g.id = p.game_id
         JOIN episodes e ON e.id = p.episode_id
         WHERE p.user_id = ?
         ORDER BY p.updated_at DESC
         LIMIT ?`,
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("recent progress: %w", err)
	}
	defer rows.Close()

	var recents []*RecentPlay
	for rows.Next() {
		var (
			play       RecentPlay
			nodeID     sql.NullString
			completed  int
			choicesRaw sql.NullString
			updatedRaw sql.NullString
		)
		if err := rows.Scan(
			&play.ID,
			&play.UserID,
			&play.EpisodeID,
			&play.GameID,
			&nodeID,
			&completed,
			&choicesRaw,
			&updatedRaw,
			&play.GameTitle,
			&play.EpisodeTitle,
			&play.ThumbnailURL,
		); err != nil {
			return nil, fmt.Errorf("scan recent progress: %w", err)
		}
		play.CurrentNodeID = nodeID.String
		play.Completed = completed != 0
		choices, err := decodeChoices(choicesRaw)
		if err != nil {
			return nil, err
		}
		play.Choices = choices
		if updated, err := parseTimeString(updatedRaw.String); err == nil {
			play.UpdatedAt = updated
		}
		recents = append(recents, &play)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent progress: %w", err)
	}
	return recents, nil
}
