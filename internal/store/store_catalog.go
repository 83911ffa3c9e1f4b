package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	gameColumns    = "id, title, description, thumbnail_url, background_url, lore, release_date"
	episodeColumns = "id, game_id, title, description, season_number, episode_number, is_free, price, release_date, structure_json"
)

func scanGame(scanner interface{ Scan(dest ...any) error }) (*Game, error) {
	var (
		game       Game
		lore       sql.NullString
		releaseRaw sql.NullString
	)
	if err := scanner.Scan(&game.ID, &game.Title, &game.Description, &game.ThumbnailURL, &game.BackgroundURL, &lore, &releaseRaw); err != nil {
		return nil, err
	}
	game.Lore = lore.String
	if released, err := parseTimeString(releaseRaw.String); err == nil {
		game.ReleaseDate = released
	}
	return &game, nil
}

func scanEpisode(scanner interface{ Scan(dest ...any) error }) (*Episode, error) {
	var (
		episode    Episode
		isFree     int
		releaseRaw sql.NullString
	)
	if err := scanner.Scan(
		&episode.ID,
		&episode.GameID,
		&episode.Title,
		&episode.Description,
		&episode.SeasonNumber,
		&episode.EpisodeNumber,
		&isFree,
		&episode.Price,
		&releaseRaw,
		&episode.StructureJSON,
	); err != nil {
		return nil, err
	}
	episode.IsFree = isFree != 0
	if released, err := parseTimeString(releaseRaw.String); err == nil {
		episode.ReleaseDate = released
	}
	return &episode, nil
}

// CreateGame inserts a catalog entry.
func (s *Store) CreateGame(ctx context.Context, game Game) (*Game, error) {
	if game.Title == "" {
		return nil, errors.New("game title is required")
	}
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO games (title, description, thumbnail_url, background_url, lore, release_date)
         VALUES (?, ?, ?, ?, ?, ?)`,
		game.Title,
		game.Description,
		game.ThumbnailURL,
		game.BackgroundURL,
		nullableString(game.Lore),
		timestamp(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("insert game: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetGame(ctx, id)
}

// GetGame fetches one catalog entry.
func (s *Store) GetGame(ctx context.Context, id int64) (*Game, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM games WHERE id = ?`, id)
	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get game: %w", err)
	}
	return game, nil
}

// ListGames returns the full catalog ordered by release date, newest first.
func (s *Store) ListGames(ctx context.Context) ([]*Game, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+gameColumns+` FROM games ORDER BY release_date DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var games []*Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate games: %w", err)
	}
	return games, nil
}

// CreateCharacter inserts a lore character for a game.
func (s *Store) CreateCharacter(ctx context.Context, character Character) (*Character, error) {
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO characters (game_id, name, role, description, image_url) VALUES (?, ?, ?, ?, ?)`,
		character.GameID,
		character.Name,
		character.Role,
		character.Description,
		nullableString(character.ImageURL),
	)
	if err != nil {
		return nil, fmt.Errorf("insert character: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	character.ID = id
	return &character, nil
}

// ListCharacters returns a game's characters in insertion order.
func (s *Store) ListCharacters(ctx context.Context, gameID int64) ([]*Character, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, game_id, name, role, description, image_url FROM characters WHERE game_id = ? ORDER BY id`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("list characters: %w", err)
	}
	defer rows.Close()

	var characters []*Character
	for rows.Next() {
		var (
			character Character
			imageURL  sql.NullString
		)
		if err := rows.Scan(&character.ID, &character.GameID, &character.Name, &character.Role, &character.Description, &imageURL); err != nil {
			return nil, fmt.Errorf("scan character: %w", err)
		}
		character.ImageURL = imageURL.String
		characters = append(characters, &character)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate characters: %w", err)
	}
	return characters, nil
}

// CreateEpisode inserts an installment. The structure document must already
// be validated; this layer stores it verbatim.
func (s *Store) CreateEpisode(ctx context.Context, episode Episode) (*Episode, error) {
	if episode.Title == "" {
		return nil, errors.New("episode title is required")
	}
	if episode.StructureJSON == "" {
		return nil, errors.New("episode structure is required")
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO episodes (game_id, title, description, season_number, episode_number, is_free, price, release_date, structure_json)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		episode.GameID,
		episode.Title,
		episode.Description,
		episode.SeasonNumber,
		episode.EpisodeNumber,
		boolToInt(episode.IsFree),
		episode.Price,
		timestamp(time.Now()),
		episode.StructureJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("insert episode: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetEpisode(ctx, id)
}

// GetEpisode fetches one installment, structure included.
func (s *Store) GetEpisode(ctx context.Context, id int64) (*Episode, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+episodeColumns+` FROM episodes WHERE id = ?`, id)
	episode, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get episode: %w", err)
	}
	return episode, nil
}

// ListEpisodes returns a game's installments in season/episode order.
func (s *Store) ListEpisodes(ctx context.Context, gameID int64) ([]*Episode, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+episodeColumns+` FROM episodes WHERE game_id = ? ORDER BY season_number, episode_number`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	var episodes []*Episode
	for rows.Next() {
		episode, err := scanEpisode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		episodes = append(episodes, episode)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate episodes: %w", err)
	}
	return episodes, nil
}

// CreateAchievement inserts an unlockable for a game.
func (s *Store) CreateAchievement(ctx context.Context, achievement Achievement) (*Achievement, error) {
	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO achievements (game_id, title, description, icon_url) VALUES (?, ?, ?, ?)`,
		achievement.GameID,
		achievement.Title,
		achievement.Description,
		nullableString(achievement.IconURL),
	)
	if err != nil {
		return nil, fmt.Errorf("insert achievement: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	achievement.ID = id
	return &achievement, nil
}

// ListAchievements returns a game's unlockables.
func (s *Store) ListAchievements(ctx context.Context, gameID int64) ([]*Achievement, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, game_id, title, description, icon_url FROM achievements WHERE game_id = ? ORDER BY id`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("list achievements: %w", err)
	}
	defer rows.Close()
	return collectAchievements(rows)
}

// ListUserAchievements returns the achievements a user has unlocked, newest
// first.
func (s *Store) ListUserAchievements(ctx context.Context, userID int64) ([]*UnlockedAchievement, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT a.id, a.game_id, a.title, a.description, a.icon_url, ua.unlocked_at
         FROM user_achievements ua
         JOIN achievements a ON a.id = ua.achievement_id
         WHERE ua.user_id = ?
         ORDER BY ua.unlocked_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list user achievements: %w", err)
	}
	defer rows.Close()

	var unlocked []*UnlockedAchievement
	for rows.Next() {
		var (
			entry       UnlockedAchievement
			iconURL     sql.NullString
			unlockedRaw sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.GameID, &entry.Title, &entry.Description, &iconURL, &unlockedRaw); err != nil {
			return nil, fmt.Errorf("scan user achievement: %w", err)
		}
		entry.IconURL = iconURL.String
		if at, err := parseTimeString(unlockedRaw.String); err == nil {
			entry.UnlockedAt = at
		}
		unlocked = append(unlocked, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user achievements: %w", err)
	}
	return unlocked, nil
}

// UnlockAchievement records an unlock; repeating an unlock is a no-op.
func (s *Store) UnlockAchievement(ctx context.Context, userID, achievementID int64) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO user_achievements (user_id, achievement_id, unlocked_at) VALUES (?, ?, ?)
         ON CONFLICT (user_id, achievement_id) DO NOTHING`,
		userID,
		achievementID,
		timestamp(time.Now()),
	); err != nil {
		return fmt.Errorf("unlock achievement: %w", err)
	}
	return nil
}

func collectAchievements(rows *sql.Rows) ([]*Achievement, error) {
	var achievements []*Achievement
	for rows.Next() {
		var (
			achievement Achievement
			iconURL     sql.NullString
		)
		if err := rows.Scan(&achievement.ID, &achievement.GameID, &achievement.Title, &achievement.Description, &iconURL); err != nil {
			return nil, fmt.Errorf("scan achievement: %w", err)
		}
		achievement.IconURL = iconURL.String
		achievements = append(achievements, &achievement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate achievements: %w", err)
	}
	return achievements, nil
}
