package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const settingsColumns = "id, user_id, master_volume, music_volume, mute_all, subtitles, subtitle_size, subtitle_language, auto_play_next, release_date_countdown, recaps, choice_recaps"

func scanSettings(scanner interface{ Scan(dest ...any) error }) (*UserSettings, error) {
	var (
		settings  UserSettings
		muteAll   int
		subtitles int
		autoPlay  int
		countdown int
		recaps    int
		choiceRec int
	)
	if err := scanner.Scan(
		&settings.ID,
		&settings.UserID,
		&settings.MasterVolume,
		&settings.MusicVolume,
		&muteAll,
		&subtitles,
		&settings.SubtitleSize,
		&settings.SubtitleLanguage,
		&autoPlay,
		&countdown,
		&recaps,
		&choiceRec,
	); err != nil {
		return nil, err
	}
	settings.MuteAll = muteAll != 0
	settings.Subtitles = subtitles != 0
	settings.AutoPlayNext = autoPlay != 0
	settings.ReleaseDateCountdown = countdown != 0
	settings.Recaps = recaps != 0
	settings.ChoiceRecaps = choiceRec != 0
	return &settings, nil
}

// GetSettings fetches a user's playback preferences.
func (s *Store) GetSettings(ctx context.Context, userID int64) (*UserSettings, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+settingsColumns+` FROM user_settings WHERE user_id = ?`, userID)
	settings, err := scanSettings(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return settings, nil
}

// CreateSettings inserts a settings row, usually the defaults assigned at
// account sync.
func (s *Store) CreateSettings(ctx context.Context, settings UserSettings) (*UserSettings, error) {
	if settings.UserID == 0 {
		return nil, errors.New("settings require a user id")
	}
	if err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO user_settings (user_id, master_volume, music_volume, mute_all, subtitles, subtitle_size,
             subtitle_language, auto_play_next, release_date_countdown, recaps, choice_recaps)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		settings.UserID,
		settings.MasterVolume,
		settings.MusicVolume,
		boolToInt(settings.MuteAll),
		boolToInt(settings.Subtitles),
		settings.SubtitleSize,
		settings.SubtitleLanguage,
		boolToInt(settings.AutoPlayNext),
		boolToInt(settings.ReleaseDateCountdown),
		boolToInt(settings.Recaps),
		boolToInt(settings.ChoiceRecaps),
	); err != nil {
		return nil, fmt.Errorf("insert settings: %w", err)
	}
	return s.GetSettings(ctx, settings.UserID)
}

// UpdateSettings overwrites a user's settings row with the merged values.
func (s *Store) UpdateSettings(ctx context.Context, settings UserSettings) (*UserSettings, error) {
	if settings.UserID == 0 {
		return nil, errors.New("settings require a user id")
	}
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE user_settings
         SET master_volume = ?, music_volume = ?, mute_all = ?, subtitles = ?, subtitle_size = ?,
             subtitle_language = ?, auto_play_next = ?, release_date_countdown = ?, recaps = ?, choice_recaps = ?
         WHERE user_id = ?`,
		settings.MasterVolume,
		settings.MusicVolume,
		boolToInt(settings.MuteAll),
		boolToInt(settings.Subtitles),
		settings.SubtitleSize,
		settings.SubtitleLanguage,
		boolToInt(settings.AutoPlayNext),
		boolToInt(settings.ReleaseDateCountdown),
		boolToInt(settings.Recaps),
		boolToInt(settings.ChoiceRecaps),
		settings.UserID,
	); err != nil {
		return nil, fmt.Errorf("update settings: %w", err)
	}
	return s.GetSettings(ctx, settings.UserID)
}
