package media

import (
	"context"
	"log/slog"

	"interlude/internal/logging"
	"interlude/internal/store"
)

// settingsBounds mirrors the persisted shape for tag-based validation of
// merged settings.
type settingsBounds struct {
	MasterVolume int    `validate:"min=0,max=10"`
	MusicVolume  int    `validate:"min=0,max=10"`
	SubtitleSize string `validate:"oneof=small medium large"`
}

// SettingsService reads and patches per-user playback preferences.
type SettingsService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewSettingsService constructs a SettingsService around the store.
func NewSettingsService(st *store.Store, logger *slog.Logger) *SettingsService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &SettingsService{store: st, logger: logging.WithComponent(logger, "settings")}
}

// Get returns the user's settings, creating the default row on first access.
func (s *SettingsService) Get(ctx context.Context, userID int64) (*store.UserSettings, error) {
	settings, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		return settings, nil
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, wrap(ErrNotFound, "get settings", "unknown user", nil)
	}
	return s.store.CreateSettings(ctx, store.DefaultSettings(userID))
}

// Update merges a partial patch into the stored settings. Fields absent from
// the patch keep their prior values; the merged result must stay in bounds.
func (s *SettingsService) Update(ctx context.Context, userID int64, patch store.SettingsPatch) (*store.UserSettings, error) {
	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	merged := patch.Apply(*current)
	if err := validateStruct("update settings", settingsBounds{
		MasterVolume: merged.MasterVolume,
		MusicVolume:  merged.MusicVolume,
		SubtitleSize: merged.SubtitleSize,
	}); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateSettings(ctx, merged)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("settings updated", logging.FieldUserID, userID)
	return updated, nil
}
