package store

import "time"

// User is a local account row, keyed externally by the identity provider's
// stable auth UID.
type User struct {
	ID             int64  `json:"id"`
	AuthUID        string `json:"authUid"`
	Email          string `json:"email"`
	DisplayName    string `json:"displayName,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	Age            int    `json:"age,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// Game is one catalog entry of episodic interactive content.
type Game struct {
	ID            int64     `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ThumbnailURL  string    `json:"thumbnailUrl"`
	BackgroundURL string    `json:"backgroundUrl"`
	Lore          string    `json:"lore,omitempty"`
	ReleaseDate   time.Time `json:"releaseDate"`
}

// Character belongs to a game's lore page.
type Character struct {
	ID          int64  `json:"id"`
	GameID      int64  `json:"gameId"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	Description string `json:"description"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// Episode is one playable installment. StructureJSON holds the validated
// branching graph document; it is opaque at this layer.
type Episode struct {
	ID            int64     `json:"id"`
	GameID        int64     `json:"gameId"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	SeasonNumber  int       `json:"seasonNumber"`
	EpisodeNumber int       `json:"episodeNumber"`
	IsFree        bool      `json:"isFree"`
	Price         int       `json:"price"`
	ReleaseDate   time.Time `json:"releaseDate"`
	StructureJSON string    `json:"-"`
}

// Achievement is an unlockable defined per game.
type Achievement struct {
	ID          int64  `json:"id"`
	GameID      int64  `json:"gameId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	IconURL     string `json:"iconUrl,omitempty"`
}

// UnlockedAchievement pairs an achievement with the time a user earned it.
type UnlockedAchievement struct {
	Achievement
	UnlockedAt time.Time `json:"unlockedAt"`
}

// ChoiceEntry is one decision in a playthrough history: the node the user was
// on and the choice they picked there.
type ChoiceEntry struct {
	NodeID   string `json:"nodeId"`
	ChoiceID string `json:"choiceId"`
}

// UserProgress is the persisted cursor into an episode's graph for one
// (user, episode) pair, plus the ordered decision history.
type UserProgress struct {
	ID            int64         `json:"id"`
	UserID        int64         `json:"userId"`
	EpisodeID     int64         `json:"episodeId"`
	GameID        int64         `json:"gameId"`
	CurrentNodeID string        `json:"currentNodeId"`
	Completed     bool          `json:"completed"`
	Choices       []ChoiceEntry `json:"choices"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// ProgressUpdate is the payload of one progress commit. Upsert semantics:
// the caller never distinguishes create from update.
type ProgressUpdate struct {
	UserID        int64         `json:"userId"`
	EpisodeID     int64         `json:"episodeId"`
	GameID        int64         `json:"gameId"`
	CurrentNodeID string        `json:"currentNodeId"`
	Completed     bool          `json:"completed"`
	Choices       []ChoiceEntry `json:"choices"`
}

// SubtitleSize enumerates the subtitle rendering sizes.
const (
	SubtitleSmall  = "small"
	SubtitleMedium = "medium"
	SubtitleLarge  = "large"
)

// UserSettings holds per-user playback preferences. Volumes are integers in
// [0, 10].
type UserSettings struct {
	ID                   int64  `json:"id"`
	UserID               int64  `json:"userId"`
	MasterVolume         int    `json:"masterVolume"`
	MusicVolume          int    `json:"musicVolume"`
	MuteAll              bool   `json:"muteAll"`
	Subtitles            bool   `json:"subtitles"`
	SubtitleSize         string `json:"subtitleSize"`
	SubtitleLanguage     string `json:"subtitleLanguage"`
	AutoPlayNext         bool   `json:"autoPlayNext"`
	ReleaseDateCountdown bool   `json:"releaseDateCountdown"`
	Recaps               bool   `json:"recaps"`
	ChoiceRecaps         bool   `json:"choiceRecaps"`
}

// DefaultSettings returns the settings assigned to a freshly synced user.
func DefaultSettings(userID int64) UserSettings {
	return UserSettings{
		UserID:               userID,
		MasterVolume:         10,
		MusicVolume:          10,
		MuteAll:              false,
		Subtitles:            true,
		SubtitleSize:         SubtitleMedium,
		SubtitleLanguage:     "English",
		AutoPlayNext:         true,
		ReleaseDateCountdown: true,
		Recaps:               true,
		ChoiceRecaps:         true,
	}
}

// SettingsPatch is a partial settings update; nil fields keep prior values.
type SettingsPatch struct {
	MasterVolume         *int    `json:"masterVolume,omitempty"`
	MusicVolume          *int    `json:"musicVolume,omitempty"`
	MuteAll              *bool   `json:"muteAll,omitempty"`
	Subtitles            *bool   `json:"subtitles,omitempty"`
	SubtitleSize         *string `json:"subtitleSize,omitempty"`
	SubtitleLanguage     *string `json:"subtitleLanguage,omitempty"`
	AutoPlayNext         *bool   `json:"autoPlayNext,omitempty"`
	ReleaseDateCountdown *bool   `json:"releaseDateCountdown,omitempty"`
	Recaps               *bool   `json:"recaps,omitempty"`
	ChoiceRecaps         *bool   `json:"choiceRecaps,omitempty"`
}

// Apply merges the patch into settings, returning the merged copy.
func (p SettingsPatch) Apply(settings UserSettings) UserSettings {
	if p.MasterVolume != nil {
		settings.MasterVolume = *p.MasterVolume
	}
	if p.MusicVolume != nil {
		settings.MusicVolume = *p.MusicVolume
	}
	if p.MuteAll != nil {
		settings.MuteAll = *p.MuteAll
	}
	if p.Subtitles != nil {
		settings.Subtitles = *p.Subtitles
	}
	if p.SubtitleSize != nil {
		settings.SubtitleSize = *p.SubtitleSize
	}
	if p.SubtitleLanguage != nil {
		settings.SubtitleLanguage = *p.SubtitleLanguage
	}
	if p.AutoPlayNext != nil {
		settings.AutoPlayNext = *p.AutoPlayNext
	}
	if p.ReleaseDateCountdown != nil {
		settings.ReleaseDateCountdown = *p.ReleaseDateCountdown
	}
	if p.Recaps != nil {
		settings.Recaps = *p.Recaps
	}
	if p.ChoiceRecaps != nil {
		settings.ChoiceRecaps = *p.ChoiceRecaps
	}
	return settings
}

// RecentPlay is a progress row joined with catalog display fields for the
// "recently played" rail.
type RecentPlay struct {
	UserProgress
	GameTitle    string `json:"gameTitle"`
	EpisodeTitle string `json:"episodeTitle"`
	ThumbnailURL string `json:"thumbnailUrl"`
}
