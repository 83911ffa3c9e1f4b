package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"interlude/internal/logging"
	"interlude/internal/media"
	"interlude/internal/store"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps service sentinels onto status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, media.ErrNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, media.ErrValidation):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, media.ErrConflict):
		s.writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("request failed", logging.Error(err))
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		s.writeError(w, http.StatusBadRequest, "malformed request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"address":       s.Addr(),
		"uptimeSeconds": int64(time.Since(s.started).Seconds()),
	})
}

func (s *Server) handleUserSync(w http.ResponseWriter, r *http.Request) {
	var input media.SyncInput
	if !s.decode(w, r, &input) {
		return
	}
	user, err := s.users.Sync(r.Context(), input)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUserGet(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.Get(r.Context(), chi.URLParam(r, "authUid"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUserUpdate(w http.ResponseWriter, r *http.Request) {
	var patch store.UserPatch
	if !s.decode(w, r, &patch) {
		return
	}
	user, err := s.users.Update(r.Context(), chi.URLParam(r, "authUid"), patch)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleUserDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Delete(r.Context(), chi.URLParam(r, "authUid")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGameList(w http.ResponseWriter, r *http.Request) {
	games, err := s.catalog.ListGames(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, games)
}

func (s *Server) handleGameSearch(w http.ResponseWriter, r *http.Request) {
	games, err := s.catalog.SearchGames(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, games)
}

func (s *Server) handleGameCreate(w http.ResponseWriter, r *http.Request) {
	var input media.GameInput
	if !s.decode(w, r, &input) {
		return
	}
	game, err := s.catalog.CreateGame(r.Context(), input)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, game)
}

func (s *Server) handleGameGet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "gameID")
	if !ok {
		return
	}
	detail, err := s.catalog.GetGame(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleCharacterList(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "gameID")
	if !ok {
		return
	}
	characters, err := s.catalog.ListCharacters(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, characters)
}

func (s *Server) handleCharacterCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "gameID")
	if !ok {
		return
	}
	var character store.Character
	if !s.decode(w, r, &character) {
		return
	}
	character.GameID = id
	created, err := s.catalog.CreateCharacter(r.Context(), character)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleAchievementList(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "gameID")
	if !ok {
		return
	}
	achievements, err := s.catalog.ListAchievements(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, achievements)
}

func (s *Server) handleAchievementCreate(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "gameID")
	if !ok {
		return
	}
	var achievement store.Achievement
	if !s.decode(w, r, &achievement) {
		return
	}
	achievement.GameID = id
	created, err := s.catalog.CreateAchievement(r.Context(), achievement)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUserAchievements(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "userID")
	if !ok {
		return
	}
	unlocked, err := s.catalog.ListUserAchievements(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, unlocked)
}

func (s *Server) handleAchievementUnlock(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathID(w, r, "userID")
	if !ok {
		return
	}
	achievementID, ok := s.pathID(w, r, "achievementID")
	if !ok {
		return
	}
	if err := s.catalog.UnlockAchievement(r.Context(), userID, achievementID); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEpisodeList(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "gameID")
	if !ok {
		return
	}
	episodes, err := s.catalog.ListEpisodes(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, episodes)
}

func (s *Server) handleEpisodeCreate(w http.ResponseWriter, r *http.Request) {
	var input media.EpisodeInput
	if !s.decode(w, r, &input) {
		return
	}
	detail, err := s.catalog.CreateEpisode(r.Context(), input)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, detail)
}

func (s *Server) handleEpisodeGet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "episodeID")
	if !ok {
		return
	}
	detail, err := s.catalog.GetEpisode(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleProgressCommit(w http.ResponseWriter, r *http.Request) {
	var update store.ProgressUpdate
	if !s.decode(w, r, &update) {
		return
	}
	progress, err := s.progress.Save(r.Context(), update)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, progress)
}

// handleProgressGet returns 200 with a JSON null body when the user has no
// progress for the episode; absence is a normal answer, not an error.
func (s *Server) handleProgressGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathID(w, r, "userID")
	if !ok {
		return
	}
	episodeID, ok := s.pathID(w, r, "episodeID")
	if !ok {
		return
	}
	progress, err := s.progress.Get(r.Context(), userID, episodeID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, progress)
}

func (s *Server) handleProgressList(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathID(w, r, "userID")
	if !ok {
		return
	}
	progress, err := s.progress.List(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, progress)
}

func (s *Server) handleProgressRecent(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathID(w, r, "userID")
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	recent, err := s.progress.Recent(r.Context(), userID, limit)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, recent)
}

func (s *Server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathID(w, r, "userID")
	if !ok {
		return
	}
	settings, err := s.settings.Get(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSettingsUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.pathID(w, r, "userID")
	if !ok {
		return
	}
	var patch store.SettingsPatch
	if !s.decode(w, r, &patch) {
		return
	}
	settings, err := s.settings.Update(r.Context(), userID, patch)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}
