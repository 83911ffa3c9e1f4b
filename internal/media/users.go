package media

import (
	"context"
	"log/slog"

	"interlude/internal/logging"
	"interlude/internal/store"
)

// SyncInput carries the identity-provider profile for a login sync.
type SyncInput struct {
	AuthUID        string `json:"authUid" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	DisplayName    string `json:"displayName" validate:"omitempty,max=120"`
	ProfilePicture string `json:"profilePicture" validate:"omitempty,url"`
	Age            int    `json:"age" validate:"omitempty,min=0,max=150"`
}

// UserService manages accounts keyed by external auth UID.
type UserService struct {
	store  *store.Store
	logger *slog.Logger
}

// NewUserService constructs a UserService around the store.
func NewUserService(st *store.Store, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &UserService{store: st, logger: logging.WithComponent(logger, "users")}
}

// Sync upserts the account for an authenticated identity. New accounts also
// receive default settings so the settings endpoints never see an empty row.
func (s *UserService) Sync(ctx context.Context, input SyncInput) (*store.User, error) {
	if err := validateStruct("sync user", input); err != nil {
		return nil, err
	}

	existing, err := s.store.GetUserByAuthUID(ctx, input.AuthUID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		patch := store.UserPatch{}
		if input.Email != existing.Email {
			patch.Email = &input.Email
		}
		if input.DisplayName != "" && input.DisplayName != existing.DisplayName {
			patch.DisplayName = &input.DisplayName
		}
		if input.ProfilePicture != "" && input.ProfilePicture != existing.ProfilePicture {
			patch.ProfilePicture = &input.ProfilePicture
		}
		if patch == (store.UserPatch{}) {
			return existing, nil
		}
		return s.store.UpdateUser(ctx, input.AuthUID, patch)
	}

	created, err := s.store.CreateUser(ctx, store.User{
		AuthUID:        input.AuthUID,
		Email:          input.Email,
		DisplayName:    input.DisplayName,
		ProfilePicture: input.ProfilePicture,
		Age:            input.Age,
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.store.CreateSettings(ctx, store.DefaultSettings(created.ID)); err != nil {
		return nil, wrap(ErrConflict, "sync user", "seed default settings", err)
	}
	s.logger.Info("account created", logging.FieldUserID, created.ID)
	return created, nil
}

// Get fetches an account by auth UID.
func (s *UserService) Get(ctx context.Context, authUID string) (*store.User, error) {
	user, err := s.store.GetUserByAuthUID(ctx, authUID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, wrap(ErrNotFound, "get user", authUID, nil)
	}
	return user, nil
}

// Update applies a partial profile update to an existing account.
func (s *UserService) Update(ctx context.Context, authUID string, patch store.UserPatch) (*store.User, error) {
	if patch.Email != nil {
		if err := validateStruct("update user", struct {
			Email string `validate:"required,email"`
		}{Email: *patch.Email}); err != nil {
			return nil, err
		}
	}
	user, err := s.store.UpdateUser(ctx, authUID, patch)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, wrap(ErrNotFound, "update user", authUID, nil)
	}
	return user, nil
}

// Delete removes the account and everything hanging off it.
func (s *UserService) Delete(ctx context.Context, authUID string) error {
	user, err := s.store.GetUserByAuthUID(ctx, authUID)
	if err != nil {
		return err
	}
	if user == nil {
		return wrap(ErrNotFound, "delete user", authUID, nil)
	}
	if err := s.store.DeleteUser(ctx, authUID); err != nil {
		return err
	}
	s.logger.Info("account deleted", logging.FieldUserID, user.ID)
	return nil
}
