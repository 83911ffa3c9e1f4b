package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const userColumns = "id, auth_uid, email, display_name, profile_picture, age, created_at"

func scanUser(scanner interface{ Scan(dest ...any) error }) (*User, error) {
	var (
		id         int64
		authUID    string
		email      string
		name       sql.NullString
		picture    sql.NullString
		age        sql.NullInt64
		createdRaw sql.NullString
	)
	if err := scanner.Scan(&id, &authUID, &email, &name, &picture, &age, &createdRaw); err != nil {
		return nil, err
	}
	user := &User{
		ID:             id,
		AuthUID:        authUID,
		Email:          email,
		DisplayName:    name.String,
		ProfilePicture: picture.String,
		Age:            int(age.Int64),
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		user.CreatedAt = created
	}
	return user, nil
}

// UserPatch is a partial account update; nil fields keep prior values.
type UserPatch struct {
	Email          *string `json:"email,omitempty"`
	DisplayName    *string `json:"displayName,omitempty"`
	ProfilePicture *string `json:"profilePicture,omitempty"`
	Age            *int    `json:"age,omitempty"`
}

// CreateUser inserts an account for the given external auth UID.
func (s *Store) CreateUser(ctx context.Context, user User) (*User, error) {
	if user.AuthUID == "" {
		return nil, errors.New("auth uid is required")
	}
	if user.Email == "" {
		return nil, errors.New("email is required")
	}

	res, err := s.execWithRetry(
		ctx,
		`INSERT INTO users (auth_uid, email, display_name, profile_picture, age, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		user.AuthUID,
		user.Email,
		nullableString(user.DisplayName),
		nullableString(user.ProfilePicture),
		nullableInt(user.Age),
		timestamp(time.Now()),
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetUser(ctx, id)
}

// GetUser fetches an account by local identifier.
func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// GetUserByAuthUID fetches an account by its external identity.
func (s *Store) GetUserByAuthUID(ctx context.Context, authUID string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE auth_uid = ?`, authUID)
	user, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by auth uid: %w", err)
	}
	return user, nil
}

// UpdateUser applies a partial account update and returns the fresh row.
func (s *Store) UpdateUser(ctx context.Context, authUID string, patch UserPatch) (*User, error) {
	existing, err := s.GetUserByAuthUID(ctx, authUID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	if patch.Email != nil {
		existing.Email = *patch.Email
	}
	if patch.DisplayName != nil {
		existing.DisplayName = *patch.DisplayName
	}
	if patch.ProfilePicture != nil {
		existing.ProfilePicture = *patch.ProfilePicture
	}
	if patch.Age != nil {
		existing.Age = *patch.Age
	}

	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE users SET email = ?, display_name = ?, profile_picture = ?, age = ? WHERE auth_uid = ?`,
		existing.Email,
		nullableString(existing.DisplayName),
		nullableString(existing.ProfilePicture),
		nullableInt(existing.Age),
		authUID,
	); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.GetUserByAuthUID(ctx, authUID)
}

// DeleteUser removes an account; progress, settings, and achievements
// cascade through foreign keys.
func (s *Store) DeleteUser(ctx context.Context, authUID string) error {
	if err := s.execWithoutResultRetry(ctx, `DELETE FROM users WHERE auth_uid = ?`, authUID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
