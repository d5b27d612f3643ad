package services

import (
	"context"
	"errors"
	"strings"

	"github.com/ilng/roster/internal/audit"
	"github.com/ilng/roster/internal/authz"
	"github.com/ilng/roster/internal/store"
	"github.com/ilng/roster/types"
)

// Login audit actions.
const (
	ActionLogin            = "user_login"
	ActionLoginFailed      = "failed_login_attempt"
	ActionLoginUnknownUser = "failed_login_attempt_unknown_user"
	ActionLoginNoPassword  = "failed_login_attempt_no_password"
	ActionLoginInactive    = "failed_login_attempt_inactive_user"
	ActionPasswordReset    = "password_reset"

	resourceUser = "user"
)

// AuthService verifies credentials and resolves authenticated callers.
type AuthService struct {
	store  *store.Store
	audit  *audit.Recorder
	hasher Hasher
}

func NewAuthService(s *store.Store, rec *audit.Recorder, hasher Hasher) *AuthService {
	return &AuthService{store: s, audit: rec, hasher: hasher}
}

// Login checks identifier and secret. Every outcome leaves an audit
// entry; callers only ever see ErrInvalidCredentials or
// ErrAccountInactive.
func (s *AuthService) Login(ctx context.Context, identifier, secret string) (types.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return types.User{}, invalid("username", "username is required")
	}
	if secret == "" {
		return types.User{}, invalid("password", "password is required")
	}

	var user types.User
	err := s.store.View(ctx, func(tx *store.Tx) error {
		var err error
		user, err = tx.UserByUsername(identifier)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		s.audit.Record(ctx, audit.Entry{
			Action:             ActionLoginUnknownUser,
			PerformedBy:        audit.SystemActor,
			TargetResourceType: resourceUser,
			NewValue:           identifier,
		})
		return types.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return types.User{}, err
	}

	if user.PasswordHash == "" {
		s.audit.Record(ctx, audit.Entry{Action: ActionLoginNoPassword, PerformedBy: user.ID})
		return types.User{}, ErrInvalidCredentials
	}
	if !user.IsActive() {
		s.audit.Record(ctx, audit.Entry{Action: ActionLoginInactive, PerformedBy: user.ID})
		return types.User{}, ErrAccountInactive
	}
	if !s.hasher.Compare(user.PasswordHash, secret) {
		s.audit.Record(ctx, audit.Entry{Action: ActionLoginFailed, PerformedBy: user.ID})
		return types.User{}, ErrInvalidCredentials
	}

	err = s.store.Update(ctx, func(tx *store.Tx) error {
		current, err := tx.User(user.ID)
		if err != nil {
			return err
		}
		current.LastActivity = timePtr(s.store.Now())
		user, err = tx.UpdateUser(current)
		return err
	})
	if err != nil {
		return types.User{}, err
	}

	s.audit.Record(ctx, audit.Entry{Action: ActionLogin, PerformedBy: user.ID})
	return user.Public(), nil
}

// Authenticate resolves the subject of a verified token to a user.
func (s *AuthService) Authenticate(ctx context.Context, userID string) (types.User, error) {
	var user types.User
	err := s.store.View(ctx, func(tx *store.Tx) error {
		var err error
		user, err = tx.User(userID)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return types.User{}, authz.ErrUnauthenticated
	}
	if err != nil {
		return types.User{}, err
	}
	if !user.IsActive() {
		return types.User{}, ErrAccountInactive
	}
	return user, nil
}

// ResetPassword replaces the password of userID.
func (s *AuthService) ResetPassword(ctx context.Context, caller *types.User, userID, newSecret string) error {
	if err := authz.Check(caller, authz.ManageUsers); err != nil {
		return err
	}
	if strings.TrimSpace(userID) == "" || newSecret == "" {
		return invalid("", "user id and new password required")
	}

	hashed, err := s.hasher.Hash(newSecret)
	if err != nil {
		return err
	}

	err = s.store.Update(ctx, func(tx *store.Tx) error {
		user, err := tx.User(userID)
		if err != nil {
			return err
		}
		user.PasswordHash = hashed
		_, err = tx.UpdateUser(user)
		return err
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:             ActionPasswordReset,
		PerformedBy:        caller.ID,
		TargetResourceType: resourceUser,
		TargetResourceID:   userID,
	})
	return nil
}
