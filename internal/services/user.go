package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilng/roster/internal/audit"
	"github.com/ilng/roster/internal/authz"
	"github.com/ilng/roster/internal/ranks"
	"github.com/ilng/roster/internal/store"
	"github.com/ilng/roster/types"
)

const (
	ActionUserCreated = "user_created"
	ActionUserUpdated = "user_updated"
)

// CreateUserInput is the payload for a new member.
type CreateUserInput struct {
	Username        string     `json:"username"`
	Password        string     `json:"password,omitempty"`
	DiscordID       string     `json:"discordId"`
	DiscordUsername string     `json:"discordUsername"`
	RobloxUserID    string     `json:"robloxUserId,omitempty"`
	RobloxUsername  string     `json:"robloxUsername,omitempty"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	Callsign        string     `json:"callsign,omitempty"`
	Rank            string     `json:"rank"`
	Role            string     `json:"role"`
	Unit            string     `json:"unit"`
	MOS             string     `json:"mos,omitempty"`
	Status          string     `json:"status,omitempty"`
	JoinDate        *time.Time `json:"joinDate,omitempty"`
}

// UserPatch changes the non-nil fields of a user. Merit points are only
// changed through the ledger and are not patchable.
type UserPatch struct {
	Username        *string    `json:"username,omitempty"`
	Password        *string    `json:"password,omitempty"`
	DiscordID       *string    `json:"discordId,omitempty"`
	DiscordUsername *string    `json:"discordUsername,omitempty"`
	RobloxUserID    *string    `json:"robloxUserId,omitempty"`
	RobloxUsername  *string    `json:"robloxUsername,omitempty"`
	FirstName       *string    `json:"firstName,omitempty"`
	LastName        *string    `json:"lastName,omitempty"`
	Callsign        *string    `json:"callsign,omitempty"`
	Rank            *string    `json:"rank,omitempty"`
	Role            *string    `json:"role,omitempty"`
	Unit            *string    `json:"unit,omitempty"`
	MOS             *string    `json:"mos,omitempty"`
	Status          *string    `json:"status,omitempty"`
	JoinDate        *time.Time `json:"joinDate,omitempty"`
}

// UserService manages member records.
type UserService struct {
	store  *store.Store
	audit  *audit.Recorder
	hasher Hasher
}

func NewUserService(s *store.Store, rec *audit.Recorder, hasher Hasher) *UserService {
	return &UserService{store: s, audit: rec, hasher: hasher}
}

// Get returns a user without its password hash.
func (s *UserService) Get(ctx context.Context, id string) (types.User, error) {
	var user types.User
	err := s.store.View(ctx, func(tx *store.Tx) error {
		var err error
		user, err = tx.User(id)
		return err
	})
	return user.Public(), err
}

// List returns every user.
func (s *UserService) List(ctx context.Context, caller *types.User) ([]types.User, error) {
	if err := authz.Check(caller, authz.ManageUsers); err != nil {
		return nil, err
	}
	var users []types.User
	err := s.store.View(ctx, func(tx *store.Tx) error {
		users = tx.Users()
		return nil
	})
	for i := range users {
		users[i] = users[i].Public()
	}
	return users, err
}

// Create adds a member. Usernames and Discord ids are unique.
func (s *UserService) Create(ctx context.Context, caller *types.User, in CreateUserInput) (types.User, error) {
	if err := authz.Check(caller, authz.ManageUsers); err != nil {
		return types.User{}, err
	}

	user := types.User{
		Username:        strings.TrimSpace(in.Username),
		DiscordID:       strings.TrimSpace(in.DiscordID),
		DiscordUsername: strings.TrimSpace(in.DiscordUsername),
		RobloxUserID:    strings.TrimSpace(in.RobloxUserID),
		RobloxUsername:  strings.TrimSpace(in.RobloxUsername),
		FirstName:       strings.TrimSpace(in.FirstName),
		LastName:        strings.TrimSpace(in.LastName),
		Callsign:        strings.TrimSpace(in.Callsign),
		Rank:            in.Rank,
		Role:            in.Role,
		Unit:            strings.TrimSpace(in.Unit),
		MOS:             strings.TrimSpace(in.MOS),
		Status:          in.Status,
	}
	if user.Status == "" {
		user.Status = types.UserStatusActive
	}
	if in.JoinDate != nil {
		user.JoinDate = *in.JoinDate
	} else {
		user.JoinDate = s.store.Now()
	}
	if err := validateUser(user); err != nil {
		return types.User{}, err
	}

	if in.Password != "" {
		hashed, err := s.hasher.Hash(in.Password)
		if err != nil {
			return types.User{}, err
		}
		user.PasswordHash = hashed
	}

	err := s.store.Update(ctx, func(tx *store.Tx) error {
		if err := checkUnique(tx, user); err != nil {
			return err
		}
		var err error
		user, err = tx.CreateUser(user)
		return err
	})
	if err != nil {
		return types.User{}, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:             ActionUserCreated,
		PerformedBy:        caller.ID,
		TargetResourceType: resourceUser,
		TargetResourceID:   user.ID,
	})
	return user.Public(), nil
}

// Update applies patch to user id.
func (s *UserService) Update(ctx context.Context, caller *types.User, id string, patch UserPatch) (types.User, error) {
	if err := authz.Check(caller, authz.ManageUsers); err != nil {
		return types.User{}, err
	}

	var hashed string
	if patch.Password != nil && *patch.Password != "" {
		var err error
		if hashed, err = s.hasher.Hash(*patch.Password); err != nil {
			return types.User{}, err
		}
	}

	var before, after types.User
	err := s.store.Update(ctx, func(tx *store.Tx) error {
		var err error
		before, err = tx.User(id)
		if err != nil {
			return err
		}
		updated := applyUserPatch(before, patch)
		if hashed != "" {
			updated.PasswordHash = hashed
		}
		if err := validateUser(updated); err != nil {
			return err
		}
		if err := checkUnique(tx, updated); err != nil {
			return err
		}
		after, err = tx.UpdateUser(updated)
		return err
	})
	if err != nil {
		return types.User{}, err
	}

	s.audit.Record(ctx, audit.Entry{
		Action:             ActionUserUpdated,
		PerformedBy:        caller.ID,
		TargetResourceType: resourceUser,
		TargetResourceID:   id,
		PreviousValue:      marshalString(before.Public()),
		NewValue:           marshalString(after.Public()),
	})
	return after.Public(), nil
}

func applyUserPatch(u types.User, p UserPatch) types.User {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&u.Username, p.Username)
	set(&u.DiscordID, p.DiscordID)
	set(&u.DiscordUsername, p.DiscordUsername)
	set(&u.RobloxUserID, p.RobloxUserID)
	set(&u.RobloxUsername, p.RobloxUsername)
	set(&u.FirstName, p.FirstName)
	set(&u.LastName, p.LastName)
	set(&u.Callsign, p.Callsign)
	set(&u.Rank, p.Rank)
	set(&u.Role, p.Role)
	set(&u.Unit, p.Unit)
	set(&u.MOS, p.MOS)
	set(&u.Status, p.Status)
	if p.JoinDate != nil {
		u.JoinDate = *p.JoinDate
	}
	return u
}

// ValidateUser checks the fields every stored user must satisfy.
func ValidateUser(u types.User) error {
	return validateUser(u)
}

func validateUser(u types.User) error {
	switch {
	case u.Username == "":
		return invalid("username", "username is required")
	case u.FirstName == "":
		return invalid("firstName", "first name is required")
	case u.LastName == "":
		return invalid("lastName", "last name is required")
	case !ranks.Valid(u.Rank):
		return ErrInvalidRank
	case !authz.ValidRole(u.Role):
		return invalid("role", "unknown role")
	case u.Status != types.UserStatusActive && u.Status != types.UserStatusInactive:
		return invalid("status", "status must be active or inactive")
	}
	return nil
}

func checkUnique(tx *store.Tx, u types.User) error {
	if other, err := tx.UserByUsername(u.Username); err == nil && other.ID != u.ID {
		return fmt.Errorf("%w: username already exists", ErrConflict)
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if u.DiscordID == "" {
		return nil
	}
	if other, err := tx.UserByDiscordID(u.DiscordID); err == nil && other.ID != u.ID {
		return fmt.Errorf("%w: discord id already registered", ErrConflict)
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	return nil
}

func marshalString(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
