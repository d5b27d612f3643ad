// Package seed loads an initial roster into an empty store.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ilng/roster/internal/audit"
	"github.com/ilng/roster/internal/authz"
	"github.com/ilng/roster/internal/services"
	"github.com/ilng/roster/internal/store"
	"github.com/ilng/roster/types"
)

//go:embed default.yaml
var defaultDocument []byte

// ActionSeeded is the audit action written after a successful seed.
const ActionSeeded = "database_seeded"

// ErrAlreadySeeded is returned when the store already holds users.
var ErrAlreadySeeded = errors.New("store already has users")

// Document is the YAML seed format.
type Document struct {
	Users  []User        `yaml:"users"`
	Units  []Unit        `yaml:"units"`
	Awards []types.Award `yaml:"awards"`
}

type User struct {
	Username        string `yaml:"username"`
	DiscordID       string `yaml:"discordId"`
	DiscordUsername string `yaml:"discordUsername"`
	FirstName       string `yaml:"firstName"`
	LastName        string `yaml:"lastName"`
	Callsign        string `yaml:"callsign"`
	Rank            string `yaml:"rank"`
	Role            string `yaml:"role"`
	Unit            string `yaml:"unit"`
	MOS             string `yaml:"mos"`
	JoinedDaysAgo   int    `yaml:"joinedDaysAgo"`
	// Password is hashed on apply. Leave empty for accounts that log in
	// only after a reset.
	Password string `yaml:"password"`
}

type Unit struct {
	Name         string `yaml:"name"`
	Abbreviation string `yaml:"abbreviation"`
	Description  string `yaml:"description"`
	// Commander is the username of the commanding member.
	Commander string `yaml:"commander"`
}

// Options adjust how a document is applied.
type Options struct {
	Hasher services.Hasher
	// AdminPassword, when set, becomes the password of every Admin user
	// in the document that has none.
	AdminPassword string
}

// Result counts the created records.
type Result struct {
	Users  int
	Units  int
	Awards int
}

// Default returns the embedded roster.
func Default() (Document, error) {
	return Parse(bytes.NewReader(defaultDocument))
}

// Load reads the document at path, or the embedded roster when path is
// empty.
func Load(path string) (Document, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()
	doc, err := Parse(f)
	if err != nil {
		return Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes one YAML document. Unknown fields are rejected.
func Parse(r io.Reader) (Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return Document{}, fmt.Errorf("decode seed: %w", err)
	}
	return doc, nil
}

// Apply writes doc into s in one transaction. It refuses to touch a
// store that already has users.
func Apply(ctx context.Context, s *store.Store, rec *audit.Recorder, doc Document, opts Options) (Result, error) {
	if opts.Hasher == nil {
		opts.Hasher = services.NewBcryptHasher()
	}

	now := s.Now()
	users := make([]types.User, 0, len(doc.Users))
	for i, in := range doc.Users {
		u := types.User{
			Username:        strings.TrimSpace(in.Username),
			DiscordID:       strings.TrimSpace(in.DiscordID),
			DiscordUsername: strings.TrimSpace(in.DiscordUsername),
			FirstName:       strings.TrimSpace(in.FirstName),
			LastName:        strings.TrimSpace(in.LastName),
			Callsign:        strings.TrimSpace(in.Callsign),
			Rank:            in.Rank,
			Role:            in.Role,
			Unit:            strings.TrimSpace(in.Unit),
			MOS:             strings.TrimSpace(in.MOS),
			Status:          types.UserStatusActive,
			JoinDate:        now.Add(-time.Duration(in.JoinedDaysAgo) * 24 * time.Hour),
		}
		if err := services.ValidateUser(u); err != nil {
			return Result{}, fmt.Errorf("users[%d]: %w", i, err)
		}
		password := in.Password
		if password == "" && u.Role == authz.RoleAdmin {
			password = opts.AdminPassword
		}
		if password != "" {
			hash, err := opts.Hasher.Hash(password)
			if err != nil {
				return Result{}, fmt.Errorf("users[%d]: %w", i, err)
			}
			u.PasswordHash = hash
		}
		users = append(users, u)
	}

	var result Result
	err := s.Update(ctx, func(tx *store.Tx) error {
		if len(tx.Users()) > 0 {
			return ErrAlreadySeeded
		}
		byUsername := make(map[string]string, len(users))
		for _, u := range users {
			if _, dup := byUsername[strings.ToLower(u.Username)]; dup {
				return fmt.Errorf("duplicate username %q", u.Username)
			}
			created, err := tx.CreateUser(u)
			if err != nil {
				return err
			}
			byUsername[strings.ToLower(u.Username)] = created.ID
			result.Users++
		}
		for i, in := range doc.Units {
			unit := types.Unit{
				Name:         strings.TrimSpace(in.Name),
				Abbreviation: strings.TrimSpace(in.Abbreviation),
				Description:  strings.TrimSpace(in.Description),
			}
			if in.Commander != "" {
				id, ok := byUsername[strings.ToLower(in.Commander)]
				if !ok {
					return fmt.Errorf("units[%d]: unknown commander %q", i, in.Commander)
				}
				unit.CommanderID = id
			}
			if _, err := tx.CreateUnit(unit); err != nil {
				return err
			}
			result.Units++
		}
		for _, a := range doc.Awards {
			if _, err := tx.CreateAward(a); err != nil {
				return err
			}
			result.Awards++
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	if rec != nil {
		rec.Record(ctx, audit.Entry{
			Action:      ActionSeeded,
			PerformedBy: audit.SystemActor,
			NewValue:    fmt.Sprintf("%d users, %d units, %d awards", result.Users, result.Units, result.Awards),
		})
	}
	return result, nil
}
