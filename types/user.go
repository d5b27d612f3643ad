package types

import "time"

// User statuses.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User represents a member of the organisation.
// It contains identity, rank, role and activity metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID string `json:"id"`

	// Username is the login name. Matching is case-insensitive.
	Username string `json:"username"`

	// DiscordID is the member's Discord snowflake.
	DiscordID string `json:"discordId"`

	// DiscordUsername is the member's Discord handle.
	DiscordUsername string `json:"discordUsername"`

	// RobloxUserID is the optional external game account id.
	RobloxUserID string `json:"robloxUserId,omitempty"`

	// RobloxUsername is the optional external game account name.
	RobloxUsername string `json:"robloxUsername,omitempty"`

	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`

	// Callsign is the optional radio callsign (e.g. "Havoc-1").
	Callsign string `json:"callsign,omitempty"`

	// Rank is a code from the rank table (e.g. "PV1", "CPT").
	Rank string `json:"rank"`

	// Role selects the permission set granted to the user.
	Role string `json:"role"`

	// Unit is the free-text unit the member belongs to.
	Unit string `json:"unit"`

	// MOS is the optional military occupational specialty.
	MOS string `json:"mos,omitempty"`

	// Status is either "active" or "inactive".
	Status string `json:"status"`

	JoinDate     time.Time  `json:"joinDate"`
	LastActivity *time.Time `json:"lastActivity,omitempty"`

	// MeritPoints is the cached sum of the user's merit ledger.
	// It may be negative.
	MeritPoints int `json:"meritPoints"`

	// PasswordHash stores the hashed password. Empty means the account
	// cannot log in. Stripped by Public before leaving the API.
	PasswordHash string `json:"passwordHash,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// DisplayName returns "First Last".
func (u User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// IsActive reports whether the account status is active.
func (u User) IsActive() bool {
	return u.Status == UserStatusActive
}

// Public returns a copy safe to hand to API clients.
func (u User) Public() User {
	u.PasswordHash = ""
	return u
}
