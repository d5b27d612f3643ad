package types

import "time"

// DutyLog is one on-duty session. EndTime and Duration are nil while
// the session is open.
type DutyLog struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime,omitempty"`
	// Duration is the elapsed time in whole minutes, floor-rounded.
	Duration  *int      `json:"duration,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Open reports whether the session has not been closed yet.
func (d DutyLog) Open() bool {
	return d.EndTime == nil
}

// Disciplinary categories and statuses.
const (
	CategoryMinor    = "minor"
	CategoryModerate = "moderate"
	CategorySevere   = "severe"

	DisciplinaryActive   = "active"
	DisciplinaryAppealed = "appealed"
	DisciplinaryClosed   = "closed"
)

// DisciplinaryRecord is a violation issued against a user.
type DisciplinaryRecord struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userId"`
	IssuedBy string    `json:"issuedBy"`
	Reason   string    `json:"reason"`
	Category string    `json:"category"`
	Status   string    `json:"status"`
	Evidence []string  `json:"evidence,omitempty"`
	Notes    string    `json:"notes,omitempty"`
	Date     time.Time `json:"date"`
	// Version is bumped on every update. No conflict detection is done.
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Promotion records a rank increase. Immutable once created.
type Promotion struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	FromRank   string    `json:"fromRank"`
	ToRank     string    `json:"toRank"`
	ApprovedBy string    `json:"approvedBy"`
	Reason     string    `json:"reason,omitempty"`
	Date       time.Time `json:"date"`
	Version    int       `json:"version"`
	CreatedAt  time.Time `json:"createdAt"`
}

// MeritPointTransaction is one signed entry of a user's merit ledger.
type MeritPointTransaction struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	Amount           int       `json:"amount"`
	Reason           string    `json:"reason"`
	IssuedBy         string    `json:"issuedBy"`
	RelatedMissionID string    `json:"relatedMissionId,omitempty"`
	Date             time.Time `json:"date"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Mission outcomes.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
)

// Mission is an after-action report authored by a commander.
type Mission struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MissionCode  string    `json:"missionCode"`
	Description  string    `json:"description"`
	CommanderID  string    `json:"commanderId"`
	Participants []string  `json:"participants"`
	Date         time.Time `json:"date"`
	// Duration is in minutes.
	Duration           int       `json:"duration"`
	Outcome            string    `json:"outcome"`
	MeritPointsAwarded int       `json:"meritPointsAwarded"`
	Notes              string    `json:"notes,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// Unit is an organisational unit.
type Unit struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Abbreviation string    `json:"abbreviation"`
	CommanderID  string    `json:"commanderId,omitempty"`
	Description  string    `json:"description,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AuditLog is an append-only record of a performed action.
type AuditLog struct {
	ID                 string            `json:"id"`
	Action             string            `json:"action"`
	PerformedBy        string            `json:"performedBy"`
	TargetResourceType string            `json:"targetResourceType,omitempty"`
	TargetResourceID   string            `json:"targetResourceId,omitempty"`
	PreviousValue      string            `json:"previousValue,omitempty"`
	NewValue           string            `json:"newValue,omitempty"`
	Timestamp          time.Time         `json:"timestamp"`
	Metadata           map[string]string `json:"metadata,omitempty"`
}

// Award is a catalog entry for a decoration.
type Award struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation"`
	Category     string `json:"category"`
	// Precedence orders awards; lower values are worn first.
	Precedence  int       `json:"precedence"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// UserAward links a user to one instance of an award.
type UserAward struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	AwardID     string    `json:"awardId"`
	DateAwarded time.Time `json:"dateAwarded"`
	AwardedBy   string    `json:"awardedBy"`
	// OakLeafClusters counts repeat awards of the same decoration.
	OakLeafClusters int       `json:"oakLeafClusters"`
	VDevice         bool      `json:"vDevice"`
	CDevice         bool      `json:"cDevice"`
	Citation        string    `json:"citation,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}
