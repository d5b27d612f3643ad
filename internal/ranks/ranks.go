// Package ranks holds the static rank table shared by the API and the
// FAQ bot.
package ranks

import "sort"

// Tier groups ranks into enlisted, warrant and officer grades.
type Tier string

const (
	TierEnlisted Tier = "enlisted"
	TierWarrant  Tier = "warrant"
	TierOfficer  Tier = "officer"
)

// Rank is one entry of the rank table.
type Rank struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Level int    `json:"level"`
	Tier  Tier   `json:"tier"`
}

// Levels are shared by some ranks (SPC/CPL, MSG/1SG, SGM/CSM), so a
// lateral move between them is not a promotion.
var table = []Rank{
	{"PV1", "Private", 1, TierEnlisted},
	{"PV2", "Private", 2, TierEnlisted},
	{"PFC", "Private First Class", 3, TierEnlisted},
	{"SPC", "Specialist", 4, TierEnlisted},
	{"CPL", "Corporal", 4, TierEnlisted},
	{"SGT", "Sergeant", 5, TierEnlisted},
	{"SSG", "Staff Sergeant", 6, TierEnlisted},
	{"SFC", "Sergeant First Class", 7, TierEnlisted},
	{"MSG", "Master Sergeant", 8, TierEnlisted},
	{"1SG", "First Sergeant", 8, TierEnlisted},
	{"SGM", "Sergeant Major", 9, TierEnlisted},
	{"CSM", "Command Sergeant Major", 9, TierEnlisted},
	{"SMA", "Sergeant Major of the Army", 10, TierEnlisted},

	{"WO1", "Warrant Officer 1", 11, TierWarrant},
	{"CW2", "Chief Warrant Officer 2", 12, TierWarrant},
	{"CW3", "Chief Warrant Officer 3", 13, TierWarrant},
	{"CW4", "Chief Warrant Officer 4", 14, TierWarrant},
	{"CW5", "Chief Warrant Officer 5", 15, TierWarrant},

	{"2LT", "Second Lieutenant", 16, TierOfficer},
	{"1LT", "First Lieutenant", 17, TierOfficer},
	{"CPT", "Captain", 18, TierOfficer},
	{"MAJ", "Major", 19, TierOfficer},
	{"LTC", "Lieutenant Colonel", 20, TierOfficer},
	{"COL", "Colonel", 21, TierOfficer},
	{"BG", "Brigadier General", 22, TierOfficer},
	{"MG", "Major General", 23, TierOfficer},
	{"LTG", "Lieutenant General", 24, TierOfficer},
	{"GEN", "General", 25, TierOfficer},
	{"GA", "General of the Army", 26, TierOfficer},
}

var byCode = func() map[string]Rank {
	m := make(map[string]Rank, len(table))
	for _, r := range table {
		m[r.Code] = r
	}
	return m
}()

// All returns the full table in ascending order.
func All() []Rank {
	out := make([]Rank, len(table))
	copy(out, table)
	return out
}

// Lookup resolves a rank code.
func Lookup(code string) (Rank, bool) {
	r, ok := byCode[code]
	return r, ok
}

// Valid reports whether code is in the table.
func Valid(code string) bool {
	_, ok := byCode[code]
	return ok
}

// Level returns the level of code, or 0 if it is unknown.
func Level(code string) int {
	return byCode[code].Level
}

// Tiers returns the tiers in ascending order.
func Tiers() []Tier {
	return []Tier{TierEnlisted, TierWarrant, TierOfficer}
}

// ByTier returns the ranks of one tier ordered by level.
func ByTier(t Tier) []Rank {
	var out []Rank
	for _, r := range table {
		if r.Tier == t {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out
}

// Label renders "CODE - Name".
func (r Rank) Label() string {
	return r.Code + " - " + r.Name
}
