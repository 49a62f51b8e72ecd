package models

import (
	"strconv"
	"strings"
	"time"

	id "dugout/pkg/domain"
	dErrors "dugout/pkg/domain-errors"
)

// Status is the roster lifecycle flag. Distinct from the Active soft-delete
// bit: a retired player is still resolvable until deactivated.
type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
	StatusRetired  Status = "retired"
	StatusMinors   Status = "minors"
)

// ParseStatus validates a roster status string.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusActive, StatusInactive, StatusRetired, StatusMinors:
		return Status(s), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown player status: "+s)
}

// ExternalSystem names an upstream identifier namespace. The declaration
// order of AllExternalSystems is the resolver's tier-1 priority order.
type ExternalSystem string

const (
	SystemMLB       ExternalSystem = "mlb"
	SystemFangraphs ExternalSystem = "fangraphs"
	SystemBBRef     ExternalSystem = "bbref"
)

// AllExternalSystems lists systems in fixed lookup priority order.
var AllExternalSystems = []ExternalSystem{SystemMLB, SystemFangraphs, SystemBBRef}

// Player is the canonical identity record for one tracked individual.
//
// Invariants:
//   - NameNormalized is always NormalizeName(FullName)
//   - External IDs are globally unique when non-empty
//   - Active=false excludes the row from every resolution and lookup path;
//     rows are never hard-deleted
type Player struct {
	ID             id.PlayerID `json:"id"`
	FullName       string      `json:"full_name"`
	NameNormalized string      `json:"name_normalized"`
	FirstName      string      `json:"first_name"`
	LastName       string      `json:"last_name"`
	NameSuffix     string      `json:"name_suffix,omitempty"`

	// External identifiers, each optional and globally unique when present.
	MLBID       *int64 `json:"mlb_id,omitempty"`
	FangraphsID string `json:"fangraphs_id,omitempty"`
	BBRefID     string `json:"bbref_id,omitempty"`

	// Disambiguation attributes. Tie-break signals only, never matching keys.
	TeamAbbrev string `json:"team_abbrev,omitempty"`
	Position   string `json:"position,omitempty"`

	Status Status `json:"status"`
	Active bool   `json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExternalID returns the player's identifier in the given system, empty when
// not linked.
func (p *Player) ExternalID(system ExternalSystem) string {
	switch system {
	case SystemMLB:
		if p.MLBID != nil {
			return strconv.FormatInt(*p.MLBID, 10)
		}
	case SystemFangraphs:
		return p.FangraphsID
	case SystemBBRef:
		return p.BBRefID
	}
	return ""
}

// NormalizeName computes the normalized-name projection used for equality
// matching: case-folded with outer and inner whitespace collapsed. Pure
// function of the display name.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// NewPlayer constructs a player with its normalized projection computed and
// invariants validated.
func NewPlayer(playerID id.PlayerID, fullName string, now time.Time) (*Player, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "full name is required")
	}
	if len(fullName) > 150 {
		return nil, dErrors.New(dErrors.CodeValidation, "full name must be at most 150 characters")
	}
	return &Player{
		ID:             playerID,
		FullName:       fullName,
		NameNormalized: NormalizeName(fullName),
		Status:         StatusActive,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Rename updates the display name and recomputes the normalized projection so
// the two can never drift apart.
func (p *Player) Rename(fullName string, now time.Time) error {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return dErrors.New(dErrors.CodeValidation, "full name is required")
	}
	p.FullName = fullName
	p.NameNormalized = NormalizeName(fullName)
	p.UpdatedAt = now
	return nil
}

// CanDeactivate checks the soft-delete transition.
func (p *Player) CanDeactivate() error {
	if !p.Active {
		return dErrors.New(dErrors.CodeInvariantViolation, "player is already deactivated")
	}
	return nil
}

// ApplyDeactivation soft-deletes the player. The row stays for audit but is
// excluded from all resolution and lookup paths.
func (p *Player) ApplyDeactivation(now time.Time) {
	p.Active = false
	p.UpdatedAt = now
}
