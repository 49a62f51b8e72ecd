// Package domain defines typed identifiers shared across modules.
//
// Each ID wraps a UUID in its own named type so a PlayerID can never be
// passed where a ReportID is expected. Parse functions enforce the trust
// boundary invariant: IDs must be valid, non-empty, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "dugout/pkg/domain-errors"
)

// PlayerID identifies a canonical player record.
type PlayerID uuid.UUID

// ReportID identifies one immutable scouting report version.
type ReportID uuid.UUID

// AliasID identifies a player name alias row.
type AliasID uuid.UUID

func (id PlayerID) String() string { return uuid.UUID(id).String() }
func (id ReportID) String() string { return uuid.UUID(id).String() }
func (id AliasID) String() string  { return uuid.UUID(id).String() }

func (id PlayerID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ReportID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id AliasID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// NewPlayerID returns a fresh random PlayerID.
func NewPlayerID() PlayerID { return PlayerID(uuid.New()) }

// NewReportID returns a fresh random ReportID.
func NewReportID() ReportID { return ReportID(uuid.New()) }

// NewAliasID returns a fresh random AliasID.
func NewAliasID() AliasID { return AliasID(uuid.New()) }

// ParsePlayerID parses and validates a player ID from its string form.
func ParsePlayerID(s string) (PlayerID, error) {
	u, err := parseUUID(s, "player id")
	if err != nil {
		return PlayerID{}, err
	}
	return PlayerID(u), nil
}

// ParseReportID parses and validates a report ID from its string form.
func ParseReportID(s string) (ReportID, error) {
	u, err := parseUUID(s, "report id")
	if err != nil {
		return ReportID{}, err
	}
	return ReportID(u), nil
}

// ParseAliasID parses and validates an alias ID from its string form.
func ParseAliasID(s string) (AliasID, error) {
	u, err := parseUUID(s, "alias id")
	if err != nil {
		return AliasID{}, err
	}
	return AliasID(u), nil
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must not be the nil UUID")
	}
	return u, nil
}
