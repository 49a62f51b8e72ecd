package models

import (
	"strings"
	"time"

	id "dugout/pkg/domain"
	dErrors "dugout/pkg/domain-errors"
)

// AliasType tags how an alternate name came to exist.
type AliasType string

const (
	AliasNickname     AliasType = "nickname"
	AliasLegalChange  AliasType = "legal_change"
	AliasAbbreviation AliasType = "abbreviation"
	AliasMaidenName   AliasType = "maiden_name"
)

// ParseAliasType validates an alias type string, defaulting to nickname when
// empty.
func ParseAliasType(s string) (AliasType, error) {
	if s == "" {
		return AliasNickname, nil
	}
	switch AliasType(s) {
	case AliasNickname, AliasLegalChange, AliasAbbreviation, AliasMaidenName:
		return AliasType(s), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown alias type: "+s)
}

// Alias is an alternate name bound to exactly one player. Its lifecycle is
// tied to the owner: deleting the player deletes its aliases.
//
// Invariant: (PlayerID, NameNormalized) pairs are unique. The same alias text
// may point at different players in different rows.
type Alias struct {
	ID             id.AliasID  `json:"id"`
	PlayerID       id.PlayerID `json:"player_id"`
	Name           string      `json:"name"`
	NameNormalized string      `json:"name_normalized"`
	Type           AliasType   `json:"type"`
	CreatedAt      time.Time   `json:"created_at"`
}

// NewAlias constructs an alias with its normalized projection computed.
func NewAlias(aliasID id.AliasID, playerID id.PlayerID, name string, aliasType AliasType, now time.Time) (*Alias, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "alias name is required")
	}
	if len(name) > 150 {
		return nil, dErrors.New(dErrors.CodeValidation, "alias name must be at most 150 characters")
	}
	return &Alias{
		ID:             aliasID,
		PlayerID:       playerID,
		Name:           name,
		NameNormalized: NormalizeName(name),
		Type:           aliasType,
		CreatedAt:      now,
	}, nil
}
