package models

import (
	"strings"
	"time"

	playermodels "dugout/internal/player/models"
	id "dugout/pkg/domain"
	dErrors "dugout/pkg/domain-errors"
)

// TriggerReason tags why a report version was generated.
type TriggerReason string

const (
	TriggerScheduled         TriggerReason = "scheduled"
	TriggerUserRequest       TriggerReason = "user_request"
	TriggerPerformanceChange TriggerReason = "performance_change"
	TriggerInjuryUpdate      TriggerReason = "injury_update"
	TriggerTrade             TriggerReason = "trade"
)

// ParseTriggerReason validates a trigger string, defaulting to user_request
// when empty.
func ParseTriggerReason(s string) (TriggerReason, error) {
	if s == "" {
		return TriggerUserRequest, nil
	}
	switch TriggerReason(s) {
	case TriggerScheduled, TriggerUserRequest, TriggerPerformanceChange, TriggerInjuryUpdate, TriggerTrade:
		return TriggerReason(s), nil
	}
	return "", dErrors.New(dErrors.CodeValidation, "unknown trigger reason: "+s)
}

// Content holds the write-once payload of a report version. None of these
// fields change after the row is inserted.
type Content struct {
	Summary          string   `json:"summary"`
	RecentStats      string   `json:"recent_stats,omitempty"`
	InjuryStatus     string   `json:"injury_status,omitempty"`
	FantasyOutlook   string   `json:"fantasy_outlook,omitempty"`
	DetailedAnalysis string   `json:"detailed_analysis,omitempty"`
	Sources          []string `json:"sources,omitempty"`
	TokenUsage       int      `json:"token_usage,omitempty"`
}

func (c Content) Validate() error {
	if strings.TrimSpace(c.Summary) == "" {
		return dErrors.New(dErrors.CodeValidation, "report summary is required")
	}
	return nil
}

// Report is one immutable version in a player's report chain. After
// creation the only mutation ever applied is flipping IsCurrent to false
// when a newer version supersedes it.
//
// PlayerID is nil only on legacy rows written before the identity registry
// existed; those rows are reachable solely through the name path.
type Report struct {
	ID                id.ReportID   `json:"id"`
	PlayerID          *id.PlayerID  `json:"player_id,omitempty"`
	PlayerName        string        `json:"player_name,omitempty"`
	NameNormalized    string        `json:"-"`
	Version           int           `json:"version"`
	IsCurrent         bool          `json:"is_current"`
	PreviousVersionID *id.ReportID  `json:"previous_version_id,omitempty"`
	Trigger           TriggerReason `json:"trigger_reason"`
	Content           Content       `json:"content"`
	ExpiresAt         time.Time     `json:"expires_at"`
	CreatedAt         time.Time     `json:"created_at"`
}

// Expired reports whether the row's freshness window has passed at now.
func (r *Report) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// NewVersion constructs the successor row for a player's chain. previous is
// nil for the first version.
func NewVersion(reportID id.ReportID, playerID id.PlayerID, previous *Report, content Content, trigger TriggerReason, ttl time.Duration, now time.Time) (*Report, error) {
	if playerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "player id is required")
	}
	if err := content.Validate(); err != nil {
		return nil, err
	}

	report := &Report{
		ID:        reportID,
		PlayerID:  &playerID,
		Version:   1,
		IsCurrent: true,
		Trigger:   trigger,
		Content:   content,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if previous != nil {
		report.Version = previous.Version + 1
		prevID := previous.ID
		report.PreviousVersionID = &prevID
	}
	return report, nil
}

// NormalizeName mirrors the player registry's normalization so the legacy
// name path and identity records agree on casing and spacing.
func NormalizeName(name string) string {
	return playermodels.NormalizeName(name)
}
