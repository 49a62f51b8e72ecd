package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "dugout/pkg/domain"
	dErrors "dugout/pkg/domain-errors"
)

func TestParseTriggerReason(t *testing.T) {
	trigger, err := ParseTriggerReason("")
	require.NoError(t, err)
	assert.Equal(t, TriggerUserRequest, trigger)

	trigger, err = ParseTriggerReason("injury_update")
	require.NoError(t, err)
	assert.Equal(t, TriggerInjuryUpdate, trigger)

	_, err = ParseTriggerReason("hunch")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestNewVersion(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	playerID := id.NewPlayerID()
	payload := Content{Summary: "solid regular"}

	first, err := NewVersion(id.NewReportID(), playerID, nil, payload, TriggerScheduled, time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)
	assert.True(t, first.IsCurrent)
	assert.Nil(t, first.PreviousVersionID)
	assert.Equal(t, now.Add(time.Hour), first.ExpiresAt)

	second, err := NewVersion(id.NewReportID(), playerID, first, payload, TriggerTrade, time.Hour, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)
	require.NotNil(t, second.PreviousVersionID)
	assert.Equal(t, first.ID, *second.PreviousVersionID)

	t.Run("summary required", func(t *testing.T) {
		_, err := NewVersion(id.NewReportID(), playerID, nil, Content{}, TriggerScheduled, time.Hour, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("nil player id rejected", func(t *testing.T) {
		_, err := NewVersion(id.NewReportID(), id.PlayerID{}, nil, payload, TriggerScheduled, time.Hour, now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestExpiredBoundary(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	report := &Report{ExpiresAt: now}

	assert.True(t, report.Expired(now), "expiry instant itself counts as expired")
	assert.False(t, report.Expired(now.Add(-time.Nanosecond)))
	assert.True(t, report.Expired(now.Add(time.Nanosecond)))
}
