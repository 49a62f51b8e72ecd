package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "dugout/pkg/domain"
	dErrors "dugout/pkg/domain-errors"
)

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Will Smith", "will smith"},
		{"  Will   Smith  ", "will smith"},
		{"SHOHEI OHTANI", "shohei ohtani"},
		{"Ronald Acuña Jr.", "ronald acuña jr."},
		{"", ""},
		{"   ", ""},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, NormalizeName(c.in), "input %q", c.in)
	}
}

func TestNewPlayer(t *testing.T) {
	now := time.Now()

	t.Run("computes normalized projection", func(t *testing.T) {
		p, err := NewPlayer(id.NewPlayerID(), "  Will  Smith ", now)
		require.NoError(t, err)
		assert.Equal(t, "Will  Smith", p.FullName)
		assert.Equal(t, "will smith", p.NameNormalized)
		assert.True(t, p.Active)
		assert.Equal(t, StatusActive, p.Status)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewPlayer(id.NewPlayerID(), "   ", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestRenameKeepsProjectionInSync(t *testing.T) {
	now := time.Now()
	p, err := NewPlayer(id.NewPlayerID(), "Will Smith", now)
	require.NoError(t, err)

	require.NoError(t, p.Rename("Willard Carroll Smith", now.Add(time.Minute)))
	assert.Equal(t, NormalizeName(p.FullName), p.NameNormalized)
}

func TestDeactivation(t *testing.T) {
	now := time.Now()
	p, err := NewPlayer(id.NewPlayerID(), "Will Smith", now)
	require.NoError(t, err)

	require.NoError(t, p.CanDeactivate())
	p.ApplyDeactivation(now)
	assert.False(t, p.Active)

	err = p.CanDeactivate()
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func TestExternalID(t *testing.T) {
	mlb := int64(660271)
	p := &Player{MLBID: &mlb, FangraphsID: "19755"}

	assert.Equal(t, "660271", p.ExternalID(SystemMLB))
	assert.Equal(t, "19755", p.ExternalID(SystemFangraphs))
	assert.Equal(t, "", p.ExternalID(SystemBBRef))
}

func TestParseAliasType(t *testing.T) {
	got, err := ParseAliasType("")
	require.NoError(t, err)
	assert.Equal(t, AliasNickname, got)

	_, err = ParseAliasType("stage_name")
	require.Error(t, err)
}
