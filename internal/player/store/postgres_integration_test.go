//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"dugout/internal/player/models"
	"dugout/internal/player/store"
	id "dugout/pkg/domain"
	"dugout/pkg/platform/sentinel"
	"dugout/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "scouting_reports", "player_aliases", "players")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newPlayer(fullName string, mutate ...func(*models.Player)) *models.Player {
	s.T().Helper()
	p, err := models.NewPlayer(id.NewPlayerID(), fullName, time.Now().UTC())
	s.Require().NoError(err)
	for _, m := range mutate {
		m(p)
	}
	return p
}

func (s *PostgresStoreSuite) TestCreateAndLookups() {
	ctx := context.Background()
	mlb := int64(660271)
	p := s.newPlayer("Shohei Ohtani", func(p *models.Player) {
		p.MLBID = &mlb
		p.FangraphsID = "19755"
		p.TeamAbbrev = "LAD"
		p.Position = "DH"
	})
	s.Require().NoError(s.store.Create(ctx, p))

	byID, err := s.store.FindByID(ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(p.FullName, byID.FullName)

	byMLB, err := s.store.FindByExternalID(ctx, models.SystemMLB, "660271")
	s.Require().NoError(err)
	s.Equal(p.ID, byMLB.ID)

	byFG, err := s.store.FindByExternalID(ctx, models.SystemFangraphs, "19755")
	s.Require().NoError(err)
	s.Equal(p.ID, byFG.ID)

	byName, err := s.store.FindByNormalizedName(ctx, "shohei ohtani")
	s.Require().NoError(err)
	s.Require().Len(byName, 1)
}

func (s *PostgresStoreSuite) TestExternalIDUniqueness() {
	ctx := context.Background()
	mlb := int64(545361)
	first := s.newPlayer("Mike Trout", func(p *models.Player) { p.MLBID = &mlb })
	s.Require().NoError(s.store.Create(ctx, first))

	dup := s.newPlayer("Not Mike Trout", func(p *models.Player) { p.MLBID = &mlb })
	err := s.store.Create(ctx, dup)
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestSoftDeletedRowsInvisible() {
	ctx := context.Background()
	mlb := int64(450203)
	p := s.newPlayer("Hunter Pence", func(p *models.Player) { p.MLBID = &mlb })
	s.Require().NoError(s.store.Create(ctx, p))

	alias, err := models.NewAlias(id.NewAliasID(), p.ID, "The Reverend", models.AliasNickname, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.store.AddAlias(ctx, alias))

	p.ApplyDeactivation(time.Now().UTC())
	s.Require().NoError(s.store.Update(ctx, p))

	_, err = s.store.FindByID(ctx, p.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByExternalID(ctx, models.SystemMLB, "450203")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	byName, err := s.store.FindByNormalizedName(ctx, "hunter pence")
	s.Require().NoError(err)
	s.Empty(byName)

	byAlias, err := s.store.FindByAlias(ctx, "the reverend")
	s.Require().NoError(err)
	s.Empty(byAlias)
}

func (s *PostgresStoreSuite) TestAliasUniquePerPlayer() {
	ctx := context.Background()
	p := s.newPlayer("Giancarlo Stanton")
	s.Require().NoError(s.store.Create(ctx, p))

	alias, err := models.NewAlias(id.NewAliasID(), p.ID, "Mike Stanton", models.AliasLegalChange, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.store.AddAlias(ctx, alias))

	dup, err := models.NewAlias(id.NewAliasID(), p.ID, "mike stanton", models.AliasNickname, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().ErrorIs(s.store.AddAlias(ctx, dup), sentinel.ErrConflict)

	other := s.newPlayer("Someone Else")
	s.Require().NoError(s.store.Create(ctx, other))
	shared, err := models.NewAlias(id.NewAliasID(), other.ID, "Mike Stanton", models.AliasNickname, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(s.store.AddAlias(ctx, shared))
}

func (s *PostgresStoreSuite) TestOrphanAliasRejected() {
	ctx := context.Background()
	alias, err := models.NewAlias(id.NewAliasID(), id.NewPlayerID(), "Nobody", models.AliasNickname, time.Now().UTC())
	s.Require().NoError(err)
	s.Require().ErrorIs(s.store.AddAlias(ctx, alias), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListFilters() {
	ctx := context.Background()
	for _, spec := range []struct {
		name, team, position string
	}{
		{"Mookie Betts", "LAD", "RF"},
		{"Will Smith", "LAD", "C"},
		{"Mike Trout", "LAA", "CF"},
	} {
		p := s.newPlayer(spec.name, func(p *models.Player) {
			p.TeamAbbrev = spec.team
			p.Position = spec.position
		})
		s.Require().NoError(s.store.Create(ctx, p))
	}

	players, total, err := s.store.List(ctx, store.ListFilter{Team: "lad"})
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Len(players, 2)

	players, total, err = s.store.List(ctx, store.ListFilter{Limit: 1, Offset: 2})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Len(players, 1)
}
