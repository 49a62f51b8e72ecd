//go:build integration

package store_test

import (
	"context"
	"database/sql"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	playermodels "dugout/internal/player/models"
	playerstore "dugout/internal/player/store"
	"dugout/internal/report/models"
	"dugout/internal/report/service"
	"dugout/internal/report/store"
	id "dugout/pkg/domain"
	dErrors "dugout/pkg/domain-errors"
	"dugout/pkg/platform/sentinel"
	"dugout/pkg/testutil/containers"
)

// postgresTx mirrors the transaction adapter the server wires in: a real
// BEGIN/COMMIT around the version-creation sequence so FOR UPDATE locks
// hold until commit.
type postgresTx struct {
	db *sql.DB
}

func (t *postgresTx) RunInTx(ctx context.Context, fn func(s service.Store) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if err := fn(store.NewPostgresTx(tx)); err != nil {
		return err
	}
	return tx.Commit()
}

type ReportPostgresSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	svc      *service.Service
	playerID id.PlayerID
}

func TestReportPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ReportPostgresSuite))
}

func (s *ReportPostgresSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
	s.svc = service.New(s.store, &postgresTx{db: s.postgres.DB}, 24*time.Hour)
}

func (s *ReportPostgresSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "scouting_reports", "player_aliases", "players"))

	player, err := playermodels.NewPlayer(id.NewPlayerID(), "Shohei Ohtani", time.Now().UTC())
	s.Require().NoError(err)
	s.Require().NoError(playerstore.NewPostgres(s.postgres.DB).Create(ctx, player))
	s.playerID = player.ID
}

func content(summary string) models.Content {
	return models.Content{
		Summary:    summary,
		Sources:    []string{"statcast"},
		TokenUsage: 512,
	}
}

func (s *ReportPostgresSuite) TestVersionChainRoundTrip() {
	ctx := context.Background()

	first, err := s.svc.CreateVersion(ctx, s.playerID, content("v1"), "scheduled")
	s.Require().NoError(err)
	s.Equal(1, first.Version)

	second, err := s.svc.CreateVersion(ctx, s.playerID, content("v2"), "trade")
	s.Require().NoError(err)
	s.Equal(2, second.Version)
	s.Require().NotNil(second.PreviousVersionID)
	s.Equal(first.ID, *second.PreviousVersionID)

	current, err := s.store.CurrentByPlayer(ctx, s.playerID)
	s.Require().NoError(err)
	s.Equal(second.ID, current.ID)
	s.Equal([]string{"statcast"}, []string(current.Content.Sources))

	versions, total, err := s.store.ListByPlayer(ctx, s.playerID)
	s.Require().NoError(err)
	s.Equal(2, total)
	s.False(versions[1].IsCurrent)
}

func (s *ReportPostgresSuite) TestPartialUniqueIndexRejectsSecondCurrent() {
	ctx := context.Background()

	insert := func() error {
		report, err := models.NewVersion(id.NewReportID(), s.playerID, nil, content("dup"), models.TriggerScheduled, time.Hour, time.Now().UTC())
		if err != nil {
			return err
		}
		return s.store.Insert(ctx, report)
	}
	s.Require().NoError(insert())
	s.Require().ErrorIs(insert(), sentinel.ErrConflict)
}

func (s *ReportPostgresSuite) TestLegacyNameLookup() {
	ctx := context.Background()

	legacy := &models.Report{
		ID:             id.NewReportID(),
		PlayerName:     "Bo Jackson",
		NameNormalized: "bo jackson",
		Version:        1,
		IsCurrent:      true,
		Trigger:        models.TriggerScheduled,
		Content:        content("legacy"),
		ExpiresAt:      time.Now().UTC().Add(time.Hour),
		CreatedAt:      time.Now().UTC(),
	}
	s.Require().NoError(s.store.Insert(ctx, legacy))

	found, err := s.store.CurrentByName(ctx, "bo jackson")
	s.Require().NoError(err)
	s.Equal(legacy.ID, found.ID)
}

// TestConcurrentCreateVersion races real transactions for one player. Every
// call either succeeds or fails with a conflict, and afterwards exactly one
// row is current with a contiguous version chain.
func (s *ReportPostgresSuite) TestConcurrentCreateVersion() {
	ctx := context.Background()
	const writers = 20

	var succeeded, conflicted atomic.Int32
	var group errgroup.Group
	for range writers {
		group.Go(func() error {
			_, err := s.svc.CreateVersion(ctx, s.playerID, content("race"), "scheduled")
			switch {
			case err == nil:
				succeeded.Add(1)
			case dErrors.HasCode(err, dErrors.CodeConflict):
				conflicted.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	s.Require().NoError(group.Wait())
	s.Equal(int32(writers), succeeded.Load()+conflicted.Load())
	s.Positive(succeeded.Load())

	var currents int
	err := s.postgres.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM scouting_reports WHERE player_id = $1 AND is_current",
		s.playerID.String(),
	).Scan(&currents)
	s.Require().NoError(err)
	s.Equal(1, currents)

	versions, total, err := s.svc.ListVersions(ctx, s.playerID)
	s.Require().NoError(err)
	s.Equal(int(succeeded.Load()), total)
	s.Equal(total, versions[0].Version)
}
