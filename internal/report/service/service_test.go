package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"dugout/internal/audit"
	"dugout/internal/report/models"
	"dugout/internal/report/store"
	id "dugout/pkg/domain"
	dErrors "dugout/pkg/domain-errors"
	"dugout/pkg/requestcontext"
)

const testTTL = 24 * time.Hour

type ReportServiceSuite struct {
	suite.Suite

	store  *store.InMemory
	events *audit.MemoryPublisher
	svc    *Service
	now    time.Time
}

func TestReportServiceSuite(t *testing.T) {
	suite.Run(t, new(ReportServiceSuite))
}

func (s *ReportServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.events = audit.NewMemoryPublisher()
	s.svc = New(s.store, NewMemoryTx(s.store), testTTL, WithAuditPublisher(s.events))
	s.now = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
}

func (s *ReportServiceSuite) ctxAt(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}

func (s *ReportServiceSuite) ctx() context.Context {
	return s.ctxAt(s.now)
}

func content(summary string) models.Content {
	return models.Content{
		Summary:        summary,
		RecentStats:    ".312/.405/.589 over the last 30 days",
		FantasyOutlook: "start in all formats",
		Sources:        []string{"statcast", "fangraphs"},
		TokenUsage:     2048,
	}
}

func (s *ReportServiceSuite) TestFirstVersion() {
	playerID := id.NewPlayerID()

	report, err := s.svc.CreateVersion(s.ctx(), playerID, content("rookie breakout"), "scheduled")
	s.Require().NoError(err)

	s.Equal(1, report.Version)
	s.True(report.IsCurrent)
	s.Nil(report.PreviousVersionID)
	s.Equal(models.TriggerScheduled, report.Trigger)
	s.Equal(s.now.Add(testTTL), report.ExpiresAt)
	s.Require().NotNil(report.PlayerID)
	s.Equal(playerID, *report.PlayerID)

	emitted := s.events.Events()
	s.Require().Len(emitted, 1)
	s.Equal(audit.ActionReportVersionCreated, emitted[0].Action)
	s.Equal(report.ID.String(), emitted[0].ReportID)
}

func (s *ReportServiceSuite) TestSecondVersionSupersedesFirst() {
	playerID := id.NewPlayerID()

	first, err := s.svc.CreateVersion(s.ctx(), playerID, content("v1"), "scheduled")
	s.Require().NoError(err)

	second, err := s.svc.CreateVersion(s.ctx(), playerID, content("v2"), "performance_change")
	s.Require().NoError(err)

	s.Equal(2, second.Version)
	s.True(second.IsCurrent)
	s.Require().NotNil(second.PreviousVersionID)
	s.Equal(first.ID, *second.PreviousVersionID)

	// The v1 row still exists, no longer current, content untouched.
	versions, total, err := s.svc.ListVersions(s.ctx(), playerID)
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Equal(2, versions[0].Version)
	s.Equal(1, versions[1].Version)
	s.False(versions[1].IsCurrent)
	s.Equal("v1", versions[1].Content.Summary)
}

func (s *ReportServiceSuite) TestExpiredCurrentIsStillSuperseded() {
	playerID := id.NewPlayerID()

	first, err := s.svc.CreateVersion(s.ctx(), playerID, content("stale"), "")
	s.Require().NoError(err)

	// Well past expiry: the new version must chain onto the expired row,
	// not start over at version 1.
	later := s.ctxAt(s.now.Add(48 * time.Hour))
	second, err := s.svc.CreateVersion(later, playerID, content("fresh"), "user_request")
	s.Require().NoError(err)

	s.Equal(2, second.Version)
	s.Require().NotNil(second.PreviousVersionID)
	s.Equal(first.ID, *second.PreviousVersionID)
}

func (s *ReportServiceSuite) TestGetCurrentExpiry() {
	playerID := id.NewPlayerID()
	_, err := s.svc.CreateVersion(s.ctx(), playerID, content("fresh"), "")
	s.Require().NoError(err)

	s.Run("fresh hit", func() {
		report, err := s.svc.GetCurrent(s.ctx(), playerID, false)
		s.Require().NoError(err)
		s.Require().NotNil(report)
		s.Equal("fresh", report.Content.Summary)
	})

	s.Run("expired is a miss", func() {
		report, err := s.svc.GetCurrent(s.ctxAt(s.now.Add(25*time.Hour)), playerID, false)
		s.Require().NoError(err)
		s.Nil(report)
	})

	s.Run("include_expired still returns it", func() {
		report, err := s.svc.GetCurrent(s.ctxAt(s.now.Add(25*time.Hour)), playerID, true)
		s.Require().NoError(err)
		s.Require().NotNil(report)
	})
}

func (s *ReportServiceSuite) TestMissIsNotAnError() {
	report, err := s.svc.GetCurrent(s.ctx(), id.NewPlayerID(), false)
	s.Require().NoError(err)
	s.Nil(report)
}

func (s *ReportServiceSuite) TestLegacyNamePath() {
	legacy := &models.Report{
		ID:             id.NewReportID(),
		PlayerName:     "Bo Jackson",
		NameNormalized: "bo jackson",
		Version:        1,
		IsCurrent:      true,
		Trigger:        models.TriggerScheduled,
		Content:        content("legacy row"),
		ExpiresAt:      s.now.Add(time.Hour),
		CreatedAt:      s.now.Add(-time.Hour),
	}
	s.Require().NoError(s.store.Insert(s.ctx(), legacy))

	report, err := s.svc.GetByName(s.ctx(), "  BO   Jackson ", false)
	s.Require().NoError(err)
	s.Require().NotNil(report)
	s.Equal(legacy.ID, report.ID)

	s.Run("expired legacy row is a miss", func() {
		report, err := s.svc.GetByName(s.ctxAt(s.now.Add(2*time.Hour)), "Bo Jackson", false)
		s.Require().NoError(err)
		s.Nil(report)
	})

	s.Run("blank name rejected", func() {
		_, err := s.svc.GetByName(s.ctx(), "   ", false)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *ReportServiceSuite) TestUnknownTriggerRejected() {
	_, err := s.svc.CreateVersion(s.ctx(), id.NewPlayerID(), content("x"), "vibes")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ReportServiceSuite) TestEmptySummaryRejected() {
	_, err := s.svc.CreateVersion(s.ctx(), id.NewPlayerID(), models.Content{Summary: "   "}, "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ReportServiceSuite) TestVersionGapSurfacesAsCorruption() {
	playerID := id.NewPlayerID()
	for _, version := range []int{1, 3} {
		report := &models.Report{
			ID:        id.NewReportID(),
			PlayerID:  &playerID,
			Version:   version,
			IsCurrent: version == 3,
			Trigger:   models.TriggerScheduled,
			Content:   content("gap"),
			ExpiresAt: s.now.Add(time.Hour),
			CreatedAt: s.now,
		}
		s.Require().NoError(s.store.Insert(s.ctx(), report))
	}

	_, _, err := s.svc.ListVersions(s.ctx(), playerID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
}

func (s *ReportServiceSuite) TestListRecent() {
	for i := range 3 {
		playerID := id.NewPlayerID()
		ctx := s.ctxAt(s.now.Add(time.Duration(i) * time.Minute))
		_, err := s.svc.CreateVersion(ctx, playerID, content("recent"), "")
		s.Require().NoError(err)
	}

	reports, total, err := s.svc.ListRecent(s.ctx(), 2, 0, false)
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Len(reports, 2)

	s.Run("expired rows hidden unless asked for", func() {
		farFuture := s.ctxAt(s.now.Add(72 * time.Hour))
		reports, total, err := s.svc.ListRecent(farFuture, 10, 0, false)
		s.Require().NoError(err)
		s.Zero(total)
		s.Empty(reports)

		_, total, err = s.svc.ListRecent(farFuture, 10, 0, true)
		s.Require().NoError(err)
		s.Equal(3, total)
	})
}

// TestConcurrentCreationKeepsOneCurrent hammers CreateVersion for one
// player from many goroutines and verifies the chain afterwards: exactly
// one current row and contiguous version numbers.
func (s *ReportServiceSuite) TestConcurrentCreationKeepsOneCurrent() {
	playerID := id.NewPlayerID()
	const writers = 16

	var group errgroup.Group
	for range writers {
		group.Go(func() error {
			_, err := s.svc.CreateVersion(s.ctx(), playerID, content("race"), "scheduled")
			return err
		})
	}
	s.Require().NoError(group.Wait())

	versions, total, err := s.svc.ListVersions(s.ctx(), playerID)
	s.Require().NoError(err)
	s.Equal(writers, total)

	currents := 0
	for _, v := range versions {
		if v.IsCurrent {
			currents++
		}
	}
	s.Equal(1, currents)
	s.Equal(writers, versions[0].Version)
}
