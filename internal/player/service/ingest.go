package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"dugout/internal/player/models"
	dErrors "dugout/pkg/domain-errors"
	"dugout/pkg/platform/sentinel"
	"dugout/pkg/requestcontext"
)

// ingestConcurrency bounds parallel upserts so a large batch cannot exhaust
// the store's connection pool.
const ingestConcurrency = 8

// IngestRecord is one raw identity dictionary from an upstream source. The
// sync/fetch logic that produces these lives outside this service.
type IngestRecord struct {
	FullName   string `json:"full_name"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	MLBID      int64  `json:"mlb_id"`
	TeamAbbrev string `json:"team_abbrev"`
	Position   string `json:"position"`
	Status     string `json:"status"`
}

// IngestResult summarizes one batch.
type IngestResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
}

// IngestBatch upserts raw records keyed by MLB id. Records are applied
// concurrently; the first failure cancels the batch.
func (s *Service) IngestBatch(ctx context.Context, records []IngestRecord) (IngestResult, error) {
	var created, updated atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(ingestConcurrency)

	for _, record := range records {
		g.Go(func() error {
			if record.MLBID == 0 {
				return dErrors.New(dErrors.CodeValidation, "ingest record missing mlb_id: "+record.FullName)
			}
			wasCreated, err := s.upsertByMLBID(ctx, record)
			if err != nil {
				return err
			}
			if wasCreated {
				created.Add(1)
			} else {
				updated.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return IngestResult{}, err
	}

	result := IngestResult{Created: int(created.Load()), Updated: int(updated.Load())}
	if s.metrics != nil {
		s.metrics.AddPlayersIngested(result.Created + result.Updated)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "ingestion batch applied",
			"request_id", requestcontext.RequestID(ctx),
			"created", result.Created,
			"updated", result.Updated,
		)
	}
	return result, nil
}

func (s *Service) upsertByMLBID(ctx context.Context, record IngestRecord) (created bool, err error) {
	existing, err := s.players.FindByExternalID(ctx, models.SystemMLB, formatInt(record.MLBID))
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return false, wrapStoreErr(err, "ingest lookup")
	}

	if existing == nil {
		_, err := s.CreatePlayer(ctx, CreateInput{
			FullName:   record.FullName,
			FirstName:  record.FirstName,
			LastName:   record.LastName,
			MLBID:      &record.MLBID,
			TeamAbbrev: record.TeamAbbrev,
			Position:   record.Position,
			Status:     record.Status,
		})
		if err != nil {
			return false, err
		}
		return true, nil
	}

	now := requestcontext.Now(ctx)
	if record.FullName != "" && record.FullName != existing.FullName {
		if err := existing.Rename(record.FullName, now); err != nil {
			return false, err
		}
	}
	if record.TeamAbbrev != "" {
		existing.TeamAbbrev = strings.ToUpper(strings.TrimSpace(record.TeamAbbrev))
	}
	if record.Position != "" {
		existing.Position = strings.ToUpper(strings.TrimSpace(record.Position))
	}
	if record.Status != "" {
		status, err := models.ParseStatus(record.Status)
		if err != nil {
			return false, err
		}
		existing.Status = status
	}
	existing.UpdatedAt = now

	if err := s.players.Update(ctx, existing); err != nil {
		return false, wrapStoreErr(err, "ingest update")
	}
	return false, nil
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
