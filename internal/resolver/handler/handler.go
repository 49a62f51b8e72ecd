package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dugout/internal/player/models"
	"dugout/internal/resolver"
	dErrors "dugout/pkg/domain-errors"
	"dugout/pkg/platform/httputil"
	"dugout/pkg/requestcontext"
)

// Service is the slice of the resolver the handler needs.
type Service interface {
	Resolve(ctx context.Context, name string, hints resolver.Context) (*resolver.Resolution, error)
}

type Handler struct {
	resolver Service
	logger   *slog.Logger
}

func New(resolver Service, logger *slog.Logger) *Handler {
	return &Handler{resolver: resolver, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/players/resolve", h.handleResolve)
}

type resolveRequest struct {
	Name        string `json:"name"`
	Team        string `json:"team,omitempty"`
	Position    string `json:"position,omitempty"`
	MLBID       *int64 `json:"mlb_id,omitempty"`
	FangraphsID string `json:"fangraphs_id,omitempty"`
	BBRefID     string `json:"bbref_id,omitempty"`
}

func (r *resolveRequest) Validate() error {
	if r.Name == "" && r.MLBID == nil && r.FangraphsID == "" && r.BBRefID == "" {
		return dErrors.New(dErrors.CodeValidation, "name or an external identifier is required")
	}
	if len(r.Name) > 150 {
		return dErrors.New(dErrors.CodeValidation, "name must be at most 150 characters")
	}
	return nil
}

type playerSummary struct {
	ID         string `json:"id"`
	FullName   string `json:"full_name"`
	TeamAbbrev string `json:"team,omitempty"`
	Position   string `json:"position,omitempty"`
	Status     string `json:"status"`
}

type resolveResponse struct {
	Status               string          `json:"status"`
	Method               string          `json:"method"`
	Confidence           float64         `json:"confidence"`
	Player               *playerSummary  `json:"player,omitempty"`
	Candidates           []playerSummary `json:"candidates,omitempty"`
	RequiresConfirmation bool            `json:"requires_confirmation"`
}

func (h *Handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[resolveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.resolver.Resolve(ctx, req.Name, resolver.Context{
		TeamAbbrev:  req.Team,
		Position:    req.Position,
		MLBID:       req.MLBID,
		FangraphsID: req.FangraphsID,
		BBRefID:     req.BBRefID,
	})
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeValidation) {
			h.logger.ErrorContext(ctx, "resolution failed",
				"request_id", requestID,
				"error", err.Error(),
			)
		}
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toResponse(res))
}

func toResponse(res *resolver.Resolution) resolveResponse {
	out := resolveResponse{
		Status:               string(res.Status),
		Method:               string(res.Method),
		Confidence:           res.Confidence,
		RequiresConfirmation: res.RequiresConfirmation,
	}
	if res.Player != nil {
		s := summarize(res.Player)
		out.Player = &s
	}
	for _, c := range res.Candidates {
		out.Candidates = append(out.Candidates, summarize(c))
	}
	return out
}

func summarize(p *models.Player) playerSummary {
	return playerSummary{
		ID:         p.ID.String(),
		FullName:   p.FullName,
		TeamAbbrev: p.TeamAbbrev,
		Position:   p.Position,
		Status:     string(p.Status),
	}
}
