package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"dugout/internal/report/models"
	id "dugout/pkg/domain"
	dErrors "dugout/pkg/domain-errors"
	"dugout/pkg/platform/httputil"
	"dugout/pkg/requestcontext"
)

// Service is the slice of the report service the handler needs.
type Service interface {
	GetCurrent(ctx context.Context, playerID id.PlayerID, includeExpired bool) (*models.Report, error)
	GetByName(ctx context.Context, name string, includeExpired bool) (*models.Report, error)
	CreateVersion(ctx context.Context, playerID id.PlayerID, content models.Content, triggerReason string) (*models.Report, error)
	ListVersions(ctx context.Context, playerID id.PlayerID) ([]*models.Report, int, error)
	ListRecent(ctx context.Context, limit, offset int, includeExpired bool) ([]*models.Report, int, error)
}

type Handler struct {
	reports Service
	logger  *slog.Logger
}

func New(reports Service, logger *slog.Logger) *Handler {
	return &Handler{reports: reports, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/players/{playerID}/reports/current", h.handleGetCurrent)
	r.Get("/players/{playerID}/reports", h.handleListVersions)
	r.Post("/players/{playerID}/reports", h.handleCreateVersion)
	r.Get("/reports", h.handleListRecent)
	r.Get("/reports/by-name/{name}", h.handleGetByName)
}

type reportResponse struct {
	ID                string         `json:"id"`
	PlayerID          string         `json:"player_id,omitempty"`
	PlayerName        string         `json:"player_name,omitempty"`
	Version           int            `json:"version"`
	IsCurrent         bool           `json:"is_current"`
	PreviousVersionID string         `json:"previous_version_id,omitempty"`
	TriggerReason     string         `json:"trigger_reason"`
	Content           models.Content `json:"content"`
	ExpiresAt         time.Time      `json:"expires_at"`
	CreatedAt         time.Time      `json:"created_at"`
}

type listResponse struct {
	Reports []reportResponse `json:"reports"`
	Total   int              `json:"total"`
}

func toResponse(r *models.Report) reportResponse {
	out := reportResponse{
		ID:            r.ID.String(),
		PlayerName:    r.PlayerName,
		Version:       r.Version,
		IsCurrent:     r.IsCurrent,
		TriggerReason: string(r.Trigger),
		Content:       r.Content,
		ExpiresAt:     r.ExpiresAt,
		CreatedAt:     r.CreatedAt,
	}
	if r.PlayerID != nil {
		out.PlayerID = r.PlayerID.String()
	}
	if r.PreviousVersionID != nil {
		out.PreviousVersionID = r.PreviousVersionID.String()
	}
	return out
}

func (h *Handler) handleGetCurrent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playerID, err := id.ParsePlayerID(chi.URLParam(r, "playerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := h.reports.GetCurrent(ctx, playerID, boolQuery(r, "include_expired"))
	if err != nil {
		h.logServiceErr(ctx, "get current report", err)
		httputil.WriteError(w, err)
		return
	}
	if report == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no current report"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(report))
}

func (h *Handler) handleGetByName(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	name := strings.TrimSpace(chi.URLParam(r, "name"))
	report, err := h.reports.GetByName(ctx, name, boolQuery(r, "include_expired"))
	if err != nil {
		h.logServiceErr(ctx, "get report by name", err)
		httputil.WriteError(w, err)
		return
	}
	if report == nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "no current report"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(report))
}

type createVersionRequest struct {
	TriggerReason string         `json:"trigger_reason"`
	Content       models.Content `json:"content"`
}

func (req *createVersionRequest) Validate() error {
	return req.Content.Validate()
}

func (h *Handler) handleCreateVersion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	playerID, err := id.ParsePlayerID(chi.URLParam(r, "playerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[createVersionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	report, err := h.reports.CreateVersion(ctx, playerID, req.Content, req.TriggerReason)
	if err != nil {
		h.logServiceErr(ctx, "create report version", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toResponse(report))
}

func (h *Handler) handleListVersions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playerID, err := id.ParsePlayerID(chi.URLParam(r, "playerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	reports, total, err := h.reports.ListVersions(ctx, playerID)
	if err != nil {
		h.logServiceErr(ctx, "list report versions", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(reports, total))
}

func (h *Handler) handleListRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := intQuery(r, "limit")
	offset := intQuery(r, "offset")

	reports, total, err := h.reports.ListRecent(ctx, limit, offset, boolQuery(r, "include_expired"))
	if err != nil {
		h.logServiceErr(ctx, "list recent reports", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toListResponse(reports, total))
}

func toListResponse(reports []*models.Report, total int) listResponse {
	out := listResponse{Total: total, Reports: []reportResponse{}}
	for _, r := range reports {
		out.Reports = append(out.Reports, toResponse(r))
	}
	return out
}

func (h *Handler) logServiceErr(ctx context.Context, op string, err error) {
	switch dErrors.CodeOf(err) {
	case dErrors.CodeUnavailable, dErrors.CodeInternal, dErrors.CodeInvariantViolation:
		h.logger.ErrorContext(ctx, op+" failed",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
	}
}

func boolQuery(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}

func intQuery(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}
