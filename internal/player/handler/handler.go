package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"dugout/internal/player/models"
	"dugout/internal/player/service"
	"dugout/internal/player/store"
	id "dugout/pkg/domain"
	dErrors "dugout/pkg/domain-errors"
	"dugout/pkg/platform/httputil"
	"dugout/pkg/requestcontext"
)

// Service is the slice of the player registry the handler needs.
type Service interface {
	CreatePlayer(ctx context.Context, input service.CreateInput) (*models.Player, error)
	GetPlayer(ctx context.Context, playerID id.PlayerID) (*models.Player, []*models.Alias, error)
	UpdatePlayer(ctx context.Context, playerID id.PlayerID, input service.UpdateInput) (*models.Player, error)
	DeactivatePlayer(ctx context.Context, playerID id.PlayerID) error
	AddAlias(ctx context.Context, playerID id.PlayerID, name, aliasType string) (*models.Alias, error)
	SearchPlayers(ctx context.Context, query string, limit int) ([]*models.Player, error)
	ListPlayers(ctx context.Context, filter store.ListFilter) ([]*models.Player, int, error)
	IngestBatch(ctx context.Context, records []service.IngestRecord) (service.IngestResult, error)
}

type Handler struct {
	players Service
	logger  *slog.Logger
}

func New(players Service, logger *slog.Logger) *Handler {
	return &Handler{players: players, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/players", h.handleCreate)
	r.Get("/players", h.handleList)
	r.Get("/players/search", h.handleSearch)
	r.Post("/players/ingest", h.handleIngest)
	r.Get("/players/{playerID}", h.handleGet)
	r.Patch("/players/{playerID}", h.handleUpdate)
	r.Delete("/players/{playerID}", h.handleDeactivate)
	r.Post("/players/{playerID}/aliases", h.handleAddAlias)
}

type playerResponse struct {
	ID          string    `json:"id"`
	FullName    string    `json:"full_name"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	NameSuffix  string    `json:"name_suffix,omitempty"`
	MLBID       *int64    `json:"mlb_id,omitempty"`
	FangraphsID string    `json:"fangraphs_id,omitempty"`
	BBRefID     string    `json:"bbref_id,omitempty"`
	TeamAbbrev  string    `json:"team,omitempty"`
	Position    string    `json:"position,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type aliasResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

func toPlayerResponse(p *models.Player) playerResponse {
	return playerResponse{
		ID:          p.ID.String(),
		FullName:    p.FullName,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		NameSuffix:  p.NameSuffix,
		MLBID:       p.MLBID,
		FangraphsID: p.FangraphsID,
		BBRefID:     p.BBRefID,
		TeamAbbrev:  p.TeamAbbrev,
		Position:    p.Position,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toAliasResponse(a *models.Alias) aliasResponse {
	return aliasResponse{
		ID:        a.ID.String(),
		Name:      a.Name,
		Type:      string(a.Type),
		CreatedAt: a.CreatedAt,
	}
}

type createPlayerRequest struct {
	FullName    string `json:"full_name"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	NameSuffix  string `json:"name_suffix,omitempty"`
	MLBID       *int64 `json:"mlb_id,omitempty"`
	FangraphsID string `json:"fangraphs_id,omitempty"`
	BBRefID     string `json:"bbref_id,omitempty"`
	Team        string `json:"team,omitempty"`
	Position    string `json:"position,omitempty"`
	Status      string `json:"status,omitempty"`
}

func (r *createPlayerRequest) Validate() error {
	if r.FullName == "" {
		return dErrors.New(dErrors.CodeValidation, "full_name is required")
	}
	return nil
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[createPlayerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	player, err := h.players.CreatePlayer(ctx, service.CreateInput{
		FullName:    req.FullName,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		NameSuffix:  req.NameSuffix,
		MLBID:       req.MLBID,
		FangraphsID: req.FangraphsID,
		BBRefID:     req.BBRefID,
		TeamAbbrev:  req.Team,
		Position:    req.Position,
		Status:      req.Status,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toPlayerResponse(player))
}

type playerWithAliases struct {
	playerResponse
	Aliases []aliasResponse `json:"aliases"`
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playerID, err := id.ParsePlayerID(chi.URLParam(r, "playerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	player, aliases, err := h.players.GetPlayer(ctx, playerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := playerWithAliases{playerResponse: toPlayerResponse(player), Aliases: []aliasResponse{}}
	for _, a := range aliases {
		resp.Aliases = append(resp.Aliases, toAliasResponse(a))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

type updatePlayerRequest struct {
	FullName    *string `json:"full_name,omitempty"`
	Team        *string `json:"team,omitempty"`
	Position    *string `json:"position,omitempty"`
	Status      *string `json:"status,omitempty"`
	MLBID       *int64  `json:"mlb_id,omitempty"`
	FangraphsID *string `json:"fangraphs_id,omitempty"`
	BBRefID     *string `json:"bbref_id,omitempty"`
}

func (r *updatePlayerRequest) Validate() error {
	if r.FullName == nil && r.Team == nil && r.Position == nil && r.Status == nil &&
		r.MLBID == nil && r.FangraphsID == nil && r.BBRefID == nil {
		return dErrors.New(dErrors.CodeValidation, "at least one field must be provided")
	}
	return nil
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	playerID, err := id.ParsePlayerID(chi.URLParam(r, "playerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[updatePlayerRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	player, err := h.players.UpdatePlayer(ctx, playerID, service.UpdateInput{
		FullName:    req.FullName,
		TeamAbbrev:  req.Team,
		Position:    req.Position,
		Status:      req.Status,
		MLBID:       req.MLBID,
		FangraphsID: req.FangraphsID,
		BBRefID:     req.BBRefID,
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPlayerResponse(player))
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playerID, err := id.ParsePlayerID(chi.URLParam(r, "playerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.players.DeactivatePlayer(ctx, playerID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addAliasRequest struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

func (r *addAliasRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

func (h *Handler) handleAddAlias(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	playerID, err := id.ParsePlayerID(chi.URLParam(r, "playerID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[addAliasRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	alias, err := h.players.AddAlias(ctx, playerID, req.Name, req.Type)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toAliasResponse(alias))
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	players, err := h.players.SearchPlayers(ctx, r.URL.Query().Get("q"), intQuery(r, "limit"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPlayerList(players, len(players)))
}

type playerListResponse struct {
	Players []playerResponse `json:"players"`
	Total   int              `json:"total"`
}

func toPlayerList(players []*models.Player, total int) playerListResponse {
	out := playerListResponse{Total: total, Players: []playerResponse{}}
	for _, p := range players {
		out.Players = append(out.Players, toPlayerResponse(p))
	}
	return out
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	players, total, err := h.players.ListPlayers(ctx, store.ListFilter{
		Limit:           intQuery(r, "limit"),
		Offset:          intQuery(r, "offset"),
		Status:          models.Status(query.Get("status")),
		Team:            query.Get("team"),
		Position:        query.Get("position"),
		IncludeInactive: boolQuery(r, "include_inactive"),
	})
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPlayerList(players, total))
}

type ingestRequest struct {
	Records []service.IngestRecord `json:"records"`
}

func (r *ingestRequest) Validate() error {
	if len(r.Records) == 0 {
		return dErrors.New(dErrors.CodeValidation, "records must not be empty")
	}
	return nil
}

func (h *Handler) handleIngest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ingestRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.players.IngestBatch(ctx, req.Records)
	if err != nil {
		h.logger.ErrorContext(ctx, "ingest batch failed",
			"request_id", requestID,
			"records", len(req.Records),
			"error", err.Error(),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func intQuery(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}

func boolQuery(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}
