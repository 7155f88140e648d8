package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cypherlabdev/odds-pipeline-service/internal/consensus"
	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
	"github.com/cypherlabdev/odds-pipeline-service/internal/service"
	"github.com/cypherlabdev/odds-pipeline-service/pkg/analyzer"
)

// AnalysisReader is the read side the analysis endpoints serve
type AnalysisReader interface {
	AnalyzeProp(ctx context.Context, q service.PropQuery) (*models.AnalysisResult, error)
	AnalyzeGameMarket(ctx context.Context, q service.GameMarketQuery) (*models.AnalysisResult, error)
	GameConsensus(ctx context.Context, gameID string) (*models.GameConsensus, error)
	Featured(ctx context.Context, day string) ([]models.FeaturedPick, error)
}

// AnalysisHandler serves on-demand analysis, consensus and featured reads
type AnalysisHandler struct {
	service  AnalysisReader
	location *time.Location
	now      func() time.Time
	logger   zerolog.Logger
}

// NewAnalysisHandler creates a new analysis handler. location decides which
// day "today" is for the featured endpoint.
func NewAnalysisHandler(svc AnalysisReader, location *time.Location, logger zerolog.Logger) *AnalysisHandler {
	if location == nil {
		location = time.UTC
	}
	return &AnalysisHandler{
		service:  svc,
		location: location,
		now:      time.Now,
		logger:   logger.With().Str("component", "analysis_handler").Logger(),
	}
}

// insufficientResponse is the 404 body for a selection that cannot be analyzed
type insufficientResponse struct {
	Error          string   `json:"error"`
	Reason         string   `json:"reason"`
	SelectionID    string   `json:"selection_id"`
	Sportsbook     string   `json:"sportsbook"`
	AvailableBooks []string `json:"available_books"`
	ReferenceBooks int      `json:"reference_books"`
	Required       int      `json:"required_reference_books"`
}

// HandleAnalyzeProp handles GET /api/v1/analysis/prop
func (h *AnalysisHandler) HandleAnalyzeProp(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := service.PropQuery{
		GameID:     query.Get("game_id"),
		PlayerName: query.Get("player"),
		PropType:   query.Get("prop_type"),
		Sportsbook: strings.ToLower(query.Get("book")),
		Side:       models.Side(strings.ToLower(query.Get("side"))),
	}

	if q.GameID == "" || q.PlayerName == "" || q.PropType == "" || q.Sportsbook == "" {
		errorResponse(w, h.logger, http.StatusBadRequest, "game_id, player, prop_type and book are required")
		return
	}
	if q.Side != "" && q.Side != models.SideOver && q.Side != models.SideUnder {
		errorResponse(w, h.logger, http.StatusBadRequest, "side must be over or under")
		return
	}
	if raw := query.Get("line"); raw != "" {
		line, err := decimal.NewFromString(raw)
		if err != nil {
			errorResponse(w, h.logger, http.StatusBadRequest, "line must be a number")
			return
		}
		q.Line = &line
	}

	result, err := h.service.AnalyzeProp(r.Context(), q)
	if err != nil {
		h.analysisError(w, err)
		return
	}

	jsonResponse(w, h.logger, http.StatusOK, result)
}

// HandleAnalyzeGame handles GET /api/v1/analysis/game
func (h *AnalysisHandler) HandleAnalyzeGame(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	q := service.GameMarketQuery{
		GameID:     query.Get("game_id"),
		Market:     models.MarketType(strings.ToLower(query.Get("market"))),
		Side:       models.Side(strings.ToLower(query.Get("side"))),
		Sportsbook: strings.ToLower(query.Get("book")),
	}

	if q.GameID == "" || q.Market == "" || q.Side == "" || q.Sportsbook == "" {
		errorResponse(w, h.logger, http.StatusBadRequest, "game_id, market, side and book are required")
		return
	}
	if !q.Market.Valid() {
		errorResponse(w, h.logger, http.StatusBadRequest, "market must be spread, total or moneyline")
		return
	}
	if !consensus.ValidSide(q.Market, q.Side) {
		errorResponse(w, h.logger, http.StatusBadRequest, fmt.Sprintf("side %q is not valid for market %s", q.Side, q.Market))
		return
	}

	result, err := h.service.AnalyzeGameMarket(r.Context(), q)
	if err != nil {
		h.analysisError(w, err)
		return
	}

	jsonResponse(w, h.logger, http.StatusOK, result)
}

// HandleGameOdds handles GET /api/v1/games/{gameID}/odds
func (h *AnalysisHandler) HandleGameOdds(w http.ResponseWriter, r *http.Request) {
	gameID := chi.URLParam(r, "gameID")
	if gameID == "" {
		errorResponse(w, h.logger, http.StatusBadRequest, "gameID is required")
		return
	}

	view, err := h.service.GameConsensus(r.Context(), gameID)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			errorResponse(w, h.logger, http.StatusNotFound, "game not found")
			return
		}
		h.logger.Error().Err(err).Str("game_id", gameID).Msg("failed to build consensus")
		errorResponse(w, h.logger, http.StatusInternalServerError, "failed to retrieve odds")
		return
	}

	jsonResponse(w, h.logger, http.StatusOK, view)
}

// HandleFeatured handles GET /api/v1/featured?date=YYYY-MM-DD
func (h *AnalysisHandler) HandleFeatured(w http.ResponseWriter, r *http.Request) {
	day := r.URL.Query().Get("date")
	if day == "" {
		day = h.now().In(h.location).Format(models.DayLayout)
	} else if _, err := time.Parse(models.DayLayout, day); err != nil {
		errorResponse(w, h.logger, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	picks, err := h.service.Featured(r.Context(), day)
	if err != nil {
		h.logger.Error().Err(err).Str("day", day).Msg("failed to retrieve featured picks")
		errorResponse(w, h.logger, http.StatusInternalServerError, "failed to retrieve featured picks")
		return
	}
	if picks == nil {
		picks = []models.FeaturedPick{}
	}

	jsonResponse(w, h.logger, http.StatusOK, map[string]interface{}{
		"date":  day,
		"count": len(picks),
		"picks": picks,
	})
}

func (h *AnalysisHandler) analysisError(w http.ResponseWriter, err error) {
	var insufficient *analyzer.InsufficientDataError
	if errors.As(err, &insufficient) {
		books := insufficient.AvailableBooks
		if books == nil {
			books = []string{}
		}
		jsonResponse(w, h.logger, http.StatusNotFound, insufficientResponse{
			Error:          "insufficient market data",
			Reason:         insufficient.Reason,
			SelectionID:    insufficient.SelectionID,
			Sportsbook:     insufficient.TargetBook,
			AvailableBooks: books,
			ReferenceBooks: insufficient.ReferenceBooks,
			Required:       insufficient.Required,
		})
		return
	}

	if errors.Is(err, service.ErrNotFound) {
		errorResponse(w, h.logger, http.StatusNotFound, "game not found")
		return
	}

	h.logger.Error().Err(err).Msg("analysis failed")
	errorResponse(w, h.logger, http.StatusInternalServerError, "analysis failed")
}
