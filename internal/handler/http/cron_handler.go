package http

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/odds-pipeline-service/internal/ledger"
	"github.com/cypherlabdev/odds-pipeline-service/internal/models"
)

// RunTrigger starts one gated collection run
type RunTrigger interface {
	Run(ctx context.Context) (*ledger.Outcome, error)
}

// CronHandler serves the authenticated collection trigger
type CronHandler struct {
	trigger RunTrigger
	secret  string
	now     func() time.Time
	logger  zerolog.Logger
}

// NewCronHandler creates a new trigger handler. An empty secret rejects every request.
func NewCronHandler(trigger RunTrigger, secret string, logger zerolog.Logger) *CronHandler {
	return &CronHandler{
		trigger: trigger,
		secret:  secret,
		now:     time.Now,
		logger:  logger.With().Str("component", "cron_handler").Logger(),
	}
}

// CollectResponse is the body of a run that started
type CollectResponse struct {
	Success   bool               `json:"success"`
	Timestamp time.Time          `json:"timestamp"`
	RunID     string             `json:"runId,omitempty"`
	Results   *models.RunResults `json:"results,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// SkippedResponse is the body of a gated trigger
type SkippedResponse struct {
	Message            string `json:"message"`
	CompletedRunsToday int    `json:"completedRunsToday"`
	Skipped            bool   `json:"skipped"`
}

// HandleCollect handles GET|POST /api/cron/collect
func (h *CronHandler) HandleCollect(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.logger.Warn().Str("remote_addr", r.RemoteAddr).Msg("unauthorized trigger")
		errorResponse(w, h.logger, http.StatusUnauthorized, "Unauthorized")
		return
	}

	// a client disconnect must not abort a run that has started
	outcome, err := h.trigger.Run(context.WithoutCancel(r.Context()))

	switch {
	case errors.Is(err, ledger.ErrRunInProgress):
		jsonResponse(w, h.logger, http.StatusOK, SkippedResponse{
			Message: "A run is already in progress",
			Skipped: true,
		})

	case outcome != nil && outcome.Skipped:
		jsonResponse(w, h.logger, http.StatusOK, SkippedResponse{
			Message:            outcome.Message,
			CompletedRunsToday: outcome.CompletedRunsToday,
			Skipped:            true,
		})

	case err != nil:
		h.logger.Error().Err(err).Msg("collection run failed")
		resp := CollectResponse{
			Success:   false,
			Timestamp: h.now().UTC(),
			Error:     err.Error(),
		}
		if outcome != nil {
			resp.Results = outcome.Results
			if outcome.Run != nil {
				resp.RunID = outcome.Run.ID.String()
			}
		}
		jsonResponse(w, h.logger, http.StatusInternalServerError, resp)

	default:
		resp := CollectResponse{
			Success:   true,
			Timestamp: h.now().UTC(),
			Results:   outcome.Results,
		}
		if outcome.Run != nil {
			resp.RunID = outcome.Run.ID.String()
		}
		jsonResponse(w, h.logger, http.StatusOK, resp)
	}
}

// authorized accepts the shared secret as ?secret= or a bearer token
func (h *CronHandler) authorized(r *http.Request) bool {
	if h.secret == "" {
		return false
	}

	provided := r.URL.Query().Get("secret")
	if provided == "" {
		auth := r.Header.Get("Authorization")
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			provided = strings.TrimSpace(token)
		}
	}
	if provided == "" {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(provided), []byte(h.secret)) == 1
}
