package checks

import (
	"encoding/json"
	"net/http"
	"time"
	"uptimeline/pkg/apperror"
	"uptimeline/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const maxIngestBody = 1 << 20

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service, validator *validator.Validate) *Handler {
	return &Handler{
		service:   service,
		validator: validator,
	}
}

// POST /monitors/{monitorID}/checks
func (h *Handler) IngestChecks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	monitorID, err := uuid.Parse(chi.URLParam(r, "monitorID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return
	}

	var req IngestChecksRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxIngestBody)).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "malformed request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, err.Error())
		return
	}

	checks := make([]CheckResult, 0, len(req.Checks))
	for _, item := range req.Checks {
		checks = append(checks, toCheckResult(item))
	}

	eventID, err := h.service.Submit(ctx, monitorID, checks)
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON(w, http.StatusAccepted, reqID, utils.ChecksAccepted, IngestChecksResponse{
		MonitorID: monitorID.String(),
		EventID:   eventID.String(),
		Accepted:  len(checks),
	})
}

func toCheckResult(item CheckItem) CheckResult {
	var id uuid.UUID
	if item.ID != "" {
		// already validated as a uuid
		id = uuid.MustParse(item.ID)
	}
	return CheckResult{
		ID:           id,
		Location:     item.Location,
		SegmentStart: item.SegmentStart,
		CheckedAt:    item.CheckedAt,
		Up:           item.Up,
		Down:         item.Down,
		Interval:     time.Duration(item.IntervalMs) * time.Millisecond,
	}
}
