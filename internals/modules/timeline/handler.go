package timeline

import (
	"net/http"
	"time"
	"uptimeline/pkg/apperror"
	"uptimeline/pkg/timeline"
	"uptimeline/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
	now       func() time.Time
}

func NewHandler(service *Service, validator *validator.Validate) *Handler {
	return &Handler{
		service:   service,
		validator: validator,
		now:       time.Now,
	}
}

// GET /monitors/{monitorID}/timeline?dateRangeStart=now-24h&dateRangeEnd=now
func (h *Handler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	reqID := middleware.GetReqID(ctx)

	monitorID, err := uuid.Parse(chi.URLParam(r, "monitorID"))
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "invalid monitor id")
		return
	}

	q := TimelineQuery{
		DateRangeStart: r.URL.Query().Get("dateRangeStart"),
		DateRangeEnd:   r.URL.Query().Get("dateRangeEnd"),
	}
	if err := h.validator.Struct(q); err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "dateRangeStart and dateRangeEnd are required")
		return
	}

	now := h.now()
	start, err := ParseDate(q.DateRangeStart, now)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "dateRangeStart: "+err.Error())
		return
	}
	end, err := ParseDate(q.DateRangeEnd, now)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, reqID, apperror.InvalidInput, "dateRangeEnd: "+err.Error())
		return
	}

	res, err := h.service.GetTimeline(ctx, GetTimelineCmd{MonitorID: monitorID, Start: start, End: end})
	if err != nil {
		utils.FromAppError(w, reqID, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, reqID, utils.TimelineRetrieved, TimelineResponse{
		MonitorID:    monitorID.String(),
		Start:        res.Start,
		End:          res.End,
		IntervalSlop: res.IntervalSlop,
		Cached:       res.Cached,
		Timeline:     toEventResponses(res.Events),
	})
}

func toEventResponses(events []timeline.MultiLocationEvent) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, EventResponse{
			Start:     e.Start,
			End:       e.End,
			Status:    e.Status,
			Locations: e.Locations,
			Interval:  e.Interval,
			Up:        e.Up,
			Down:      e.Down,
		})
	}
	return out
}
