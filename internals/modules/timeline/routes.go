package timeline

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.GetTimeline)

	return r
}

/*
- GET: /monitors/{monitorID}/timeline?dateRangeStart={}&dateRangeEnd={}
	req auth : true, scope timeline:read
	body : nil
	resp : TimelineResponse, events ordered by end descending
*/
