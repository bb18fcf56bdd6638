package checks

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.IngestChecks)

	return r
}

/*
- POST: /monitors/{monitorID}/checks -> queue a batch of check results
	req auth : X-Agent-Key
	body : IngestChecksRequest
	resp : 202 IngestChecksResponse
*/
