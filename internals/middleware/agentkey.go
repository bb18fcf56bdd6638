package middle

import (
	"net/http"
	"uptimeline/pkg/apperror"
	"uptimeline/pkg/utils"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const AgentKeyHeader = "X-Agent-Key"

type AgentKeyVerifier interface {
	Verify(key string) (bool, error)
}

// AgentKey admits probe agents that present a valid key in X-Agent-Key.
func AgentKey(verifier AgentKeyVerifier, log *zerolog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			reqID := middleware.GetReqID(r.Context())

			ok, err := verifier.Verify(r.Header.Get(AgentKeyHeader))
			if err != nil {
				log.Error().Err(err).Str("request_id", reqID).Msg("agent key verification failed")
			}
			if !ok {
				utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "invalid agent key")
				return
			}

			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}
