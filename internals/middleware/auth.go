package middle

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"uptimeline/internals/security"
	"uptimeline/pkg/apperror"
	"uptimeline/pkg/utils"

	"github.com/go-chi/chi/v5/middleware"
)

type userCtxKeyType struct{}

var userCtxKey = userCtxKeyType{}

type AuthMiddleware struct {
	tokenSvc *security.TokenService
}

func NewAuthMiddleware(tokenSvc *security.TokenService) *AuthMiddleware {
	return &AuthMiddleware{
		tokenSvc: tokenSvc,
	}
}

// Handle validates the bearer token and stores its claims in the request
// context.
func (a *AuthMiddleware) Handle(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetReqID(r.Context())

		token, err := extractBearerToken(r)
		if err != nil {
			utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, err.Error())
			return
		}

		claims, err := a.tokenSvc.ValidateAccessToken(token)
		if err != nil {
			utils.FromAppError(w, reqID, err)
			return
		}

		if claims.UserID == "" {
			utils.WriteError(w, http.StatusUnauthorized, reqID, apperror.Unauthorised, "user is unauthorised")
			return
		}

		ctx := context.WithValue(r.Context(), userCtxKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	}

	return http.HandlerFunc(fn)
}

func extractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")

	if authHeader == "" {
		return "", errors.New("missing Authorization header")
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", errors.New("invalid Authorization header")
	}

	return token, nil
}

func UserFromContext(ctx context.Context) (*security.RequestClaims, bool) {
	claims, ok := ctx.Value(userCtxKey).(*security.RequestClaims)
	return claims, ok
}

// WithUser returns a copy of ctx carrying claims.
func WithUser(ctx context.Context, claims *security.RequestClaims) context.Context {
	return context.WithValue(ctx, userCtxKey, claims)
}
