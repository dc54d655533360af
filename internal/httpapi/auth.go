package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Claim names that may carry the numeric user id, in lookup order.
var userIDClaims = []string{"userId", "sub", "id"}

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrNoUserClaim  = errors.New("token carries no user id")
)

type ctxKey struct{}

// UserIDFrom returns the authenticated user id stored by Authenticator.
func UserIDFrom(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok
}

// WithUserID stores an authenticated user id in ctx.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, userID)
}

// Authenticator validates HS256 bearer tokens issued by the auth service.
type Authenticator struct {
	secret []byte
	logger *slog.Logger
}

// NewAuthenticator decodes the shared base64 secret.
func NewAuthenticator(base64Secret string, logger *slog.Logger) (*Authenticator, error) {
	base64Secret = strings.TrimSpace(base64Secret)
	if base64Secret == "" {
		return nil, errors.New("jwt secret is empty")
	}
	secret, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("decode jwt secret: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{secret: secret, logger: logger}, nil
}

// UserID validates the token and extracts the user id.
func (a *Authenticator) UserID(tokenString string) (int64, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v (only HS256 allowed)", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithJSONNumber())
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}

	for _, name := range userIDClaims {
		raw, present := claims[name]
		if !present {
			continue
		}
		if id, ok := toUserID(raw); ok {
			return id, nil
		}
		return 0, fmt.Errorf("%w: claim %q is not an integer", ErrNoUserClaim, name)
	}
	return 0, ErrNoUserClaim
}

// Middleware rejects requests without a valid bearer token and stores the
// user id in the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r)
		if err == nil {
			var userID int64
			userID, err = a.UserID(tokenString)
			if err == nil {
				next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
				return
			}
		}

		a.logger.Warn("authentication failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusUnauthorized, msgUnauthorized)
	})
}

func bearerToken(r *http.Request) (string, error) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(parts[1]), nil
}

// toUserID accepts a JSON number or a numeric string.
func toUserID(raw any) (int64, bool) {
	switch v := raw.(type) {
	case json.Number:
		if id, err := v.Int64(); err == nil {
			return id, true
		}
		f, err := v.Float64()
		if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return id, err == nil
	default:
		return 0, false
	}
}
