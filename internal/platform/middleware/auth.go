package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	id "suratdesa/pkg/domain"
	"suratdesa/pkg/requestcontext"
)

// Claims is what the identity collaborator puts in its tokens: the subject is
// the actor's user id, Role one of the fixed actor roles. Both are trusted
// verbatim once the signature checks out.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// JWTValidator validates bearer tokens issued by the identity collaborator.
type JWTValidator struct {
	signingKey []byte
}

func NewJWTValidator(signingKey string) *JWTValidator {
	return &JWTValidator{signingKey: []byte(signingKey)}
}

func (v *JWTValidator) Validate(tokenString string) (id.UserID, id.Role, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.signingKey, nil
	})
	if err != nil {
		return id.UserID{}, "", fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return id.UserID{}, "", fmt.Errorf("invalid token")
	}

	userID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		return id.UserID{}, "", fmt.Errorf("invalid subject: %w", err)
	}
	role, err := id.ParseRole(claims.Role)
	if err != nil {
		return id.UserID{}, "", fmt.Errorf("invalid role: %w", err)
	}
	return userID, role, nil
}

// RequireAuth rejects calls without a valid bearer token and installs the
// actor identity into the request context.
func RequireAuth(validator *JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			userID, role, err := validator.Validate(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithUserID(ctx, userID)
			ctx = requestcontext.WithRole(ctx, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = fmt.Fprintf(w, `{"error":"unauthorized","error_description":%q}`, description)
}
