package handlers

import (
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"

	"github.com/ilng/roster/internal/authz"
	"github.com/ilng/roster/internal/ratelimit"
	"github.com/ilng/roster/internal/services"
	"github.com/ilng/roster/types"
)

const defaultTokenTTL = 24 * time.Hour

// AuthHandler provides JWT authentication endpoints.
type AuthHandler struct {
	auth     *services.AuthService
	limiter  ratelimit.Policy
	secret   []byte
	tokenTTL time.Duration
}

// NewAuthHandler constructs an AuthHandler. A nil limiter disables login
// rate limiting.
func NewAuthHandler(auth *services.AuthService, limiter ratelimit.Policy, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		limiter:  limiter,
		secret:   []byte(jwtSecret),
		tokenTTL: defaultTokenTTL,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	r.Post("/login", handler.Login)
	r.With(handler.RequireAuth).Post("/reset-password", handler.ResetPassword)
	r.With(handler.RequireAuth).Get("/me", handler.Me)
}

// RequireAuth verifies the bearer token, loads the user it names and
// puts that user into the request context. Tokens of deleted or
// deactivated users stop working immediately.
func (h *AuthHandler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString, err := bearerToken(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		subject, err := parseTokenSubject(tokenString, h.secret)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		user, err := h.auth.Authenticate(r.Context(), subject)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), user)))
	})
}

// Login verifies credentials and returns a JWT. Failed attempts count
// against the client address.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	key := clientIP(r)
	if h.limiter != nil {
		decision, err := h.limiter.Allow(r.Context(), key)
		if err != nil {
			log.WithError(err).WithField("client", key).Warn("rate limiter unavailable")
		} else if !decision.Allowed {
			seconds := int(math.Ceil(decision.RetryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(max(seconds, 1)))
			writeError(w, http.StatusTooManyRequests, "too many login attempts, try again later")
			return
		}
	}

	var req LoginRequest
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		h.countFailure(r, key)
		return
	}

	user, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.countFailure(r, key)
		if errors.Is(err, services.ErrInvalidCredentials) || errors.Is(err, services.ErrAccountInactive) {
			writeError(w, http.StatusUnauthorized, authFailedMessage)
			return
		}
		writeServiceError(w, r, err)
		return
	}

	token, err := issueToken(user.ID, h.secret, h.tokenTTL)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

func (h *AuthHandler) countFailure(r *http.Request, key string) {
	if h.limiter == nil {
		return
	}
	if err := h.limiter.Failure(r.Context(), key); err != nil {
		log.WithError(err).WithField("client", key).Warn("failed to count login attempt")
	}
}

// ResetPassword sets a new password for another user.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !decodeJSON(w, r, &req, maxBodyBytes) {
		return
	}
	if err := h.auth.ResetPassword(r.Context(), callerFromContext(r.Context()), req.UserID, req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Me returns the current authenticated user with its permissions.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	caller := callerFromContext(r.Context())
	if caller == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, MeResponse{
		User:        caller.Public(),
		Permissions: authz.Permissions(caller.Role),
	})
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ResetPasswordRequest struct {
	UserID      string `json:"userId"`
	NewPassword string `json:"newPassword"`
}

type AuthResponse struct {
	Token string     `json:"token"`
	User  types.User `json:"user"`
}

type MeResponse struct {
	User        types.User `json:"user"`
	Permissions []string   `json:"permissions"`
}

func issueToken(userID string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func parseTokenSubject(tokenString string, secret []byte) (string, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return secret, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("missing subject")
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}

// clientIP returns the request's remote host. middleware.RealIP has
// already replaced RemoteAddr when proxy headers are present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
