package server

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"fundacion/internal"
	"fundacion/pkg/types"

	"github.com/sirupsen/logrus"
)

type contextKey string

const (
	contextKeyUser contextKey = "user"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		elapsed := time.Since(started)
		s.metrics.ObserveRequest(r.Method, routeLabel(r), rw.statusCode, elapsed)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": elapsed.Milliseconds(),
		}).Info("http request")
	})
}

// routeLabel collapses path parameters so metric cardinality stays bounded.
func routeLabel(r *http.Request) string {
	if strings.HasPrefix(r.URL.Path, "/static/") {
		return "/static"
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "projects" {
		parts[1] = ":id"
	}
	if len(parts) >= 3 && parts[0] == "admin" && parts[2] != "new" {
		parts[2] = ":id"
	}
	return "/" + strings.Join(parts, "/")
}

// RequireAuth verifies the access token cookie and loads the caller's user
// record, creating it with the donator role on first sight.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		cookie, err := r.Cookie(internal.COOKIE_ACCESS_TOKEN_NAME)
		if err != nil {
			s.logger.WithError(err).Debug("no access token cookie found")

			if r.Method == http.MethodGet {
				s.setRedirectCookie(w, r.URL.Path, time.Minute*5)
			}

			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		var accessToken string
		err = s.cookie.Decode(internal.COOKIE_ACCESS_TOKEN_NAME, cookie.Value, &accessToken)
		if err != nil {
			s.logger.WithError(err).Error("failed to decrypt access token")
			s.clearAccessCookie(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		identity, err := s.tokens.Verify(ctx, accessToken)
		if err != nil {
			s.logger.WithError(err).Warn("access token rejected")
			s.clearAccessCookie(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		user, err := s.loadUser(ctx, identity)
		if err != nil {
			s.logger.WithError(err).WithField("user_id", identity.UserID).Error("failed to load user")
			s.internalServerError(w)
			return
		}

		s.logger.WithFields(logrus.Fields{
			"user_id": user.ID,
			"role":    user.Role,
		}).Debug("authenticated user")

		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, contextKeyUser, user)))
	})
}

func (s *Service) loadUser(ctx context.Context, identity *Identity) (*types.User, error) {
	user, err := s.users.User(ctx, identity.UserID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, types.ErrUserNotFound) {
		return nil, err
	}

	err = s.users.UpsertIdentity(ctx, identity.UserID, identity.Email, identity.GivenName, identity.FamilyName)
	if err != nil {
		return nil, err
	}

	return s.users.User(ctx, identity.UserID)
}

// RequireRole must run after RequireAuth.
func (s *Service) RequireRole(roles ...types.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := userFromContext(r.Context())
			if !ok {
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			if !slices.Contains(roles, user.Role) {
				s.logger.WithFields(logrus.Fields{
					"user_id": user.ID,
					"role":    user.Role,
					"path":    r.URL.Path,
				}).Warn("role not allowed")
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (s *Service) StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path != "/" && strings.HasSuffix(path, "/") {
			newURL := *r.URL
			newURL.Path = strings.TrimSuffix(path, "/")

			http.Redirect(w, r, newURL.String(), http.StatusMovedPermanently)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func userFromContext(ctx context.Context) (*types.User, bool) {
	user, ok := ctx.Value(contextKeyUser).(*types.User)
	return user, ok && user != nil
}
