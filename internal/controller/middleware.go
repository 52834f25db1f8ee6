package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/therapy_booking/internal/model"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

type principalKey struct{}

// PrincipalFrom возвращает пользователя запроса, nil для анонимного
func PrincipalFrom(ctx context.Context) *model.Principal {
	p, _ := ctx.Value(principalKey{}).(*model.Principal)
	return p
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// authenticate resolves the caller through the identity service on every
// request. With required=false a missing token yields an anonymous request,
// but a present and invalid one is still rejected.
func (c *Controller) authenticate(required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if required {
					c.writeError(w, r, model.ErrUnauthenticated, "authenticate")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			p, err := c.identity.Authenticate(r.Context(), token)
			if err != nil {
				c.writeError(w, r, err, "authenticate")
				return
			}

			ctx := context.WithValue(r.Context(), principalKey{}, p)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requestLogger пишет одну строку zap на запрос
func (c *Controller) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Duration("duration", time.Since(start)),
		}
		if ww.Status() >= http.StatusInternalServerError {
			c.logger.Warn("Request failed", fields...)
			return
		}
		c.logger.Debug("Request completed", fields...)
	})
}

// observe записывает латентность по шаблону маршрута, а не по сырому пути
func (c *Controller) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		c.metrics.ObserveHTTP(r.Method, route, strconv.Itoa(status), time.Since(start).Seconds())
	})
}

var errMalformedBody = errors.New("malformed request body")
