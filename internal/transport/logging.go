package transport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/wardadevcode/buildwise-backend/internal/domain/actor"
)

// RequestLogger logs one line per request.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			// The actor is attached further down the chain; capture it on the way out.
			var actorID string
			next.ServeHTTP(ww, r.WithContext(withActorSink(r.Context(), &actorID)))

			level := slog.LevelInfo
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			logger.Log(r.Context(), level, "http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"actor_id", actorID,
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

type actorSinkKey struct{}

func withActorSink(ctx context.Context, sink *string) context.Context {
	return context.WithValue(ctx, actorSinkKey{}, sink)
}

// noteActor reports the resolved actor to an enclosing RequestLogger.
func noteActor(ctx context.Context, a actor.Actor) {
	if sink, ok := ctx.Value(actorSinkKey{}).(*string); ok {
		*sink = a.ID
	}
}
