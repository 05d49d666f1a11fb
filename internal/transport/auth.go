package transport

import (
	"net/http"
	"strings"

	"github.com/wardadevcode/buildwise-backend/internal/auth"
	"github.com/wardadevcode/buildwise-backend/internal/domain/actor"
)

// ActorMiddleware resolves the bearer token to an actor and stores it in the
// request context. The token may be empty; the resolver decides.
func ActorMiddleware(resolver auth.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

			a, err := resolver.Resolve(r.Context(), token)
			if err != nil {
				WriteError(w, auth.ErrUnauthorized)
				return
			}

			noteActor(r.Context(), a)
			next.ServeHTTP(w, r.WithContext(actor.WithActor(r.Context(), a)))
		})
	}
}

// actorFrom returns the request's actor. Routes are only reachable through
// ActorMiddleware, so a missing actor means an unauthenticated request.
func actorFrom(r *http.Request) (actor.Actor, error) {
	a, ok := actor.FromContext(r.Context())
	if !ok {
		return actor.Actor{}, auth.ErrUnauthorized
	}
	return a, nil
}
