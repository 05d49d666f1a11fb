package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/wardadevcode/buildwise-backend/internal/auth"
	"github.com/wardadevcode/buildwise-backend/internal/domain/actor"
)

// actorMiddleware resolves the caller on every request except protocol
// handshakes and notifications.
func actorMiddleware(resolver auth.Resolver) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			if method == "initialize" || method == "ping" || strings.HasPrefix(method, "notifications/") {
				return next(ctx, method, req)
			}
			if resolver == nil {
				return nil, auth.ErrUnauthorized
			}

			var token string
			if extra := safeExtra(req); extra != nil && extra.Header != nil {
				token = strings.TrimSpace(strings.TrimPrefix(extra.Header.Get("Authorization"), "Bearer "))
			}

			a, err := resolver.Resolve(ctx, token)
			if err != nil {
				if errors.Is(err, auth.ErrUnauthorized) {
					return nil, err
				}
				return nil, fmt.Errorf("%w: %v", auth.ErrUnauthorized, err)
			}
			return next(actor.WithActor(ctx, a), method, req)
		}
	}
}

// callerFrom returns the actor attached by actorMiddleware.
func callerFrom(ctx context.Context) (actor.Actor, error) {
	a, ok := actor.FromContext(ctx)
	if !ok {
		return actor.Actor{}, auth.ErrUnauthorized
	}
	return a, nil
}

func safeExtra(req sdkmcp.Request) (extra *sdkmcp.RequestExtra) {
	if req == nil {
		return nil
	}
	defer func() {
		if recover() != nil {
			extra = nil
		}
	}()
	return req.GetExtra()
}
