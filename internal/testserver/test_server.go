// Package testserver starts the full HTTP and MCP stack over an in-memory
// SQLite database for end-to-end tests.
package testserver

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wardadevcode/buildwise-backend/internal/app"
	"github.com/wardadevcode/buildwise-backend/internal/auth"
	"github.com/wardadevcode/buildwise-backend/internal/config"
	"github.com/wardadevcode/buildwise-backend/internal/domain/actor"
	"github.com/wardadevcode/buildwise-backend/internal/mcp"
	"github.com/wardadevcode/buildwise-backend/internal/sqlite"
	"github.com/wardadevcode/buildwise-backend/internal/transport"
)

// TestServer is a running server with API-key authentication enabled.
type TestServer struct {
	Server *httptest.Server
	DB     *sqlite.DB
	App    *app.App
	Store  *app.Store
}

// Option adjusts the configuration before the stack is built.
type Option func(cfg *config.Config, opts *app.Options)

// New starts a server. Callers create tokens with AddAPIKey.
func New(t *testing.T, options ...Option) *TestServer {
	t.Helper()

	db, err := sqlite.OpenInMemory()
	require.NoError(t, err)
	store := app.NewSQLiteStore(db)

	cfg := config.Default()
	cfg.Auth.Enabled = true
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Blob.Dir = t.TempDir()
	cfg.Blob.BaseURL = ""
	var opts app.Options
	for _, o := range options {
		o(&cfg, &opts)
	}

	a, err := app.New(&cfg, store, nil, opts)
	require.NoError(t, err)

	mcpServer := mcp.NewServer(mcp.Config{
		Services: mcp.Services{
			Engine:    a.Engine,
			Projects:  a.Projects,
			Estimates: a.Estimates,
			Invoices:  a.Invoices,
			Timeline:  a.Timeline,
		},
		Resolver: a.Resolver,
	})
	router := transport.NewServer(transport.Deps{
		Engine:    a.Engine,
		Projects:  a.Projects,
		Estimates: a.Estimates,
		Invoices:  a.Invoices,
		Timeline:  a.Timeline,
		Resolver:  a.Resolver,
		MCP:       mcp.NewHTTPHandler(mcpServer),
	})
	server := httptest.NewServer(router)

	t.Cleanup(func() {
		server.Close()
		_ = store.Close()
	})

	return &TestServer{Server: server, DB: db, App: a, Store: store}
}

// AddAPIKey issues an API key for a and returns the token.
func (ts *TestServer) AddAPIKey(t *testing.T, a actor.Actor) string {
	t.Helper()
	token, err := auth.IssueAPIKey(context.Background(), ts.Store.APIKeys, a, "test")
	require.NoError(t, err)
	return token
}

// URL returns the absolute URL of path.
func (ts *TestServer) URL(path string) string {
	return ts.Server.URL + path
}
