package mcp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/wardadevcode/buildwise-backend/internal/auth"
	"github.com/wardadevcode/buildwise-backend/internal/domain/actor"
	"github.com/wardadevcode/buildwise-backend/internal/domain/estimate"
	"github.com/wardadevcode/buildwise-backend/internal/domain/invoice"
	"github.com/wardadevcode/buildwise-backend/internal/domain/project"
	"github.com/wardadevcode/buildwise-backend/internal/domain/timeline"
	"github.com/wardadevcode/buildwise-backend/internal/workflow"
)

// Engine defines the workflow operations exposed as tools.
type Engine interface {
	CreateProject(ctx context.Context, a actor.Actor, req project.CreateRequest) (*project.Project, error)
	UpdateProject(ctx context.Context, a actor.Actor, projectID string, req project.UpdateRequest) (*project.Project, error)
	AssignAdjuster(ctx context.Context, a actor.Actor, projectID, adjusterID string) (*project.Project, error)
	SetStatus(ctx context.Context, a actor.Actor, projectID string, status project.Status) (*project.Project, error)
	CreateOriginal(ctx context.Context, a actor.Actor, d estimate.Draft) (*workflow.EstimateResult, error)
	ApproveEstimate(ctx context.Context, a actor.Actor, projectID string) (*project.Project, error)
	SubmitChangeOrder(ctx context.Context, a actor.Actor, d estimate.Draft) (*workflow.EstimateResult, error)
	CreateInvoice(ctx context.Context, a actor.Actor, d invoice.Draft) (*invoice.Invoice, error)
	MarkInvoiceOverdue(ctx context.Context, a actor.Actor, invoiceID string) (*invoice.Invoice, error)
	Summary(ctx context.Context, a actor.Actor, projectID string) (*workflow.ProjectSummary, error)
}

// ProjectService defines project reads needed by MCP.
type ProjectService interface {
	Get(ctx context.Context, a actor.Actor, id string) (*project.Project, error)
	List(ctx context.Context, a actor.Actor, opts project.ListOptions) ([]project.Project, error)
}

// EstimateService defines estimate reads needed by MCP.
type EstimateService interface {
	List(ctx context.Context, a actor.Actor, projectID string) ([]estimate.Estimate, error)
}

// InvoiceService defines invoice reads needed by MCP.
type InvoiceService interface {
	List(ctx context.Context, a actor.Actor, opts invoice.ListOptions) ([]invoice.Invoice, error)
}

// TimelineService defines ledger reads needed by MCP.
type TimelineService interface {
	Query(ctx context.Context, projectID string, opts timeline.ListOptions) ([]timeline.Event, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Engine    Engine
	Projects  ProjectService
	Estimates EstimateService
	Invoices  InvoiceService
	Timeline  TimelineService
}

// Config contains server configuration.
type Config struct {
	Services Services
	// Resolver authenticates each request. Stdio servers pass a resolver
	// that ignores the empty token, such as auth.StaticResolver.
	Resolver auth.Resolver
	Version  string
	Logger   *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}

	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "buildwise",
		Version: cfg.Version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(actorMiddleware(cfg.Resolver))
	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Services)

	return server
}

// NewHTTPHandler serves server over the streamable HTTP transport.
func NewHTTPHandler(server *sdkmcp.Server) http.Handler {
	return sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return server },
		&sdkmcp.StreamableHTTPOptions{SessionTimeout: 30 * time.Minute},
	)
}
