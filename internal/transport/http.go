package transport

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wardadevcode/buildwise-backend/internal/auth"
	"github.com/wardadevcode/buildwise-backend/internal/domain/estimate"
	"github.com/wardadevcode/buildwise-backend/internal/domain/invoice"
	"github.com/wardadevcode/buildwise-backend/internal/domain/project"
	"github.com/wardadevcode/buildwise-backend/internal/domain/timeline"
	"github.com/wardadevcode/buildwise-backend/internal/workflow"
)

// Deps are the services behind the HTTP API.
type Deps struct {
	Engine    *workflow.Engine
	Projects  *project.Service
	Estimates *estimate.Service
	Invoices  *invoice.Service
	Timeline  *timeline.Service
	Resolver  auth.Resolver
	Logger    *slog.Logger
	// MCP is mounted at /mcp when set. It authenticates its own requests.
	MCP http.Handler
}

// Server wires HTTP handlers.
type Server struct {
	Deps
}

// NewServer creates the HTTP router with middleware.
func NewServer(deps Deps) *chi.Mux {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	srv := &Server{Deps: deps}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", srv.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(ActorMiddleware(deps.Resolver))

		r.Route("/api/v1", func(r chi.Router) {
			r.Route("/projects", func(r chi.Router) {
				r.Get("/", srv.listProjects)
				r.Post("/", srv.createProject)
				r.Route("/{projectID}", func(r chi.Router) {
					r.Get("/", srv.getProject)
					r.Patch("/", srv.updateProject)
					r.Delete("/", srv.deleteProject)
					r.Put("/adjuster", srv.assignAdjuster)
					r.Post("/status", srv.setStatus)
					r.Get("/timeline", srv.listTimeline)
					r.Get("/estimates", srv.listEstimates)
					r.Post("/estimates", srv.createOriginal)
					r.Post("/approve", srv.approveEstimate)
					r.Post("/change-orders", srv.submitChangeOrder)
					r.Get("/documents", srv.listDocuments)
					r.Post("/documents", srv.uploadDocument)
					r.Get("/summary", srv.summary)
				})
			})
			r.Get("/estimates/{estimateID}", srv.getEstimate)
			r.Route("/invoices", func(r chi.Router) {
				r.Get("/", srv.listInvoices)
				r.Post("/", srv.createInvoice)
				r.Route("/{invoiceID}", func(r chi.Router) {
					r.Get("/", srv.getInvoice)
					r.Patch("/", srv.updateInvoice)
					r.Delete("/", srv.deleteInvoice)
					r.Post("/overdue", srv.markOverdue)
					r.Post("/pay", srv.payInvoice)
				})
			})
		})
	})

	if deps.MCP != nil {
		r.Handle("/mcp", deps.MCP)
		r.Handle("/mcp/*", deps.MCP)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// page reads limit and offset query parameters.
func page(r *http.Request) (limit, offset int, err error) {
	if limit, err = intParam(r, "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = intParam(r, "offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, badRequest("%s must be a non-negative integer", name)
	}
	return n, nil
}

// listParam accepts both repeated and comma-separated values.
func listParam(r *http.Request, name string) []string {
	var out []string
	for _, v := range r.URL.Query()[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
