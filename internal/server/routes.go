package server

import (
	"net/http"
	"strings"

	"github.com/ternarybob/remix/internal/handlers"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route (progress events)
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Source jobs
	mux.HandleFunc("/api/sources", s.handleSourcesRoute) // GET (list), POST (create)
	mux.HandleFunc("/api/sources/", s.handleSourceRoutes)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleSourcesRoute routes /api/sources requests (list and create)
func (s *Server) handleSourcesRoute(w http.ResponseWriter, r *http.Request) {
	RouteByMethod(w, r, MethodRouter{
		"GET":  s.app.SourceHandler.ListSourcesHandler,
		"POST": s.limited(s.limits.create, s.app.SourceHandler.CreateSourceHandler),
	})
}

// handleSourceRoutes routes /api/sources/upload and /api/sources/{id}
// requests, including the regenerate and export sub-resources.
func (s *Server) handleSourceRoutes(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sources/")

	if path == "upload" {
		RouteByMethod(w, r, MethodRouter{
			"POST": s.limited(s.limits.upload, s.app.SourceHandler.UploadSourceHandler),
		})
		return
	}

	parts := strings.SplitN(path, "/", 2)
	id := parts[0]
	if id == "" {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}

	if len(parts) == 1 {
		RouteByMethod(w, r, MethodRouter{
			"GET": func(w http.ResponseWriter, r *http.Request) {
				s.app.SourceHandler.GetSourceHandler(w, r, id)
			},
			"DELETE": func(w http.ResponseWriter, r *http.Request) {
				s.app.SourceHandler.DeleteSourceHandler(w, r, id)
			},
		})
		return
	}

	switch parts[1] {
	case "regenerate":
		RouteByMethod(w, r, MethodRouter{
			"POST": s.limited(s.limits.regen, func(w http.ResponseWriter, r *http.Request) {
				s.app.SourceHandler.RegenerateHandler(w, r, id)
			}),
		})
	case "export":
		RouteByMethod(w, r, MethodRouter{
			"GET": func(w http.ResponseWriter, r *http.Request) {
				s.app.SourceHandler.ExportHandler(w, r, id)
			},
		})
	default:
		s.app.APIHandler.NotFoundHandler(w, r)
	}
}

// RouteHandler is a function type for HTTP handlers
type RouteHandler func(http.ResponseWriter, *http.Request)

// MethodRouter maps HTTP methods to handlers
type MethodRouter map[string]RouteHandler

// RouteByMethod routes requests based on HTTP method with standardized error handling
func RouteByMethod(w http.ResponseWriter, r *http.Request, routes MethodRouter) {
	handler, ok := routes[r.Method]
	if !ok {
		handlers.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
		return
	}
	handler(w, r)
}
