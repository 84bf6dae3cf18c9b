// Package server exposes the content resolution subsystem over HTTP: preview
// and fragment endpoints for pop-frame orchestrators, load triggering, cache
// status, an SSE event stream, and the error-log ingestion endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jthornhill/popframe/internal/content"
	"github.com/jthornhill/popframe/internal/errlog"
	"github.com/jthornhill/popframe/internal/transclude"
)

type Server struct {
	loader   *content.Loader
	resolver *transclude.Resolver
	errors   *errlog.Store
	relay    *Relay

	httpServer *http.Server
}

func New(addr string, loader *content.Loader, resolver *transclude.Resolver, errorStore *errlog.Store) *Server {
	s := &Server{
		loader:   loader,
		resolver: resolver,
		errors:   errorStore,
		relay:    NewRelay(loader.Hub()),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/preview", s.handlePreview)
	r.Get("/api/fragment", s.handleFragment)
	r.Post("/api/load", s.handleLoad)
	r.Get("/api/status", s.handleStatus)
	r.Get("/api/events", s.relay.ServeHTTP)
	r.Get("/api/errors", s.handleErrors)
	r.Get("/api/log", s.handleLogReport)

	s.httpServer = &http.Server{Addr: addr, Handler: r}
	return s
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	log.Printf("server: listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.relay.Close()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// linkFromRequest builds the Link a query describes: the target url plus
// repeatable class flags and the optional anchor-target override.
func linkFromRequest(r *http.Request) (*content.Link, error) {
	raw := r.URL.Query().Get("url")
	if raw == "" {
		return nil, fmt.Errorf("missing url parameter")
	}
	link, err := content.ParseLink(raw, r.URL.Query()["class"]...)
	if err != nil {
		return nil, err
	}
	link.TargetID = r.URL.Query().Get("target")
	return link, nil
}

type previewResponse struct {
	Key string `json:"key"`
	*content.ReferenceData
	ContentHTML string `json:"contentHTML,omitempty"`
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	link, err := linkFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rd, err := s.loader.Resolve(r.Context(), link)
	if err != nil {
		writeLoadError(w, err)
		return
	}

	key, _ := s.loader.ResourceKey(link)
	body, err := rd.ContentHTML()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, previewResponse{Key: key, ReferenceData: rd, ContentHTML: body})
}

func (s *Server) handleFragment(w http.ResponseWriter, r *http.Request) {
	link, err := linkFromRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rd, err := s.loader.Resolve(r.Context(), link)
	if err != nil {
		writeLoadError(w, err)
		return
	}

	if rd.Content != nil {
		if err := s.resolver.Expand(r.Context(), rd.Content); err != nil {
			log.Printf("server: transclusion for %s failed: %v", link.URL, err)
		}
	}

	body, err := rd.ContentHTML()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

type loadRequest struct {
	URL     string   `json:"url"`
	Classes []string `json:"classes"`
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	link, err := content.ParseLink(req.URL, req.Classes...)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key, err := s.loader.ResourceKey(link)
	if err != nil {
		writeLoadError(w, err)
		return
	}

	if _, failure, ok := s.loader.Cache().Lookup(key); ok {
		status := "loaded"
		if failure != nil {
			status = "failed"
		}
		writeJSON(w, http.StatusOK, map[string]string{"key": key, "status": status})
		return
	}

	// Speculative load: return immediately, result arrives on the event
	// stream. The request context would die with this handler, so the
	// background load gets its own.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if _, err := s.loader.Load(ctx, link); err != nil {
			log.Printf("server: speculative load of %s: %v", key, err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"key": key, "status": "pending"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	loaded, failed := s.loader.Cache().Stats()
	writeJSON(w, http.StatusOK, map[string]any{
		"loaded":       loaded,
		"failed":       failed,
		"contentTypes": s.loader.Registry().Names(),
	})
}

func (s *Server) handleErrors(w http.ResponseWriter, r *http.Request) {
	if s.errors == nil {
		writeJSON(w, http.StatusOK, []errlog.Record{})
		return
	}
	records, err := s.errors.Recent(100)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []errlog.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// handleLogReport ingests fire-and-forget failure reports of the form
// url=<resource>--<reason>. Always answers 204: reporters never retry.
func (s *Server) handleLogReport(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("url")
	if raw != "" && s.errors != nil {
		resource, reason := splitReport(raw)
		if err := s.errors.Record(resource, reason); err != nil {
			log.Printf("server: recording failure report: %v", err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func splitReport(raw string) (resource, reason string) {
	if i := strings.LastIndex(raw, "--"); i > 0 {
		return raw[:i], raw[i+2:]
	}
	return raw, "unknown"
}

func writeLoadError(w http.ResponseWriter, err error) {
	var failure *content.LoadFailure
	switch {
	case errors.Is(err, content.ErrNoMatch):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &failure):
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error":  failure.Error(),
			"key":    failure.Key,
			"reason": string(failure.Reason),
		})
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
