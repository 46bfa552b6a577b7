// Package server exposes the stored corpus over HTTP: a JSON API for
// article consumers, a small HTML reader, and run triggers for the
// ingestion passes.
package server

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"

	"newslens/internal/pipeline"
	"newslens/internal/store"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

var md = goldmark.New()

// Runner executes one ingestion pass on demand.
type Runner interface {
	Run(ctx context.Context) (*pipeline.Report, error)
}

// Server serves the article corpus and ingestion triggers.
type Server struct {
	store   *store.Store
	runners map[string]Runner
	target  int
	pages   map[string]*template.Template
	mux     *http.ServeMux
}

// New creates a Server. runners maps pass names (baseline, topup,
// backfill) to their controllers; nil is fine for a read-only server.
func New(st *store.Store, runners map[string]Runner, target int) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone so {{define "content"}} blocks don't
	// collide across pages.
	pageNames := []string{"index.html", "article.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	if target <= 0 {
		target = 10
	}

	s := &Server{store: st, runners: runners, target: target, pages: pages, mux: http.NewServeMux()}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("/", s.handleIndex)
	s.mux.HandleFunc("/articles/", s.handleArticlePage)

	s.mux.HandleFunc("/api/articles", s.handleAPIArticles)
	s.mux.HandleFunc("/api/articles/", s.handleAPIArticle)
	s.mux.HandleFunc("/api/status", s.handleAPIStatus)
	s.mux.HandleFunc("/api/ingest/", s.handleIngest)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	category := r.URL.Query().Get("category")
	articles, err := s.store.List(category)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	categories, _ := s.store.Categories()

	s.render(w, "index.html", map[string]any{
		"Articles":   articles,
		"Categories": categories,
		"Selected":   category,
	})
}

func (s *Server) handleArticlePage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/articles/"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	article, err := s.store.GetByID(id)
	if err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if article == nil {
		http.NotFound(w, r)
		return
	}

	s.render(w, "article.html", map[string]any{
		"Article": article,
	})
}

func (s *Server) handleAPIArticles(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	articles, err := s.store.List(category)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "listing articles failed")
		return
	}
	if articles == nil {
		articles = []store.Article{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"articles": articles,
		"count":    len(articles),
	})
}

func (s *Server) handleAPIArticle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/api/articles/"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid article id")
		return
	}

	article, err := s.store.GetByID(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "loading article failed")
		return
	}
	if article == nil {
		writeError(w, http.StatusNotFound, "article not found")
		return
	}
	writeJSON(w, http.StatusOK, article)
}

func (s *Server) handleAPIStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "counting articles failed")
		return
	}
	categories, _ := s.store.Categories()
	if categories == nil {
		categories = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totalArticles": count,
		"target":        s.target,
		"targetReached": count >= s.target,
		"categories":    categories,
	})
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	pass := strings.TrimPrefix(r.URL.Path, "/api/ingest/")
	runner, ok := s.runners[pass]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown ingestion pass: "+pass)
		return
	}

	report, err := runner.Run(r.Context())
	if err != nil {
		log.Printf("ingestion pass %s failed: %v", pass, err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		log.Printf("Template %s not found", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Error rendering template %s: %v", name, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(buf.String()) //nolint: gosec
}

// Serve starts the HTTP server on the given port.
func Serve(st *store.Store, runners map[string]Runner, target, port int) error {
	srv, err := New(st, runners, target)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	log.Printf("Server listening on http://%s", addr)
	return http.ListenAndServe(addr, srv.Handler())
}
