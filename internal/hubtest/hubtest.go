// Package hubtest runs an in-process fake of the Docker Hub endpoints used by
// imagereport. It is shared by package tests and the CLI script tests.
package hubtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/donaldgifford/imagereport/internal/hub"
)

// Request records one request received by the fake.
type Request struct {
	Method        string
	Path          string
	Authorization string
}

// Server is a fake Docker Hub. Register content with the With* options and
// point a hub.Client at URL().
type Server struct {
	srv *httptest.Server

	mu          sync.Mutex
	repos       map[string][]hub.Repository
	tags        map[string][]hub.Tag
	present     map[string]bool
	canned      map[string]canned
	username    string
	password    string
	token       string
	requireAuth bool
	pageSize    int
	requests    []Request
}

type canned struct {
	status int
	body   string
}

// Option configures a Server.
type Option func(*Server)

// WithRepositories adds repositories to a namespace listing, in order.
func WithRepositories(namespace string, repos ...hub.Repository) Option {
	return func(s *Server) {
		s.repos[namespace] = append(s.repos[namespace], repos...)
	}
}

// WithTags adds tags to a repository's tag listing, in order. Tag names also
// answer HEAD probes.
func WithTags(namespace, repository string, tags ...hub.Tag) Option {
	return func(s *Server) {
		key := namespace + "/" + repository
		s.tags[key] = append(s.tags[key], tags...)

		for _, t := range tags {
			s.present[key+":"+t.Name] = true
		}
	}
}

// WithProbeOnly makes a tag answer HEAD probes without listing it.
func WithProbeOnly(namespace, repository, tag string) Option {
	return func(s *Server) {
		s.present[namespace+"/"+repository+":"+tag] = true
	}
}

// WithCredentials enables the login endpoint for the given pair. The issued
// token is required on listing requests that send an Authorization header.
func WithCredentials(username, password, token string) Option {
	return func(s *Server) {
		s.username = username
		s.password = password
		s.token = token
	}
}

// WithRequiredAuth rejects listing requests that carry no valid token.
func WithRequiredAuth() Option {
	return func(s *Server) {
		s.requireAuth = true
	}
}

// WithPageSize overrides the page_size requested by clients.
func WithPageSize(n int) Option {
	return func(s *Server) {
		s.pageSize = n
	}
}

// WithFailure makes the given path answer with status and an empty body.
func WithFailure(path string, status int) Option {
	return func(s *Server) {
		s.canned[path] = canned{status: status}
	}
}

// WithRawBody makes the given path answer 200 with body verbatim.
func WithRawBody(path, body string) Option {
	return func(s *Server) {
		s.canned[path] = canned{status: http.StatusOK, body: body}
	}
}

// New starts a fake hub. Call Close when done.
func New(opts ...Option) *Server {
	s := &Server{
		repos:   make(map[string][]hub.Repository),
		tags:    make(map[string][]hub.Tag),
		present: make(map[string]bool),
		canned:  make(map[string]canned),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.srv = httptest.NewServer(s.routes())

	return s
}

// URL returns the API root, equivalent to https://hub.docker.com/v2.
func (s *Server) URL() string {
	return s.srv.URL + "/v2"
}

// Client returns an HTTP client for the fake.
func (s *Server) Client() *http.Client {
	return s.srv.Client()
}

// Close shuts the server down.
func (s *Server) Close() {
	s.srv.Close()
}

// Requests returns a copy of the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Request, len(s.requests))
	copy(out, s.requests)

	return out
}

// CountRequests returns how many requests matched method and path.
func (s *Server) CountRequests(method, path string) int {
	n := 0

	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}

	return n
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Route("/v2", func(r chi.Router) {
		r.Post("/users/login", s.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(s.authorize)
			r.Get("/repositories/{namespace}/", s.handleRepositories)
			r.Get("/repositories/{namespace}/{name}/tags/", s.handleTags)
		})

		r.Head("/repositories/{namespace}/{name}/tags/{tag}", s.handleProbe)
	})

	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
		})
		c, ok := s.canned[r.URL.Path]
		s.mu.Unlock()

		if ok {
			w.WriteHeader(c.status)
			_, _ = w.Write([]byte(c.body))

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")

		switch {
		case auth == "" && !s.requireAuth:
		case s.token != "" && auth == "Bearer "+s.token:
		default:
			http.Error(w, `{"detail":"unauthorized"}`, http.StatusUnauthorized)

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	if s.username == "" || body.Username != s.username || body.Password != s.password {
		http.Error(w, `{"detail":"Incorrect authentication credentials"}`, http.StatusUnauthorized)

		return
	}

	writeJSON(w, map[string]string{"token": s.token})
}

func (s *Server) handleRepositories(w http.ResponseWriter, r *http.Request) {
	ns := chi.URLParam(r, "namespace")

	s.mu.Lock()
	items := s.repos[ns]
	s.mu.Unlock()

	writePage(w, r, s.effectivePageSize(r), items)
}

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "namespace") + "/" + chi.URLParam(r, "name")

	s.mu.Lock()
	items, ok := s.tags[key]
	s.mu.Unlock()

	if !ok {
		http.Error(w, `{"message":"object not found"}`, http.StatusNotFound)

		return
	}

	writePage(w, r, s.effectivePageSize(r), items)
}

func (s *Server) handleProbe(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "namespace") + "/" + chi.URLParam(r, "name") + ":" + chi.URLParam(r, "tag")

	s.mu.Lock()
	ok := s.present[key]
	s.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)

		return
	}

	w.WriteHeader(http.StatusOK)
}

func (s *Server) effectivePageSize(r *http.Request) int {
	if s.pageSize > 0 {
		return s.pageSize
	}

	if n, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil && n > 0 {
		return n
	}

	return 10
}

func writePage[T any](w http.ResponseWriter, r *http.Request, size int, items []T) {
	pageNum, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || pageNum < 1 {
		pageNum = 1
	}

	start := min((pageNum-1)*size, len(items))
	end := min(start+size, len(items))

	var next *string
	if end < len(items) {
		u := fmt.Sprintf("http://%s%s?page=%d&page_size=%d", r.Host, r.URL.Path, pageNum+1, size)
		next = &u
	}

	results := items[start:end]
	if results == nil {
		results = []T{}
	}

	writeJSON(w, map[string]any{
		"count":    len(items),
		"next":     next,
		"previous": nil,
		"results":  results,
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
