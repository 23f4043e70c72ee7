package shell

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/vango-dev/navshell/internal/errors"
	"github.com/vango-dev/navshell/pkg/history"
	"github.com/vango-dev/navshell/pkg/nav"
)

//go:embed shell.html
var shellHTML string

//go:embed shell.js
var shellJS []byte

var shellTemplate = template.Must(template.New("shell").Parse(shellHTML))

type shellData struct {
	Title      string
	Base       string
	SocketPath string
	Route      *history.RouteState
}

// resolve matches a request URI against the table without a live browser.
// The URI is read through the base path like a browser location would be.
func (s *Server) resolve(requestURI string) (*nav.ActiveRoute, error) {
	r := nav.New(nav.WithLogger(s.logger), nav.WithMetrics(s.metrics))
	if err := r.Attach(s.table, history.WithBase(history.NewMemory(requestURI), s.base)); err != nil {
		return nil, err
	}
	ar := r.Active()
	r.Detach()
	return ar, nil
}

// handleShell serves the application page for any location under the base.
// Locations that match no route get the same page with a 404 status, so
// the browser still renders the not-found view.
func (s *Server) handleShell(w http.ResponseWriter, r *http.Request) {
	ar, err := s.resolve(r.URL.RequestURI())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	status := http.StatusOK
	if ar.NotFound() {
		status = http.StatusNotFound
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := shellTemplate.Execute(w, shellData{
		Title:      s.cfg.Name,
		Base:       s.base,
		SocketPath: s.base + s.cfg.Server.SocketPath,
		Route:      RouteStateOf(ar),
	}); err != nil {
		s.logger.Error("shell render failed", "error", err)
	}
}

func (s *Server) handleClientJS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Write(shellJS)
}

// RouteInfo describes one registered route.
type RouteInfo struct {
	Path   string   `json:"path"`
	Name   string   `json:"name,omitempty"`
	View   string   `json:"view,omitempty"`
	Params []string `json:"params,omitempty"`
}

// handleRoutes lists the route table in registration order.
func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	routes := s.table.Routes()
	out := make([]RouteInfo, len(routes))
	for i, def := range routes {
		out[i] = RouteInfo{Path: def.Path, Name: def.Name, Params: def.ParamNames()}
		if def.View != nil {
			out[i].View = fmt.Sprint(def.View)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleResolve reports what a location resolves to:
// GET /_resolve?location=/user/42
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")
	if location == "" {
		location = "/"
	}

	ar, err := s.resolveLocation(location)
	if err != nil {
		coded := errors.Classify(err)
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"code":  coded.Code,
			"error": coded.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, RouteStateOf(ar))
}

// resolveLocation resolves an application-relative location, rejecting
// anything a navigation would reject.
func (s *Server) resolveLocation(location string) (*nav.ActiveRoute, error) {
	r := nav.New(nav.WithLogger(s.logger))
	if err := r.Attach(s.table, history.NewMemory("/")); err != nil {
		return nil, err
	}
	defer r.Detach()

	if err := r.Navigate(location); err != nil {
		return nil, err
	}
	return r.Active(), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
