package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/vango-dev/routetable/pkg/router"
)

// layerView is the JSON form of a router.Layer.
type layerView struct {
	Route     string            `json:"route"`
	Name      string            `json:"name,omitempty"`
	Component string            `json:"component"`
	Chunk     string            `json:"chunk,omitempty"`
	Params    map[string]string `json:"params,omitempty"`
	Props     map[string]string `json:"props,omitempty"`
}

// resolveView is the JSON form of a resolution or chase.
type resolveView struct {
	Path      string            `json:"path"`
	Kind      string            `json:"kind"`
	Route     string            `json:"route,omitempty"`
	Query     string            `json:"query,omitempty"`
	Params    map[string]string `json:"params,omitempty"`
	Layers    []layerView       `json:"layers,omitempty"`
	Redirect  string            `json:"redirect,omitempty"`
	Trail     []string          `json:"trail,omitempty"`
	Redirects int               `json:"redirects,omitempty"`
	Error     string            `json:"error,omitempty"`
}

func (s *Server) resultView(res router.Result) resolveView {
	v := resolveView{
		Path:     res.Path,
		Kind:     res.Kind.String(),
		Route:    res.Route,
		Query:    res.Query,
		Params:   res.Params,
		Redirect: res.Redirect,
	}
	for _, l := range res.Layers {
		name := l.Component.Name()
		v.Layers = append(v.Layers, layerView{
			Route:     l.Route,
			Name:      l.Name,
			Component: name,
			Chunk:     s.chunkURL(name),
			Params:    l.Params,
			Props:     l.Props,
		})
	}
	return v
}

func (s *Server) chaseView(c router.ChaseResult) resolveView {
	v := s.resultView(c.Result)
	v.Trail = c.Trail
	v.Redirects = c.Redirects
	if c.Err != nil {
		v.Error = c.Err.Error()
	}
	return v
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.table.Routes())
}

// handleResolve answers GET /api/resolve?path=/mypage&chase=1.
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := q.Get("path")
	if p == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing path parameter"})
		return
	}

	chase := false
	if raw := q.Get("chase"); raw != "" {
		var err error
		chase, err = strconv.ParseBool(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid chase parameter"})
			return
		}
	}

	if chase {
		writeJSON(w, http.StatusOK, s.chaseView(s.table.Chase(p)))
		return
	}
	writeJSON(w, http.StatusOK, s.resultView(s.table.Resolve(p)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
