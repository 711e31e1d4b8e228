package server

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"

	"github.com/vango-dev/routetable/pkg/router"
)

var shellTemplate = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
{{range .Initial.Layers}}{{if .Chunk}}<link rel="modulepreload" href="{{.Chunk}}">
{{end}}{{end}}</head>
<body>
<div id="app" data-route="{{.Route}}" data-status="{{.Status}}"></div>
<script>window.__ROUTE__ = {{.Initial}};</script>
</body>
</html>
`))

// shell serves static assets and the app document.
type shell struct {
	assets fs.FS
	index  []byte
}

func newShell(dir string) (*shell, error) {
	if dir == "" {
		return &shell{}, nil
	}
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("static dir: %w", err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("static dir %s: not a directory", dir)
	}

	sh := &shell{assets: os.DirFS(dir)}
	index, err := fs.ReadFile(sh.assets, "index.html")
	switch {
	case err == nil:
		sh.index = index
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("static dir: %w", err)
	}
	return sh, nil
}

// asset reports whether the request names a regular file in the asset dir.
func (sh *shell) asset(r *http.Request) bool {
	if sh.assets == nil {
		return false
	}
	name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	if name == "" || name == "index.html" || !fs.ValidPath(name) {
		return false
	}
	fi, err := fs.Stat(sh.assets, name)
	return err == nil && fi.Mode().IsRegular()
}

type shellData struct {
	Title   string
	Route   string
	Status  int
	Initial resolveView
}

func (sh *shell) render(w http.ResponseWriter, status int, view resolveView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")

	if sh.index != nil {
		w.WriteHeader(status)
		_, _ = w.Write(sh.index)
		return
	}

	var buf bytes.Buffer
	err := shellTemplate.Execute(&buf, shellData{
		Title:   view.Path,
		Route:   view.Route,
		Status:  status,
		Initial: view,
	})
	if err != nil {
		http.Error(w, "shell render failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// handleShell serves assets and falls back to the app document with the
// status the route table implies for the path.
func (s *Server) handleShell(w http.ResponseWriter, r *http.Request) {
	if s.shell.asset(r) {
		http.FileServerFS(s.shell.assets).ServeHTTP(w, r)
		return
	}

	target := r.URL.EscapedPath()
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	c := s.table.Chase(target)
	view := s.chaseView(c)

	switch {
	case c.Err != nil:
		s.shell.render(w, http.StatusNotFound, view)
	case c.Redirects > 0:
		http.Redirect(w, r, location(c.Result), http.StatusFound)
	case c.Result.Kind == router.KindNoMatch:
		s.shell.render(w, http.StatusNotFound, view)
	default:
		s.shell.render(w, http.StatusOK, view)
	}
}

// location renders a result's path with its query.
func location(res router.Result) string {
	if res.Query == "" {
		return res.Path
	}
	return res.Path + "?" + res.Query
}
