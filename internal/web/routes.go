package web

import (
	"io"
	"net/http"
	"strings"

	"github.com/kozaktomas/photo-migrate/internal/web/handlers"
	"github.com/kozaktomas/photo-migrate/internal/web/static"
)

func (s *Server) setupRoutes() {
	statusHandler := handlers.NewStatusHandler(s.app)
	statsHandler := handlers.NewStatsHandler(s.app)
	configHandler := handlers.NewConfigHandler(s.app)
	algorithmHandler := handlers.NewAlgorithmHandler(s.app)
	applyHandler := handlers.NewApplyHandler(s.app)
	applyUnclusteredHandler := handlers.NewApplyUnclusteredHandler(s.app)
	createFacesApplyHandler := handlers.NewCreateFacesApplyHandler(s.app)

	s.router.Get("/health", handlers.HealthCheck)
	s.router.Get("/status", statusHandler.Get)
	s.router.Get("/stats", statsHandler.Get)

	s.router.Get("/config", configHandler.Get)
	s.router.Post("/config/source-db", configHandler.SetSourceDB)
	s.router.Post("/config/target-api", configHandler.SetTargetAPI)
	s.router.Post("/config/target-db", configHandler.SetTargetDB)

	s.router.Post("/algorithm/run", algorithmHandler.Run)

	s.router.Post("/apply", applyHandler.Apply)
	s.router.Post("/apply/unclustered", applyUnclusteredHandler.Apply)
	s.router.Post("/create-faces/apply", createFacesApplyHandler.Apply)

	// Serve static files for frontend (SPA).
	s.router.Get("/*", s.serveSPA)
}

// contentTypeByExt maps file extensions to MIME content types.
var contentTypeByExt = map[string]string{
	".html":  "text/html; charset=utf-8",
	".css":   "text/css; charset=utf-8",
	".js":    "application/javascript; charset=utf-8",
	".json":  "application/json",
	".svg":   "image/svg+xml",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".ico":   "image/x-icon",
	".woff2": "font/woff2",
	".woff":  "font/woff",
}

// getContentTypeForExt returns the MIME content type for a file path based on its extension.
func getContentTypeForExt(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			if ct, ok := contentTypeByExt[path[i:]]; ok {
				return ct
			}
			break
		}
	}
	return "application/octet-stream"
}

// serveEmbeddedFile attempts to serve a file from the embedded filesystem.
// Returns true if the file was served, false otherwise.
func serveEmbeddedFile(w http.ResponseWriter, fsys http.FileSystem, path string) bool {
	f, err := fsys.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil || stat.IsDir() {
		return false
	}

	w.Header().Set("Content-Type", getContentTypeForExt(path))
	if strings.HasPrefix(path, "/assets/") {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	}
	w.WriteHeader(http.StatusOK)
	io.Copy(w, f)
	return true
}

// serveSPA serves the single-page application.
func (s *Server) serveSPA(w http.ResponseWriter, r *http.Request) {
	if static.HasDist() {
		fs := static.GetFileSystem()
		path := r.URL.Path
		if path == "/" {
			path = "/index.html"
		}

		if serveEmbeddedFile(w, fs, path) {
			return
		}

		if !strings.HasPrefix(path, "/assets/") && serveEmbeddedFile(w, fs, "/index.html") {
			return
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>Photo Migrate</title>
    <style>
        body { font-family: system-ui, sans-serif; display: flex;
            justify-content: center; align-items: center;
            height: 100vh; margin: 0;
            background: #1a1a2e; color: #eee; }
        .container { text-align: center; }
        h1 { color: #00d9ff; }
        p { color: #aaa; }
        a { color: #00d9ff; }
        code { background: #2a2a3e; padding: 2px 8px; border-radius: 4px; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Photo Migrate</h1>
        <p>Frontend is not built yet: no frontend bundle is embedded in this binary.</p>
        <p>API is available at <a href="/health">/health</a></p>
    </div>
</body>
</html>`))
}
