// Package devserver serves the browser client's static files and injects
// runtime configuration through /env.js.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/danielolaszy/caseform/internal/logging"
)

// EnvScriptPath is where the runtime configuration script is served.
const EnvScriptPath = "/env.js"

var mimeTypes = map[string]string{
	".html": "text/html; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".js":   "text/javascript; charset=utf-8",
	".jsx":  "text/javascript; charset=utf-8",
	".json": "application/json; charset=utf-8",
}

// RuntimeConfig is exposed to the browser as window.__APP_CONFIG__.
type RuntimeConfig struct {
	FlowURL string `json:"VITE_FLOW_URL"`
	FlowKey string `json:"VITE_FLOW_KEY"`
}

// Server serves files below a root directory.
type Server struct {
	root    string
	runtime RuntimeConfig
}

// NewServer creates a server for the directory root.
func NewServer(root string, runtime RuntimeConfig) (*Server, error) {
	if root == "" {
		return nil, errors.New("static root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve static root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat static root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("static root %s is not a directory", abs)
	}
	return &Server{root: abs, runtime: runtime}, nil
}

// Root returns the absolute static root.
func (s *Server) Root() string {
	return s.root
}

// ServeHTTP implements http.Handler. Paths are resolved by hand rather than
// through http.ServeMux so traversal attempts get a 403 instead of a redirect.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logging.Debug("dev server request", "method", r.Method, "path", r.URL.Path)

	if r.URL.Path == EnvScriptPath {
		s.serveEnvScript(w)
		return
	}

	requested := r.URL.Path
	if requested == "/" || requested == "" {
		requested = "/index.html"
	}
	filePath := filepath.Join(s.root, filepath.FromSlash(requested))

	if !within(s.root, filePath) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("Forbidden"))
		return
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("Not found"))
		return
	}

	contentType, ok := mimeTypes[strings.ToLower(filepath.Ext(filePath))]
	if !ok {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) serveEnvScript(w http.ResponseWriter) {
	payload, err := json.Marshal(s.runtime)
	if err != nil {
		http.Error(w, "failed to encode runtime config", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "window.__APP_CONFIG__ = %s;", payload)
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Listen binds host:port. Port 0 picks a free port. It returns the listener
// and the base URL to print.
func Listen(host string, port int) (net.Listener, string, error) {
	if port < 0 || port > 65535 {
		return nil, "", fmt.Errorf("invalid port %d (must be 0..65535)", port)
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		if strings.Contains(err.Error(), "address already in use") {
			return nil, "", fmt.Errorf("port %d is already in use", port)
		}
		return nil, "", fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	displayHost := host
	if displayHost == "" || displayHost == "0.0.0.0" || displayHost == "::" {
		displayHost = "localhost"
	}
	actualPort := listener.Addr().(*net.TCPAddr).Port
	return listener, fmt.Sprintf("http://%s", net.JoinHostPort(displayHost, strconv.Itoa(actualPort))), nil
}

// Serve runs the server on listener until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logging.Info("shutting down dev server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down dev server: %w", err)
		}
		return nil
	}
}
