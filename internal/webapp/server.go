// Package webapp serves the upload form and turns uploaded exports into a
// downloadable payroll workbook.
package webapp

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phillip-england/tipsheet/internal/config"
	"github.com/phillip-england/tipsheet/internal/logging"
	"github.com/phillip-england/tipsheet/internal/middleware"
	"github.com/phillip-england/tipsheet/internal/reportgen"
	"github.com/phillip-england/tipsheet/internal/security"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	healthPath      = "/api/health"
	shutdownTimeout = 5 * time.Second
)

//go:embed templates/index.html assets/app.css assets/app.js
var webFS embed.FS

type Config struct {
	Addr           string
	UploadDir      string
	CleanupDelay   time.Duration
	MaxUploadBytes int64
	// AccessHash enables basic auth when set.
	AccessHash string
}

func ConfigFromSettings(s config.Settings) Config {
	return Config{
		Addr:           s.Addr,
		UploadDir:      s.UploadDir,
		CleanupDelay:   s.CleanupDelay,
		MaxUploadBytes: s.MaxUploadBytes,
		AccessHash:     s.AccessHash,
	}
}

type Server struct {
	cfg       Config
	generator *reportgen.Generator
	logger    *zap.Logger
	janitor   *janitor
	indexTmpl *template.Template
	handler   http.Handler
}

type generateResponse struct {
	Success      bool   `json:"success"`
	DownloadURL  string `json:"download_url"`
	OriginalName string `json:"original_name"`
	Message      string `json:"message"`
}

// New prepares the upload directory and routes. Call Close to flush pending
// file deletions.
func New(cfg Config, generator *reportgen.Generator, logger *zap.Logger) (*Server, error) {
	if generator == nil {
		return nil, errors.New("generator is required")
	}
	if cfg.AccessHash != "" {
		if err := security.CheckHash(cfg.AccessHash); err != nil {
			return nil, fmt.Errorf("access hash: %w", err)
		}
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = config.DefaultUploadDir
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = config.DefaultMaxUploadMB << 20
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	tmpl, err := template.ParseFS(webFS, "templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	logger = logging.OrNop(logger)

	s := &Server{
		cfg:       cfg,
		generator: generator,
		logger:    logger,
		janitor:   newJanitor(cfg.CleanupDelay, logger),
		indexTmpl: tmpl,
	}

	assets, err := fs.Sub(webFS, "assets")
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.index)
	mux.HandleFunc("/generate", s.generate)
	mux.HandleFunc("/download/", s.download)
	mux.HandleFunc(healthPath, s.health)
	mux.Handle("/assets/", http.StripPrefix("/assets/", http.FileServer(http.FS(assets))))

	csp := strings.Join([]string{
		"default-src 'self'",
		"style-src 'self'",
		"script-src 'self'",
		"connect-src 'self'",
		"frame-ancestors 'none'",
	}, "; ")

	chain := []func(http.Handler) http.Handler{
		middleware.RequestLogger(logger),
		middleware.SecurityHeaders(middleware.SecurityHeadersConfig{ContentSecurityPolicy: csp}),
	}
	if cfg.AccessHash != "" {
		chain = append(chain, middleware.BasicAuth("tipsheet", cfg.AccessHash, healthPath))
	}
	// Multipart overhead on top of two files.
	chain = append(chain, middleware.MaxBytes(2*cfg.MaxUploadBytes+(1<<20)))
	s.handler = middleware.Chain(mux, chain...)
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Close removes files still waiting for deferred deletion.
func (s *Server) Close() {
	s.janitor.Close()
}

// Run listens on cfg.Addr until ctx is cancelled.
func Run(ctx context.Context, cfg Config, generator *reportgen.Generator, logger *zap.Logger) error {
	s, err := New(cfg, generator, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve handles requests on ln until ctx is cancelled, then shuts down
// gracefully. A cancelled ctx is not an error.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct{ MaxUploadMB int64 }{MaxUploadMB: s.cfg.MaxUploadBytes >> 20}
	if err := s.indexTmpl.Execute(w, data); err != nil {
		s.logger.Error("render index", zap.Error(err))
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, errUploadTooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "invalid upload form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	filename := secureFilename(strings.TrimSpace(r.FormValue("filename")))
	filename = strings.TrimSuffix(filename, ".xlsx")
	if filename == "" {
		writeError(w, http.StatusBadRequest, "Filename is required")
		return
	}

	hoursData, hoursName, _, err := parseUploadedFile(r, "hoursFile", s.cfg.MaxUploadBytes, true, "Hours CSV file is required")
	if err != nil {
		writeUploadError(w, err)
		return
	}
	tipsData, tipsName, hasTips, err := parseUploadedFile(r, "tipsFile", s.cfg.MaxUploadBytes, false, "")
	if err != nil {
		writeUploadError(w, err)
		return
	}

	id := uuid.NewString()[:idLength]
	hoursPath := filepath.Join(s.cfg.UploadDir, "hours_"+id+"_"+uploadName(hoursName))
	if err := os.WriteFile(hoursPath, hoursData, 0o600); err != nil {
		s.logger.Error("save upload", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "unable to save uploaded file")
		return
	}
	s.janitor.schedule(hoursPath)

	var tipsPath string
	if hasTips {
		tipsPath = filepath.Join(s.cfg.UploadDir, "tips_"+id+"_"+uploadName(tipsName))
		if err := os.WriteFile(tipsPath, tipsData, 0o600); err != nil {
			s.logger.Error("save upload", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "unable to save uploaded file")
			return
		}
		s.janitor.schedule(tipsPath)
	}

	outputName := id + "_" + filename + ".xlsx"
	outputPath := filepath.Join(s.cfg.UploadDir, outputName)
	summary, err := s.generator.Generate(r.Context(), reportgen.Inputs{
		HoursPath:  hoursPath,
		TipsPath:   tipsPath,
		OutputPath: outputPath,
	})
	if err != nil {
		s.logger.Warn("generate report", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error processing files: "+err.Error())
		return
	}
	// Downloads remove the output; this catches reports nobody fetched.
	s.janitor.schedule(outputPath)

	s.logger.Info("report generated",
		zap.String("id", id),
		zap.String("run_id", summary.RunID),
		zap.Int("employees", summary.Employees),
		zap.Bool("tips", summary.TipsIncluded),
		zap.String("grand_total", summary.GrandTotal.StringFixed(2)),
		zap.Strings("unmatched_server_tips", summary.UnmatchedServerTips))

	message := "Excel report generated successfully!"
	if summary.TipsWarning != "" {
		message = "Excel report generated without tips: " + summary.TipsWarning
	}
	writeJSON(w, http.StatusOK, generateResponse{
		Success:      true,
		DownloadURL:  "/download/" + outputName,
		OriginalName: filename + ".xlsx",
		Message:      message,
	})
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/download/")
	if !validStoredName(name) {
		writeError(w, http.StatusNotFound, "File not found")
		return
	}
	path := filepath.Join(s.cfg.UploadDir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusNotFound, "File not found")
			return
		}
		s.logger.Error("read report", zap.String("path", path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error downloading file")
		return
	}
	s.janitor.forget(path)
	if err := os.Remove(path); err != nil {
		s.logger.Warn("remove report", zap.String("path", path), zap.Error(err))
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(originalName(name)))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// uploadName keeps the extension readable by the importer even when the
// client sent an odd name.
func uploadName(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	clean := secureFilename(name)
	if clean == "" || !strings.HasSuffix(strings.ToLower(clean), ext) {
		return secureFilename("upload" + ext)
	}
	return clean
}

func writeUploadError(w http.ResponseWriter, err error) {
	if errors.Is(err, errUploadTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
