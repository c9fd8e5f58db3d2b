package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/docforge/internal/model"
	"github.com/sells-group/docforge/internal/pipeline"
	"github.com/sells-group/docforge/internal/store"
)

const maxUploadBytes = 256 << 20

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP ingestion server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(env.Pipeline, env.Store, cfg.Server.CORSOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

// uploadRunner processes a staged upload under the name it was sent as.
type uploadRunner interface {
	RunAs(ctx context.Context, path, source string) (*pipeline.Outcome, error)
}

// server holds the handler dependencies.
type server struct {
	runner uploadRunner
	store  store.Store
}

func newRouter(runner uploadRunner, st store.Store, origins []string) http.Handler {
	s := &server{runner: runner, store: st}
	r := chi.NewRouter()
	if len(origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         300,
		}))
	}
	r.Get("/health", s.handleHealth)
	r.Post("/v1/documents", s.handleDocument)
	r.Get("/v1/runs/{run_id}", s.handleRun)
	return r
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleDocument processes an uploaded PDF synchronously and returns its
// summary.
func (s *server) handleDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close() //nolint:errcheck

	dir, err := os.MkdirTemp("", "docforge-upload-*")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "cannot stage upload")
		return
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	name := filepath.Base(header.Filename)
	if name == "." || name == string(filepath.Separator) {
		name = "upload.pdf"
	}
	path := filepath.Join(dir, name)
	if err := saveUpload(path, file); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	out, err := s.runner.RunAs(r.Context(), path, "upload:"+name)
	if err != nil {
		zap.L().Error("upload processing failed", zap.String("file", name), zap.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, model.ErrDocumentUnreadable) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":  out.RunID,
		"summary": out.Summary,
	})
}

func (s *server) handleRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "run_id")
	run, err := s.store.GetRun(r.Context(), runID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	phases, err := s.store.ListPhases(r.Context(), runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run":    run,
		"phases": phases,
	})
}

func saveUpload(path string, src io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "serve: create upload file")
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close() //nolint:errcheck
		return eris.Wrap(err, "serve: read upload")
	}
	return eris.Wrap(f.Close(), "serve: close upload file")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
