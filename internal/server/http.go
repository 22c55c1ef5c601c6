package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/worldcheck-sorter/internal/common"
	"github.com/joseph-ayodele/worldcheck-sorter/internal/services/batch"
)

const (
	maxSubmitBody   = 1 << 20
	maxUploadBody   = 512 << 20
	maxUploadMemory = 32 << 20
)

type HTTPConfig struct {
	ArchiveName       string
	CleanupOnDownload bool
}

type httpHandler struct {
	svc    BatchService
	cfg    HTTPConfig
	logger *slog.Logger
}

// NewHTTPHandler returns the REST surface: health, batch submit/status and archive download.
func NewHTTPHandler(svc BatchService, cfg HTTPConfig, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &httpHandler{svc: svc, cfg: cfg, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	r.Route("/batches", func(r chi.Router) {
		r.Post("/", h.submit)
		r.Post("/upload", h.upload)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Get("/{id}/archive", h.archive)
	})
	return r
}

func (h *httpHandler) submit(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxSubmitBody))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ctx := common.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
	job, err := h.svc.SubmitJSON(ctx, raw)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, jobView(job))
}

// upload takes multipart "files" parts into a new batch. An optional "rename" field
// overrides the default.
func (h *httpHandler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", common.ErrInvalidInput, err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	var rename *bool
	if v := r.FormValue("rename"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			h.fail(w, r, fmt.Errorf("%w: rename must be a boolean", common.ErrInvalidInput))
			return
		}
		rename = &b
	}

	headers := r.MultipartForm.File["files"]
	uploads := make([]batch.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.fail(w, r, err)
			return
		}
		defer f.Close()
		uploads = append(uploads, batch.Upload{Name: fh.Filename, Body: f})
	}

	ctx := common.WithRequestID(r.Context(), middleware.GetReqID(r.Context()))
	job, err := h.svc.SubmitUploads(ctx, uploads, rename)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, jobView(job))
}

func (h *httpHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			h.fail(w, r, common.ErrInvalidInput)
			return
		}
		limit = n
	}
	jobs, err := h.svc.List(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	out := make([]map[string]any, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, jobView(j))
	}
	writeJSON(w, http.StatusOK, map[string]any{"batches": out})
}

func (h *httpHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	job, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jobView(job))
}

// archive streams the finished zip. Once the body is fully written the batch directory
// is removed when CleanupOnDownload is set.
func (h *httpHandler) archive(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	path, err := h.svc.ArchivePath(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	f, err := os.Open(path)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+h.cfg.ArchiveName+`"`)
	if info, err := f.Stat(); err == nil {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	}
	w.WriteHeader(http.StatusOK)
	n, copyErr := io.Copy(w, f)
	_ = f.Close()
	if copyErr != nil {
		h.logger.Warn("http.archive.stream.failed", "batch_id", id, "bytes", n, "error", copyErr)
		return
	}
	h.logger.Info("http.archive.sent", "batch_id", id, "bytes", n)

	if h.cfg.CleanupOnDownload {
		if err := h.svc.Cleanup(r.Context(), id); err != nil {
			h.logger.Warn("http.archive.cleanup.failed", "batch_id", id, "error", err)
		}
	}
}

func (h *httpHandler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "id must be a UUID"})
		return uuid.Nil, false
	}
	return id, true
}

func (h *httpHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	code := httpStatus(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("http.request.failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, code, map[string]any{"error": err.Error()})
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, batch.ErrNotReady):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
