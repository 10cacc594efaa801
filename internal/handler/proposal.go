package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kdduha/proposal-relay/internal/config"
	"github.com/kdduha/proposal-relay/internal/errs"
	"github.com/kdduha/proposal-relay/internal/models"
	"github.com/sirupsen/logrus"
)

type proposalService interface {
	Generate(ctx context.Context, req *models.GenerateRequest) (<-chan models.StreamChunk, error)
	Revise(ctx context.Context, req *models.ReviseRequest) (<-chan models.StreamChunk, error)
	ImagePrompts(ctx context.Context, req *models.ImagePromptsRequest) (<-chan models.StreamChunk, error)
}

type ProposalHandler struct {
	logger         logrus.FieldLogger
	service        proposalService
	maxUploadBytes int64
	maxFormMemory  int64
}

func NewProposalHandler(logger logrus.FieldLogger, service proposalService, cfg config.ServerConfig) *ProposalHandler {
	return &ProposalHandler{
		logger:         logger,
		service:        service,
		maxUploadBytes: cfg.MaxUploadBytes,
		maxFormMemory:  cfg.MaxFormMemory,
	}
}

// Register mounts the API routes on r.
func (h *ProposalHandler) Register(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/generate", h.Generate)
		r.Post("/revise", h.Revise)
		r.Post("/image-prompts", h.ImagePrompts)
	})
	r.Get("/healthz", h.Health)
}

// Generate godoc
// @Summary Generate proposal draft
// @Description Builds a prompt from the uploaded documents and streams the drafted proposal as plain text.
// @Tags proposal
// @Accept multipart/form-data
// @Produce plain
// @Param technologyDomain formData string false "Technology domain"
// @Param historyText formData string false "Free-form track record notes"
// @Param rfpFiles formData file false "Client technical documents (RFP)"
// @Param sampleFiles formData file false "Proposal examples"
// @Param taskListFiles formData file false "Completed project lists"
// @Param historyFiles formData file false "Track record documents"
// @Success 200 {string} string "Streamed proposal text"
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/generate [post]
func (h *ProposalHandler) Generate(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseGenerateForm(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	stream, err := h.service.Generate(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeStream(w, r, stream)
}

// Revise godoc
// @Summary Revise proposal draft
// @Description Rewrites a draft using one of the fixed revision guidelines and streams the result as plain text.
// @Tags proposal
// @Accept json
// @Produce plain
// @Param request body models.ReviseRequest true "Revise request"
// @Success 200 {string} string "Streamed revised text"
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/revise [post]
func (h *ProposalHandler) Revise(w http.ResponseWriter, r *http.Request) {
	var req models.ReviseRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errs.Invalid("invalid JSON: %s", err))
		return
	}

	stream, err := h.service.Revise(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeStream(w, r, stream)
}

// ImagePrompts godoc
// @Summary Suggest images for a proposal
// @Description Streams image placement suggestions and generation prompts for a draft as plain text.
// @Tags proposal
// @Accept json
// @Produce plain
// @Param request body models.ImagePromptsRequest true "Image prompts request"
// @Success 200 {string} string "Streamed suggestions"
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /api/image-prompts [post]
func (h *ProposalHandler) ImagePrompts(w http.ResponseWriter, r *http.Request) {
	var req models.ImagePromptsRequest
	if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errs.Invalid("invalid JSON: %s", err))
		return
	}

	stream, err := h.service.ImagePrompts(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeStream(w, r, stream)
}

// Health godoc
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /healthz [get]
func (h *ProposalHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, models.HealthResponse{Status: "ok"})
}

func (h *ProposalHandler) parseGenerateForm(w http.ResponseWriter, r *http.Request) (*models.GenerateRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxFormMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errs.NewAppError(http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", tooLarge.Limit), err)
		}
		return nil, errs.Invalid("malformed multipart form: %s", err)
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	req := &models.GenerateRequest{
		TechnologyDomain: r.FormValue("technologyDomain"),
		HistoryText:      r.FormValue("historyText"),
		Files:            make(map[models.Category][]models.UploadedFile, len(models.Categories)),
	}
	for _, c := range models.Categories {
		for _, fh := range r.MultipartForm.File[c.FormField()] {
			f, err := readUpload(fh)
			if err != nil {
				return nil, errs.Invalid("read %s: %s", c.FormField(), err)
			}
			req.Files[c] = append(req.Files[c], f)
		}
	}
	return req, nil
}

func readUpload(fh *multipart.FileHeader) (models.UploadedFile, error) {
	f, err := fh.Open()
	if err != nil {
		return models.UploadedFile{}, err
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return models.UploadedFile{}, fmt.Errorf("%s: %w", fh.Filename, err)
	}
	return models.UploadedFile{
		Name:         fh.Filename,
		Content:      content,
		DeclaredMIME: fh.Header.Get("Content-Type"),
	}, nil
}

// writeStream forwards every chunk and flushes it. The stream is always
// drained so the producer can finish. A failed or truncated stream aborts
// the response instead of ending it cleanly.
func (h *ProposalHandler) writeStream(w http.ResponseWriter, r *http.Request, stream <-chan models.StreamChunk) {
	logger := h.logger.WithField("request_id", middleware.GetReqID(r.Context()))

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	flusher := http.NewResponseController(w)
	_ = flusher.Flush()

	var (
		writeErr error
		streamed error
		done     bool
	)
	for chunk := range stream {
		switch {
		case chunk.Err != nil:
			streamed = chunk.Err
		case chunk.Done:
			done = true
		case writeErr == nil:
			if _, writeErr = io.WriteString(w, chunk.Delta); writeErr == nil {
				writeErr = flusher.Flush()
			}
			if writeErr != nil {
				logger.WithError(writeErr).Warn("client write failed, draining stream")
			}
		}
	}

	if streamed != nil {
		logger.WithError(streamed).Error("stream failed mid-response")
		panic(http.ErrAbortHandler)
	}
	if !done {
		logger.Error("stream closed without completion")
		panic(http.ErrAbortHandler)
	}
}

func (h *ProposalHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := errs.MapError(err)
	entry := h.logger.WithFields(logrus.Fields{
		"request_id": middleware.GetReqID(r.Context()),
		"status":     appErr.Code,
	}).WithError(err)
	if appErr.Code >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Info("request rejected")
	}
	h.writeJSON(w, r, appErr.Code, models.ErrorResponse{Error: appErr.Error()})
}

func (h *ProposalHandler) writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := sonic.ConfigDefault.NewEncoder(w).Encode(v); err != nil {
		h.logger.WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"status":     code,
		}).WithError(err).Error("failed to encode response")
	}
}
