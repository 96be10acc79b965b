// Package apiv1 exposes the translate job lifecycle over JSON.
package apiv1

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"subtitle-translate/internal/domain"
	"subtitle-translate/internal/domain/model"
	"subtitle-translate/internal/infra/logging"
	"subtitle-translate/internal/usecase"
)

const maxSubmitBytes = 8 << 20

// SubmitLimiter throttles job creation per client address.
type SubmitLimiter interface {
	AllowSubmit(ctx context.Context, clientIP string) (bool, error)
}

type Server struct {
	jobs    usecase.TranslateJobUseCase
	limiter SubmitLimiter
	log     *zerolog.Logger
}

// NewServer builds the v1 handlers. limiter may be nil.
func NewServer(jobs usecase.TranslateJobUseCase, limiter SubmitLimiter, logger *zerolog.Logger) *Server {
	return &Server{jobs: jobs, limiter: limiter, log: logger}
}

func RegisterAPIV1(r chi.Router, s *Server) {
	r.Post("/api/v1/translate-jobs", s.submitJob)
	r.Get("/api/v1/translate-jobs/{jobId}", s.pollJob)
	r.Get("/api/v1/translate-jobs/{jobId}/srt", s.downloadJob)
}

type SubmitRequest struct {
	SRT            string `json:"srt"`
	TargetLanguage string `json:"targetLanguage,omitempty"`
	Note           string `json:"note,omitempty"`
}

type SubmitResponse struct {
	JobID string `json:"jobId"`
	Total int    `json:"total"`
}

type PollResponse struct {
	JobID     string `json:"jobId"`
	Status    string `json:"status"`
	Cursor    int    `json:"cursor"`
	Total     int    `json:"total"`
	Processed int    `json:"processed"`
	SRT       string `json:"srt,omitempty"`
}

type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) submitJob(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if s.limiter != nil {
		ip := logging.ClientIP(ctx)
		ok, err := s.limiter.AllowSubmit(ctx, ip)
		if err != nil {
			// fail open
			logging.With(ctx, s.log).Warn().Err(err).Msg("submit rate limiter unavailable")
		} else if !ok {
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many submissions, retry later")
			return
		}
	}

	var req SubmitRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmitBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("invalid JSON body: %v", err))
		return
	}

	job, err := s.jobs.Submit(ctx, req.SRT, req.TargetLanguage, req.Note)
	if err != nil {
		s.writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, SubmitResponse{JobID: job.ID, Total: job.Total})
}

func (s *Server) pollJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	ctx := logging.WithJobID(r.Context(), jobID)

	p, err := s.jobs.Poll(ctx, jobID)
	if err != nil {
		s.writeDomainError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPollResponse(p))
}

func (s *Server) downloadJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	ctx := logging.WithJobID(r.Context(), jobID)

	out, completed, err := s.jobs.Result(ctx, jobID)
	if err != nil {
		s.writeDomainError(ctx, w, err)
		return
	}
	if !completed {
		writeError(w, http.StatusConflict, "not_completed", "job is still processing")
		return
	}
	w.Header().Set("Content-Type", "application/x-subrip; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", jobID+".srt"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

func toPollResponse(p *model.Progress) PollResponse {
	resp := PollResponse{
		JobID:     p.JobID,
		Status:    string(p.Status),
		Cursor:    p.Cursor,
		Total:     p.Total,
		Processed: p.Processed,
	}
	if p.Completed {
		resp.SRT = p.SRT
	}
	return resp
}

func (s *Server) writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptySubtitle):
		writeError(w, http.StatusBadRequest, "empty_subtitle", "no subtitle cues could be parsed")
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domain.ErrJobNotFound), errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "")
	case errors.Is(err, domain.ErrStoreUnavailable):
		logging.With(ctx, s.log).Error().Err(err).Msg("job store unavailable")
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		logging.With(ctx, s.log).Warn().Err(err).Msg("request cut off, batch will be re-claimed")
		writeError(w, http.StatusGatewayTimeout, "timeout", "poll again to resume")
	default:
		logging.With(ctx, s.log).Error().Err(err).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, ErrorResponse{Error: code, Detail: detail})
}
