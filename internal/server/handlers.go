package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/imedwei/audio-url-extractor/internal/errs"
	"github.com/imedwei/audio-url-extractor/internal/extract"
	"github.com/imedwei/audio-url-extractor/internal/storage"
)

// extractRequest is the JSON body of POST /extract-audio-urls.
type extractRequest struct {
	SourceType        string `json:"source_type" validate:"required"`
	ContainerOrBucket string `json:"container_or_bucket" validate:"required"`
	Prefix            string `json:"prefix"`
	ExpiryDays        *int   `json:"expiry_days" validate:"omitempty,min=1"`
	IncludeDuration   *bool  `json:"include_duration"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	req, err := s.decodeExtractRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	if s.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RequestTimeout)
		defer cancel()
	}

	records, err := s.extractor.Extract(ctx, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if records == nil {
		records = []extract.FileRecord{}
	}

	writeJSON(w, http.StatusOK, records)
}

func (s *Server) decodeExtractRequest(w http.ResponseWriter, r *http.Request) (extract.Request, error) {
	if s.config.MaxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	}

	var body extractRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return extract.Request{}, errs.Wrap(errs.KindInvalidInput, "Invalid JSON body", err)
	}
	if err := s.validate.Struct(body); err != nil {
		return extract.Request{}, errs.Wrap(errs.KindInvalidInput, validationDetail(err), err)
	}

	req := extract.Request{
		SourceType:      storage.SourceType(body.SourceType),
		Container:       body.ContainerOrBucket,
		Prefix:          body.Prefix,
		ExpiryDays:      s.config.DefaultExpiryDays,
		IncludeDuration: true,
	}
	if body.ExpiryDays != nil {
		req.ExpiryDays = *body.ExpiryDays
	}
	if body.IncludeDuration != nil {
		req.IncludeDuration = *body.IncludeDuration
	}
	return req, nil
}

func validationDetail(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request"
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fe.Field()+" is required")
		case "min":
			msgs = append(msgs, fe.Field()+" must be at least "+fe.Param())
		default:
			msgs = append(msgs, fe.Field()+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}

// errorStatus maps an error to its HTTP status and client-visible detail.
// Causes are never exposed since they may carry provider responses.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "Request timed out"
	case errs.IsInvalidInput(err):
		return http.StatusBadRequest, errs.MessageOf(err)
	case errs.IsConfiguration(err):
		return http.StatusInternalServerError, errs.MessageOf(err)
	case errs.IsBackendIO(err):
		return http.StatusInternalServerError, "Storage backend error: " + errs.MessageOf(err)
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := errorStatus(err)

	logger := s.logger.With("request_id", extract.RequestID(r.Context()), "status", status)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", "error", err)
	} else {
		logger.Info("Request rejected", "error", err)
	}

	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent; nothing useful to do on failure
	_ = json.NewEncoder(w).Encode(v)
}
