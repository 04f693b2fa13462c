package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"argg-api/api/services"
	"argg-api/pkg/assets"
	"argg-api/pkg/ontology"
	"argg-api/pkg/shared"
)

const (
	HeaderRegistrationStatus = "X-Registration-Status"

	maxBodyBytes = 1 << 20

	msgInvalidContentType = "Invalid Content-Type.  Expecting application/json"
	msgInvalidJSON        = "content body is not valid json"
	msgInternal           = "Internal server error"
)

type SubmissionValidator interface {
	Validate(ctx context.Context, req *ontology.SubmissionRequest) (*ontology.Submission, error)
}

type Registrar interface {
	Register(ctx context.Context, sub *ontology.Submission) (*services.Report, error)
}

type HealthChecker interface {
	HealthCheck() error
}

type Handlers struct {
	validator SubmissionValidator
	registrar Registrar
	events    HealthChecker
	stats     func() map[string]uint64
	version   string
}

// NewHandlers builds the HTTP handlers. events and stats may be nil when the
// event bus is disabled.
func NewHandlers(validator SubmissionValidator, registrar Registrar, events HealthChecker, stats func() map[string]uint64, version string) *Handlers {
	return &Handlers{
		validator: validator,
		registrar: registrar,
		events:    events,
		stats:     stats,
		version:   version,
	}
}

// APIDescription serves the OpenAPI document of this service.
func (h *Handlers) APIDescription(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(assets.OpenAPIDocument)
}

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		sendError(w, http.StatusBadRequest, msgInvalidContentType)
		return
	}

	req, err := decodeSubmission(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		logger.Debug().Err(err).Msg("Rejected request body")
		sendError(w, shared.HTTPStatusOf(err), messageOf(err))
		return
	}

	sub, err := h.validator.Validate(r.Context(), req)
	if err != nil {
		var vErr *services.ValidationError
		if errors.As(err, &vErr) {
			logger.Debug().Str("field", vErr.Field).Msg("Submission failed validation")
		} else {
			logger.Error().Err(err).Msg("Unexpected validation failure")
		}
		sendError(w, shared.HTTPStatusOf(err), messageOf(err))
		return
	}

	report, err := h.registrar.Register(r.Context(), sub)
	if err != nil {
		if report != nil {
			w.Header().Set(HeaderRegistrationStatus, report.Status())
		}
		sendError(w, shared.HTTPStatusOf(err), messageOf(err))
		return
	}

	w.Header().Set(HeaderRegistrationStatus, report.Status())
	sendSuccess(w, http.StatusOK, report.Response())
}

// HealthCheck reports the state of the event bus. A disabled bus is not
// a failure.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := shared.HealthStatus{
		Status:    shared.HealthHealthy,
		Service:   shared.ServiceName,
		Version:   h.version,
		Timestamp: time.Now(),
		Details:   make(map[string]string),
	}

	if h.events == nil {
		health.Details["nats"] = shared.HealthDisabled
	} else if err := h.events.HealthCheck(); err != nil {
		health.Status = shared.HealthUnhealthy
		health.Details["nats"] = shared.HealthUnhealthy + ": " + err.Error()
	} else {
		health.Details["nats"] = shared.HealthHealthy
	}

	if h.stats != nil {
		for status, n := range h.stats() {
			health.Details["registrations."+status] = strconv.FormatUint(n, 10)
		}
	}

	statusCode := http.StatusOK
	if health.Status == shared.HealthUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	sendSuccess(w, statusCode, health)
}

// Helper functions
func sendSuccess(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

func sendError(w http.ResponseWriter, statusCode int, message string) {
	sendSuccess(w, statusCode, shared.MessageResponse{Msg: message})
}

// decodeSubmission reads exactly one JSON value from body. Failures are
// INVALID_INPUT errors.
func decodeSubmission(body io.Reader) (*ontology.SubmissionRequest, error) {
	dec := json.NewDecoder(body)

	var req ontology.SubmissionRequest
	if err := dec.Decode(&req); err != nil {
		return nil, shared.NewAppError(shared.ErrCodeInvalidInput, msgInvalidJSON, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, shared.NewAppError(shared.ErrCodeInvalidInput, msgInvalidJSON,
			fmt.Errorf("unexpected data after the JSON body"))
	}
	return &req, nil
}

func messageOf(err error) string {
	var appErr *shared.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return msgInternal
}

// RegisterRoutes sets up all API routes
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			h.HealthCheck(w, r)
		default:
			sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/register", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			h.Register(w, r)
		default:
			sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			sendError(w, http.StatusNotFound, "Not found")
			return
		}
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			h.APIDescription(w, r)
		default:
			sendError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})
}
