package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/askdb-ai/askdb-engine/pkg/adapters/datasource"
	"github.com/askdb-ai/askdb-engine/pkg/agent"
	"github.com/askdb-ai/askdb-engine/pkg/apperrors"
)

// maxQuestionLength bounds accepted question bodies.
const maxQuestionLength = 4000

// askTimeout caps a full workflow run including all generation attempts.
const askTimeout = 5 * time.Minute

// AskRequest is the body of POST /api/datasources/{id}/ask.
// Explain defaults to true: the response summarizes the results in prose.
// Set it to false to receive the raw delimited rows instead.
type AskRequest struct {
	Question string `json:"question"`
	Explain  *bool  `json:"explain,omitempty"`
}

// CredentialsRequest is the body of PUT /api/datasources/{id}/credentials.
type CredentialsRequest struct {
	Driver   string `json:"driver"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
	SSLMode  string `json:"ssl_mode,omitempty"`
}

// AskHandler exposes the reasoning workflow over HTTP.
type AskHandler struct {
	agent       *agent.Agent
	credentials *datasource.CredentialCache
	logger      *zap.Logger
}

// NewAskHandler creates the handler.
func NewAskHandler(agent *agent.Agent, credentials *datasource.CredentialCache, logger *zap.Logger) *AskHandler {
	return &AskHandler{
		agent:       agent,
		credentials: credentials,
		logger:      logger.Named("ask_handler"),
	}
}

// RegisterRoutes registers the handler's routes on the given mux.
func (h *AskHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/datasources/{id}/ask", h.Ask)
	mux.HandleFunc("PUT /api/datasources/{id}/credentials", h.PutCredentials)
	mux.HandleFunc("DELETE /api/datasources/{id}/credentials", h.DeleteCredentials)
}

// Ask handles POST /api/datasources/{id}/ask: one full workflow run.
func (h *AskHandler) Ask(w http.ResponseWriter, r *http.Request) {
	datasourceID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_datasource_id", "datasource id must be a UUID")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "request body must be JSON with a question field")
		return
	}
	if req.Question == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "missing_question", "question must not be empty")
		return
	}
	if len(req.Question) > maxQuestionLength {
		_ = ErrorResponse(w, http.StatusBadRequest, "question_too_long", "question exceeds the maximum length")
		return
	}

	explainMode := true
	if req.Explain != nil {
		explainMode = *req.Explain
	}

	ctx, cancel := context.WithTimeout(r.Context(), askTimeout)
	defer cancel()

	result, err := h.agent.Run(ctx, req.Question, datasourceID, explainMode)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNoCredentials):
			_ = ErrorResponse(w, http.StatusConflict, "no_credentials",
				"no connection credentials cached for this datasource")
		case errors.Is(err, context.DeadlineExceeded):
			_ = ErrorResponse(w, http.StatusGatewayTimeout, "timeout", "the request took too long")
		default:
			h.logger.Error("workflow run failed",
				zap.String("datasource_id", datasourceID.String()),
				zap.Error(err))
			_ = ErrorResponse(w, http.StatusInternalServerError, "internal_error", "the request could not be processed")
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("failed to encode ask response", zap.Error(err))
	}
}

// PutCredentials handles PUT /api/datasources/{id}/credentials: caches
// connection credentials for subsequent ask calls.
func (h *AskHandler) PutCredentials(w http.ResponseWriter, r *http.Request) {
	datasourceID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_datasource_id", "datasource id must be a UUID")
		return
	}

	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "request body must be JSON")
		return
	}
	if req.Driver == "" || req.Host == "" || req.Database == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "missing_fields", "driver, host, and database are required")
		return
	}

	h.credentials.Put(datasourceID.String(), datasource.Credentials{
		Driver:   req.Driver,
		Host:     req.Host,
		Port:     req.Port,
		Database: req.Database,
		Username: req.Username,
		Password: req.Password,
		SSLMode:  req.SSLMode,
	})

	h.logger.Info("credentials cached",
		zap.String("datasource_id", datasourceID.String()),
		zap.String("driver", req.Driver))

	w.WriteHeader(http.StatusNoContent)
}

// DeleteCredentials handles DELETE /api/datasources/{id}/credentials.
func (h *AskHandler) DeleteCredentials(w http.ResponseWriter, r *http.Request) {
	datasourceID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_datasource_id", "datasource id must be a UUID")
		return
	}

	h.credentials.Delete(datasourceID.String())
	w.WriteHeader(http.StatusNoContent)
}
