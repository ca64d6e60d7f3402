package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dreschagin/guild-insights/internal/application/dto"
	"github.com/dreschagin/guild-insights/internal/application/usecase"
	"github.com/dreschagin/guild-insights/internal/interfaces/http/middleware"
	"github.com/dreschagin/guild-insights/pkg/logger"
)

const maxCommandBodyBytes = 64 << 10

// CommandSubmitter ставит команду в очередь (usecase.SubmitCommandUseCase)
type CommandSubmitter interface {
	Execute(ctx context.Context, accessToken string, req dto.SubmitCommandRequest) (*dto.SubmitCommandResponse, error)
}

// CommandAPIHandler принимает команды для бота от пользователей с OAuth токеном Discord
type CommandAPIHandler struct {
	submit CommandSubmitter
	logger *logger.Logger
}

func NewCommandAPIHandler(submit CommandSubmitter, logger *logger.Logger) *CommandAPIHandler {
	return &CommandAPIHandler{submit: submit, logger: logger}
}

// Submit обрабатывает POST /api/v1/commands
func (h *CommandAPIHandler) Submit(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		writeError(w, http.StatusBadRequest, "Discord access token is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCommandBodyBytes)

	var req dto.SubmitCommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.submit.Execute(r.Context(), token, req)
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, usecase.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Discord rejected the access token")
		return
	case err != nil:
		h.logger.Error("Failed to submit command", err, "request_id", middleware.RequestIDFrom(r.Context()))
		writeError(w, http.StatusInternalServerError, "Failed to submit command")
		return
	}

	writeJSON(w, http.StatusCreated, res)
}
