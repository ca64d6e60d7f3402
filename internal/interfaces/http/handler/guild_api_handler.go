package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/dreschagin/guild-insights/internal/application/dto"
	"github.com/dreschagin/guild-insights/internal/application/session"
	"github.com/dreschagin/guild-insights/internal/application/usecase"
	"github.com/dreschagin/guild-insights/internal/interfaces/http/middleware"
	"github.com/dreschagin/guild-insights/pkg/logger"
)

const maxAnalyzeBodyBytes = 16 << 10

// GuildAnalyzer запускает анализ гильдии (usecase.AnalyzeGuildUseCase)
type GuildAnalyzer interface {
	Execute(ctx context.Context, cmd usecase.AnalyzeGuildCommand) (*dto.AnalyticsReportDTO, error)
}

// LatestReportReader возвращает последний отчет (usecase.GetLatestReportUseCase)
type LatestReportReader interface {
	Execute(ctx context.Context, guildID string) (*dto.AnalyticsReportDTO, error)
}

// HistoryReader возвращает историю анализов (usecase.GetAnalysisHistoryUseCase)
type HistoryReader interface {
	Execute(ctx context.Context, guildID string, limit int) (*dto.AnalysisHistoryDTO, error)
}

// AnalyzeRequest тело POST /api/v1/guilds/analyze
type AnalyzeRequest struct {
	Token   string `json:"token"`
	GuildID string `json:"guild_id"`
}

// GuildAPIHandler обрабатывает API запросы по гильдиям
type GuildAPIHandler struct {
	analyze GuildAnalyzer
	latest  LatestReportReader
	history HistoryReader
	logger  *logger.Logger
}

// NewGuildAPIHandler создает новый handler
func NewGuildAPIHandler(
	analyze GuildAnalyzer,
	latest LatestReportReader,
	history HistoryReader,
	logger *logger.Logger,
) *GuildAPIHandler {
	return &GuildAPIHandler{
		analyze: analyze,
		latest:  latest,
		history: history,
		logger:  logger,
	}
}

// Analyze строит отчет по гильдии.
// 400 при неверном вводе, 200 с полем error если гильдия не найдена, 500 для остальных ошибок.
func (h *GuildAPIHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAnalyzeBodyBytes)

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Request body must be a JSON object with token and guild_id")
		return
	}

	report, err := h.analyze.Execute(r.Context(), usecase.AnalyzeGuildCommand{
		Token:   req.Token,
		GuildID: req.GuildID,
	})
	if err != nil {
		status, message := analyzeFailure(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Guild analysis failed", err,
				"guild_id", req.GuildID,
				"request_id", middleware.RequestIDFrom(r.Context()),
			)
		}
		writeError(w, status, message)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// LatestReport возвращает последний сохраненный отчет гильдии
func (h *GuildAPIHandler) LatestReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.latest.Execute(r.Context(), r.PathValue("guildID"))
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Invalid guild id")
		return
	case errors.Is(err, usecase.ErrReportNotFound):
		writeError(w, http.StatusNotFound, "No report for this guild yet")
		return
	case err != nil:
		h.logger.Error("Failed to get latest report", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch report")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// History возвращает историю анализов гильдии, ?limit=N
func (h *GuildAPIHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = parsed
	}

	history, err := h.history.Execute(r.Context(), r.PathValue("guildID"), limit)
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "Invalid guild id")
		return
	case err != nil:
		h.logger.Error("Failed to get analysis history", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch history")
		return
	}

	writeJSON(w, http.StatusOK, history)
}

// analyzeFailure выбирает статус и сообщение для ошибки анализа
func analyzeFailure(err error) (int, string) {
	if errors.Is(err, usecase.ErrInvalidInput) {
		return http.StatusBadRequest, "Token and a numeric guild_id are required"
	}
	if errors.Is(err, usecase.ErrAggregationFault) {
		return http.StatusInternalServerError, "Failed to build the guild report"
	}

	switch session.KindOf(err) {
	case session.KindNotFound:
		return http.StatusOK, "Guild not found or the bot is not a member of it"
	case session.KindTimeout:
		return http.StatusInternalServerError, "Timed out waiting for guild data"
	case session.KindConnectFailed:
		return http.StatusInternalServerError, "Failed to connect to Discord, check the bot token"
	case session.KindProtocol:
		return http.StatusInternalServerError, "Discord sent an unexpected response"
	}

	return http.StatusInternalServerError, "Internal server error"
}
