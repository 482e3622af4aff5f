package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quizforge/quiz-service/internal/services"
	"github.com/quizforge/quiz-service/internal/utils"
)

type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
}

func NewSessionHandler(sessionService services.SessionService, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
	}
}

// CreateSession builds a new quiz session from an imported bank
// @Summary Create session
// @Tags sessions
// @Accept json
// @Produce json
// @Param session body services.CreateSessionRequest true "Session configuration"
// @Success 201 {object} SuccessResponse{data=services.SessionView}
// @Failure 400 {object} ErrorResponse
// @Router /sessions [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req services.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	h.LogRequest(c, "Creating session", "bank_id", req.BankID)

	view, err := h.sessionService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusCreated, "Session created", view)
}

// GetSession returns the current session state
// @Summary Get session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SuccessResponse{data=services.SessionView}
// @Failure 404 {object} ErrorResponse
// @Router /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	view, err := h.sessionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Session retrieved", view)
}

// StartSection dismisses the section intro, unlocking its first question
// @Summary Start section
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SuccessResponse{data=services.SessionView}
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/start-section [post]
func (h *SessionHandler) StartSection(c *gin.Context) {
	view, err := h.sessionService.StartSection(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Section started", view)
}

// SubmitAnswer grades the current question
// @Summary Submit answer
// @Tags sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param answer body services.SubmitAnswerRequest true "Answer payload"
// @Success 200 {object} SuccessResponse{data=services.SessionView}
// @Failure 422 {object} ErrorResponse
// @Router /sessions/{id}/answer [post]
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	var req services.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Invalid request payload", err, err.Error())
		return
	}

	view, err := h.sessionService.SubmitAnswer(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Answer submitted", view)
}

// Advance moves to the next question, section, or the grading phase
// @Summary Advance session
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SuccessResponse{data=services.SessionView}
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/advance [post]
func (h *SessionHandler) Advance(c *gin.Context) {
	view, err := h.sessionService.Advance(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Session advanced", view)
}

// FinishGrading runs the grading phase and persists the history entry
// @Summary Finish grading
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SuccessResponse{data=models.SessionResult}
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/grade [post]
func (h *SessionHandler) FinishGrading(c *gin.Context) {
	result, err := h.sessionService.FinishGrading(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Session graded", result)
}

// Confirm acknowledges the results and discards the session
// @Summary Confirm results
// @Tags sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} SuccessResponse
// @Failure 409 {object} ErrorResponse
// @Router /sessions/{id}/confirm [post]
func (h *SessionHandler) Confirm(c *gin.Context) {
	score, err := h.sessionService.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Session confirmed", gin.H{"score": score})
}

// History lists past session results, most recent first
// @Summary List history
// @Tags history
// @Produce json
// @Param limit query int false "Max entries"
// @Success 200 {object} SuccessResponse
// @Router /history [get]
func (h *SessionHandler) History(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.RespondWithError(c, http.StatusBadRequest, "Invalid limit", err, raw)
			return
		}
		limit = parsed
	}

	entries, err := h.sessionService.History(c.Request.Context(), limit)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "History retrieved", entries)
}
