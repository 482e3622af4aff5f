package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quizforge/quiz-service/internal/services"
	"github.com/quizforge/quiz-service/internal/utils"
)

type BankHandler struct {
	BaseHandler
	bankService services.BankService
}

func NewBankHandler(bankService services.BankService, logger utils.Logger) *BankHandler {
	return &BankHandler{
		BaseHandler: NewBaseHandler(logger),
		bankService: bankService,
	}
}

// ImportBank imports a question bank file (JSON, CSV, or XLSX)
// @Summary Import question bank
// @Tags banks
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Bank file"
// @Success 201 {object} SuccessResponse{data=models.QuestionBank}
// @Failure 400 {object} ErrorResponse
// @Router /banks/import [post]
func (h *BankHandler) ImportBank(c *gin.Context) {
	h.LogRequest(c, "Importing question bank")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Missing bank file", err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Cannot open uploaded file", err)
		return
	}
	defer file.Close()

	bank, err := h.bankService.ImportBank(c.Request.Context(), file, fileHeader.Filename)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusCreated, "Bank imported", bank)
}

// ImportTableFile imports a fill-in-the-blank table question file
// @Summary Import table question file
// @Tags banks
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Table file"
// @Success 201 {object} SuccessResponse{data=models.QuestionBank}
// @Failure 400 {object} ErrorResponse
// @Router /banks/import-tables [post]
func (h *BankHandler) ImportTableFile(c *gin.Context) {
	h.LogRequest(c, "Importing table question file")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Missing table file", err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.RespondWithError(c, http.StatusBadRequest, "Cannot open uploaded file", err)
		return
	}
	defer file.Close()

	bank, err := h.bankService.ImportTableFile(c.Request.Context(), file, fileHeader.Filename)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusCreated, "Table file imported", bank)
}

// ListBanks lists imported banks
// @Summary List banks
// @Tags banks
// @Produce json
// @Success 200 {object} SuccessResponse
// @Router /banks [get]
func (h *BankHandler) ListBanks(c *gin.Context) {
	banks := h.bankService.ListBanks(c.Request.Context())
	h.RespondWithSuccess(c, http.StatusOK, "Banks retrieved", banks)
}

// GetBank returns one imported bank
// @Summary Get bank
// @Tags banks
// @Produce json
// @Param id path string true "Bank ID"
// @Success 200 {object} SuccessResponse{data=models.QuestionBank}
// @Failure 404 {object} ErrorResponse
// @Router /banks/{id} [get]
func (h *BankHandler) GetBank(c *gin.Context) {
	bank, err := h.bankService.GetBank(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Bank retrieved", bank)
}
