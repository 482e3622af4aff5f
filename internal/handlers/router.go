package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/quizforge/quiz-service/internal/services"
	"github.com/quizforge/quiz-service/internal/utils"
)

type HandlerManager struct {
	bankHandler    *BankHandler
	sessionHandler *SessionHandler
}

func NewHandlerManager(
	bankService services.BankService,
	sessionService services.SessionService,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		bankHandler:    NewBankHandler(bankService, logger),
		sessionHandler: NewSessionHandler(sessionService, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		banks := v1.Group("/banks")
		{
			banks.POST("/import", hm.bankHandler.ImportBank)
			banks.POST("/import-tables", hm.bankHandler.ImportTableFile)
			banks.GET("", hm.bankHandler.ListBanks)
			banks.GET("/:id", hm.bankHandler.GetBank)
		}

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", hm.sessionHandler.CreateSession)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.POST("/:id/start-section", hm.sessionHandler.StartSection)
			sessions.POST("/:id/answer", hm.sessionHandler.SubmitAnswer)
			sessions.POST("/:id/advance", hm.sessionHandler.Advance)
			sessions.POST("/:id/grade", hm.sessionHandler.FinishGrading)
			sessions.POST("/:id/confirm", hm.sessionHandler.Confirm)
		}

		v1.GET("/history", hm.sessionHandler.History)
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "quiz-service",
		})
	})
}
