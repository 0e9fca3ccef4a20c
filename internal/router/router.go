// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/craftlink/partner-backend/internal/config"
	"github.com/craftlink/partner-backend/internal/handlers"
	"github.com/craftlink/partner-backend/internal/middleware"
	"github.com/craftlink/partner-backend/internal/services"
	"github.com/craftlink/partner-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	historyService := services.NewHistoryService(db)
	notificationService := services.NewNotificationService(db, cfg)
	storageService, _ := services.NewStorageService(cfg)
	commissionService := services.NewCommissionService(db, cfg)

	authService := services.NewAuthService(db, cfg)
	leadService := services.NewLeadService(db, cfg, historyService, notificationService)
	lifecycleService := services.NewLifecycleService(db, cfg, historyService, notificationService, leadService)
	trialService := services.NewTrialService(db, cfg, historyService, notificationService, lifecycleService)
	assignmentService := services.NewAssignmentService(db, cfg, historyService, commissionService, notificationService)
	adminService := services.NewAdminService(db, cfg)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	leadHandler := handlers.NewLeadHandler(leadService)
	partnerHandler := handlers.NewPartnerHandler(lifecycleService, storageService)
	trialHandler := handlers.NewTrialHandler(trialService)
	orderHandler := handlers.NewOrderHandler(assignmentService)
	historyHandler := handlers.NewHistoryHandler(historyService)
	adminHandler := handlers.NewAdminHandler(adminService, assignmentService, notificationService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		// Lead routes
		leads := v1.Group("/leads")
		{
			// Public invitation link validation
			leads.GET("/invitations/validate", leadHandler.ValidateInvitation)

			// Admin lead management
			protected := leads.Group("")
			protected.Use(middleware.AuthRequired(), middleware.AdminRequired())
			{
				protected.POST("", leadHandler.CreateLead)
				protected.GET("", leadHandler.GetLeads)
				protected.GET("/:id", leadHandler.GetLead)
				protected.POST("/:id/invite", middleware.InviteRateLimit(), leadHandler.SendInvitation)
				protected.POST("/:id/reject", leadHandler.RejectLead)
			}
		}

		// Partner routes
		partners := v1.Group("/partners")
		{
			// Public application submission (invitation or direct)
			partners.POST("/applications", partnerHandler.SubmitApplication)
			partners.POST("/documents", middleware.UploadRateLimit(), partnerHandler.UploadDocument)

			// Partner self-service
			me := partners.Group("/me")
			me.Use(middleware.AuthRequired())
			{
				me.GET("/notifications", adminHandler.GetPartnerNotifications)
			}

			// Admin pipeline management
			protected := partners.Group("")
			protected.Use(middleware.AuthRequired(), middleware.AdminRequired())
			{
				protected.GET("", partnerHandler.GetPartners)
				protected.GET("/:id", partnerHandler.GetPartner)
				protected.PUT("/:id/document-check", partnerHandler.PassDocumentCheck)
				protected.PUT("/:id/screening", partnerHandler.PassScreening)
				protected.PUT("/:id/service-selection", partnerHandler.SelectServiceCategories)
				protected.PUT("/:id/approve", partnerHandler.ApprovePartner)
				protected.PUT("/:id/reject", partnerHandler.RejectPartner)
				protected.GET("/:id/trials", trialHandler.ListPartnerTrials)
				protected.GET("/:id/trials/evaluation", trialHandler.GetEvaluation)
			}
		}

		// Trial routes
		trials := v1.Group("/trials")
		trials.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			trials.GET("/:id", trialHandler.GetTrial)
			trials.PUT("/:id/outcome", trialHandler.RecordOutcome)
		}

		// Order and assignment routes
		orders := v1.Group("/orders")
		orders.Use(middleware.AuthRequired())
		{
			orders.POST("", orderHandler.CreateOrder)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.POST("/:id/assign", orderHandler.AssignOrder)
			orders.POST("/:id/manual-assign", middleware.AdminRequired(), orderHandler.ManualAssign)
		}

		assignments := v1.Group("/assignments")
		assignments.Use(middleware.AuthRequired())
		{
			assignments.GET("", orderHandler.GetAssignments)
			assignments.GET("/:id", orderHandler.GetAssignment)
			assignments.PUT("/:id/complete", orderHandler.CompleteAssignment)
			assignments.PUT("/:id/cancel", orderHandler.CancelAssignment)
		}

		// Status history ledger
		history := v1.Group("/history")
		history.Use(middleware.AuthRequired())
		{
			history.GET("", middleware.AdminRequired(), historyHandler.GetRecentHistory)
			history.GET("/:entityType/:id", historyHandler.GetEntityHistory)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.GetDashboard)
			admin.GET("/orders/queued", adminHandler.GetQueuedOrders)
			admin.GET("/notifications", adminHandler.GetNotifications)
			admin.PUT("/notifications/:id/read", adminHandler.MarkNotificationRead)

			adminSettings := admin.Group("/settings")
			{
				adminSettings.GET("", adminHandler.GetSettings)
				adminSettings.PUT("/:category/:key", adminHandler.UpdateSetting)
			}
		}
	}

	// Static file serving (for development)
	if cfg.Environment == "development" {
		r.Static("/uploads", "./uploads")
	}

	return r
}
