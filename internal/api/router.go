package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/opticlinic/clinic-flow/internal/auth"
	"github.com/opticlinic/clinic-flow/internal/middleware"
	"github.com/opticlinic/clinic-flow/internal/staff"
)

type Router struct {
	handler        *Handler
	authMiddleware *auth.Middleware
}

func NewRouter(handler *Handler, authService auth.Service) *Router {
	return &Router{
		handler:        handler,
		authMiddleware: auth.NewMiddleware(authService),
	}
}

func (r *Router) SetupRouter(logger *zap.Logger) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.RequestID(),
		middleware.SecurityHeaders(),
		middleware.Recovery(logger),
		middleware.Logger(logger),
		middleware.Timeout(30*time.Second),
		middleware.RateLimit(rate.Every(time.Second), 30),
		middleware.CORS(),
	)

	router.GET("/health", r.handler.Health)

	api := router.Group("/api")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/login", r.handler.Login)
			authGroup.POST("/refresh", r.handler.RefreshToken)
			authGroup.GET("/profile", r.authMiddleware.RequireRoles(), r.handler.GetProfile)
			authGroup.PUT("/password", r.authMiddleware.RequireRoles(), r.handler.ChangePassword)
			authGroup.POST("/register", r.authMiddleware.RequireRoles(string(staff.RoleAdmin)), r.handler.RegisterUser)
		}

		protected := api.Group("")
		protected.Use(r.authMiddleware.RequireRoles())
		{
			patients := protected.Group("/patients")
			{
				patients.GET("", r.handler.ListPatients)
				patients.POST("", r.handler.RegisterPatient)
				patients.GET("/:id", r.handler.GetPatient)
				patients.PUT("/:id", r.handler.UpdatePatient)
				patients.DELETE("/:id", r.handler.DeletePatient)

				// Journey operations are keyed by patient, not by journey ID.
				patients.POST("/:id/check-in", r.handler.CheckIn)
				patients.GET("/:id/journey", r.handler.GetJourney)
				patients.PATCH("/:id/journey/step", r.handler.UpdateJourneyStep)
				patients.GET("/:id/journey/receipt", r.handler.GetReceipt)

				patients.GET("/:id/invoices", r.handler.ListInvoices)
				patients.GET("/:id/eye-tests", r.handler.ListEyeTests)
				patients.GET("/:id/appointments", r.handler.ListAppointments)
				patients.GET("/:id/prescriptions", r.handler.ListPrescriptions)

				patients.POST("/:id/face", r.handler.EnrollFace)
				patients.DELETE("/:id/face", r.handler.UnenrollFace)
			}

			journeys := protected.Group("/journeys")
			{
				journeys.GET("/active", r.handler.GetActiveJourneys)
			}

			payments := protected.Group("/payments")
			{
				payments.POST("", r.handler.ProcessPayment)
				payments.GET("/:id", r.handler.GetInvoice)
			}

			eyeTests := protected.Group("/eye-tests")
			{
				eyeTests.POST("", r.handler.RecordEyeTest)
				eyeTests.GET("/:id", r.handler.GetEyeTest)
			}

			appointments := protected.Group("/appointments")
			{
				appointments.POST("", r.handler.ScheduleAppointment)
				appointments.GET("/:id", r.handler.GetAppointment)
				appointments.POST("/:id/complete", r.handler.CompleteAppointment)
			}

			prescriptions := protected.Group("/prescriptions")
			{
				prescriptions.POST("", r.handler.IssuePrescription)
				prescriptions.GET("/:id", r.handler.GetPrescription)
				prescriptions.POST("/:id/dispense", r.handler.DispensePrescription)
			}

			staffGroup := protected.Group("/staff")
			staffGroup.Use(r.authMiddleware.RequireRoles(string(staff.RoleAdmin)))
			{
				staffGroup.GET("", r.handler.ListStaff)
				staffGroup.POST("", r.handler.RegisterStaff)
				staffGroup.GET("/:id", r.handler.GetStaff)
				staffGroup.PUT("/:id", r.handler.UpdateStaff)
				staffGroup.DELETE("/:id", r.handler.DeactivateStaff)
			}

			faces := protected.Group("/faces")
			{
				faces.POST("/recognize", r.handler.RecognizeFace)
			}

			notifications := protected.Group("/notifications")
			{
				notifications.GET("/user/:id", r.handler.ListNotifications)
				notifications.POST("/:id/read", r.handler.MarkNotificationRead)
			}

			auditGroup := protected.Group("/audit")
			auditGroup.Use(r.authMiddleware.RequireRoles(string(staff.RoleAdmin)))
			{
				auditGroup.GET("/logs", r.handler.GetAuditLogs)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "endpoint not found"})
	})

	return router
}
