package routes

import (
	"github.com/gin-gonic/gin"

	"stivoting/internal/handlers"
	"stivoting/internal/middleware"
)

func SetupRoutes(r *gin.Engine, authHandler *handlers.AuthHandler, jwtSecret []byte) *gin.Engine {
	auth := r.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/register", authHandler.Register)
		auth.POST("/registerAdmin", authHandler.RegisterAdmin)
		auth.POST("/verifyEmail", authHandler.VerifyEmail)
		auth.POST("/resendEmail", authHandler.ResendEmail)
		auth.POST("/refreshToken", authHandler.RefreshToken)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)
	}

	protected := r.Group("/auth", middleware.AuthMiddleware(jwtSecret))
	{
		protected.GET("/check", authHandler.CheckUser)
	}

	return r
}
