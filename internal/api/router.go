package api

import (
	"github.com/gin-gonic/gin"

	"github.com/taekwondodev/go-account-service/internal/api/controller"
	"github.com/taekwondodev/go-account-service/internal/api/middleware"
	"github.com/taekwondodev/go-account-service/internal/auth/service"
	"github.com/taekwondodev/go-account-service/internal/logging"
)

func SetupRoutes(authController *controller.AuthController, authService service.AuthService, log logging.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.TrustProxy(), middleware.Logging(log))

	setupAuthRoutes(router.Group("/api"), authController, authService)
	setupSystemRoutes(router, authController)

	return router
}

func setupAuthRoutes(api *gin.RouterGroup, authController *controller.AuthController, authService service.AuthService) {
	api.POST("/register", middleware.ErrorHandler(authController.Register))
	api.POST("/token", middleware.ErrorHandler(authController.Login))
	api.POST("/token/refresh", middleware.ErrorHandler(authController.Refresh))

	users := api.Group("/users", middleware.RequireAuth(authService))
	users.GET("", middleware.ErrorHandler(authController.ListUsers))
	users.POST("", middleware.ErrorHandler(authController.CreateUser))
	users.GET("/me", middleware.ErrorHandler(authController.Me))
}

func setupSystemRoutes(router *gin.Engine, authController *controller.AuthController) {
	router.GET("/healthz", middleware.ErrorHandler(authController.HealthCheck))
}
