package routes

import (
	"github.com/dipiu-foods/dipiu-api/internal/container"
	"github.com/dipiu-foods/dipiu-api/internal/handlers"
	"github.com/dipiu-foods/dipiu-api/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	// Set Gin mode for production
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// Add middleware
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	// API version 1
	v1 := r.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "OK",
				"service": "dipiu-api",
			})
		})

		// public routes
		v1.POST("/signup", handlers.CreateUser(container.UserService))
		v1.POST("/login", handlers.AuthenticateUser(container.UserService))
		v1.POST("/enquiries", handlers.SendEnquiry(container.EnquiryService))

		// public market views (the site's ticker banner)
		v1.GET("/markets/upcoming", handlers.ListUpcomingMarkets(container.MarketService))
		v1.GET("/markets/upcoming/stream", handlers.StreamMarkets(container.UpcomingWatcher))
	}

	// admin panel surface
	admin := v1.Group("/admin")
	admin.Use(middleware.AuthMiddleware(container.UserService, container.Logger))
	admin.Use(middleware.RequireAdmin())
	{
		admin.POST("/logout", handlers.Logout())

		admin.GET("/markets", handlers.ListAllMarkets(container.MarketService))
		admin.GET("/markets/stream", handlers.StreamMarkets(container.AllWatcher))
		admin.POST("/markets", handlers.CreateMarkets(container.MarketService))
		admin.PATCH("/markets/:id", handlers.UpdateMarket(container.MarketService))
		admin.DELETE("/markets/:id", handlers.DeleteMarket(container.MarketService))
	}

	return r
}
