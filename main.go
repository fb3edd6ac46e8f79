package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Vardhancode7564/CampusFound-Updated-Version/config"
	"github.com/Vardhancode7564/CampusFound-Updated-Version/controllers"
	"github.com/Vardhancode7564/CampusFound-Updated-Version/middleware"
	"github.com/Vardhancode7564/CampusFound-Updated-Version/models"
	"github.com/Vardhancode7564/CampusFound-Updated-Version/services"
)

func main() {
	log.Println("Starting CampusFound API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.User{},
		&models.Admin{},
		&models.Item{},
		&models.Claim{},
		&models.Contact{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Listing cache. Redis is optional: without it every listing read goes
	// straight to the database.
	redisClient, err := config.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Printf("Redis unavailable, listing cache disabled: %v", err)
	}
	if redisClient != nil {
		middleware.InitListingCache(services.NewRedisCache(redisClient))
	} else {
		middleware.InitListingCache(nil)
	}

	// Image storage
	if cfg.AWSS3Bucket != "" {
		s3Service, err := services.InitS3Service()
		if err != nil {
			log.Printf("S3 unavailable, image uploads disabled: %v", err)
		} else {
			services.InitImageService(s3Service)
		}
	} else {
		log.Println("AWS_S3_BUCKET not set, image uploads disabled")
	}

	// Email and chat assistant, both optional
	services.InitEmailService(cfg)
	if services.InitGeminiService(cfg) == nil {
		log.Println("GEMINI_API_KEY not set, chat assistant disabled")
	}

	// Identity resolver
	resolver, err := middleware.NewResolver(cfg, db)
	if err != nil {
		log.Fatalf("Failed to set up identity resolver: %v", err)
	}

	router := setupRouter(cfg, resolver)

	// Start server
	addr := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter wires middleware and routes onto a Gin engine
func setupRouter(cfg *config.Config, resolver *middleware.Resolver) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.ClientURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	api.Use(middleware.RateLimiter())

	api.GET("/health", healthCheck)

	// Items: browsing is public, mutation requires a resolved identity
	items := api.Group("/items")
	{
		items.GET("", middleware.GetListingCache().CacheItems(), controllers.ListItems)
		items.POST("", resolver.Protect(), controllers.CreateItem)
		items.GET("/my/posts", resolver.Protect(), controllers.GetMyItems)
		items.GET("/:id", controllers.GetItem)
		items.PUT("/:id", resolver.Protect(), controllers.UpdateItem)
		items.DELETE("/:id", resolver.Protect(), controllers.DeleteItem)
	}

	claims := api.Group("/claims", resolver.Protect())
	{
		claims.POST("", controllers.CreateClaim)
		claims.GET("/my", controllers.GetMyClaims)
		claims.GET("/item/:itemId", controllers.GetItemClaims)
		claims.PUT("/:id", controllers.UpdateClaimStatus)
		claims.DELETE("/:id", controllers.DeleteClaim)
	}

	auth := api.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)
		auth.GET("/me", resolver.Protect(), controllers.GetMe)
	}

	admin := api.Group("/admin")
	{
		admin.POST("/register", controllers.AdminRegister)
		admin.POST("/login", controllers.AdminLogin)
		admin.GET("/me", resolver.Protect(), middleware.RequireAdmin(), controllers.GetAdminMe)
	}

	contact := api.Group("/contact")
	{
		contact.POST("", controllers.SubmitContact)
		contact.GET("", resolver.Protect(), middleware.RequireAdmin(), controllers.ListContacts)
		contact.PUT("/:id", resolver.Protect(), middleware.RequireAdmin(), controllers.UpdateContactStatus)
	}

	api.POST("/chat", controllers.Chat)

	upload := api.Group("/upload", resolver.Protect())
	{
		upload.POST("", controllers.UploadImage)
		upload.DELETE("/*key", controllers.DeleteImage)
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "CampusFound API is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
