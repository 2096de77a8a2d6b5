package main

import (
	"log"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/justsurfingit/pipeline-board/internal/database"
	"github.com/justsurfingit/pipeline-board/internal/handlers"
	"github.com/justsurfingit/pipeline-board/internal/services"
)

func main() {
	// 1. Load Environment Variables (optional in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	// 2. Database Connection
	db := database.Connect()

	// 3. Initialize Core Services (Dependencies)
	jobService := services.NewJobService(db)

	// 4. Initialize Handlers
	jobHandler := handlers.NewJobHandler(jobService)

	// 5. Setup Router & CORS
	r := gin.Default()
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true // For development only
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(config))

	// 6. Define Routes
	api := r.Group("/api/v1")
	{
		api.GET("/health", handlers.HealthCheck)

		// Job Routes
		api.GET("/jobs", jobHandler.ListJobs)
		api.GET("/jobs/stats", jobHandler.StageStats)
		api.POST("/jobs", jobHandler.CreateJob)
		api.PATCH("/jobs/:id", jobHandler.PatchJob)
		api.POST("/jobs/bulk/status", jobHandler.BulkStatus)
		api.POST("/jobs/bulk/deadline", jobHandler.BulkDeadline)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("Server starting on port " + port + "...")
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
