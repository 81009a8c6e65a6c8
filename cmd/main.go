package main

import (
	"log"
	"os"

	"github.com/Samarth622/Foodlens-Backend/config"
	"github.com/Samarth622/Foodlens-Backend/routes"
	"github.com/Samarth622/Foodlens-Backend/services"
)

func main() {
	config.InitDB()

	recipes := services.NewRecipeService(config.DB, services.NewGeminiService())
	cronSvc := services.NewCronService(config.DB, recipes)
	if err := cronSvc.Start(); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer cronSvc.Stop()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	r := routes.SetupRouter()
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
