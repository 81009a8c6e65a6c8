package routes

import (
	"github.com/Samarth622/Foodlens-Backend/controllers"
	"github.com/Samarth622/Foodlens-Backend/middlewares"

	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.String(200, "Backend is running")
	})

	// Public auth routes
	users := r.Group("/api/users")
	{
		users.POST("/register", controllers.Register)
		users.POST("/verify-otp", controllers.VerifyOTP)
		users.POST("/resend-otp", controllers.ResendOTP)
		users.POST("/login", controllers.Login)
	}

	// Protected user routes
	usersAuth := r.Group("/api/users")
	usersAuth.Use(middlewares.AuthMiddleware())
	{
		usersAuth.POST("/logout", controllers.Logout)
		usersAuth.GET("/me", controllers.GetUser)
		usersAuth.GET("/profile", controllers.GetProfile)
		usersAuth.PUT("/profile", controllers.UpdateProfile)
	}

	// Protected product routes
	products := r.Group("/api/products")
	products.Use(middlewares.AuthMiddleware())
	{
		products.POST("/upload-analysis", controllers.AnalyzeImage)
		products.GET("/analysis/:productId", controllers.GetProductAnalysis)
		products.GET("/category/:category", controllers.GetCategoryProducts)
		products.GET("/get-recipes", controllers.GetRecipes)
	}

	return r
}
