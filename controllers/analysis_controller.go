package controllers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/Samarth622/Foodlens-Backend/services"

	"github.com/gin-gonic/gin"
)

// Upload limits enforced before bytes ever reach the decoder.
const maxImageBytes = 2 * 1024 * 1024 // 2MB

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

func newAnalysisService() *services.AnalysisService {
	db := dbHandle()
	return services.NewAnalysisService(
		db,
		services.NewBarcodeService(),
		services.NewProductService(db),
		services.NewGeminiService(),
	)
}

// POST /api/products/upload-analysis
func AnalyzeImage(c *gin.Context) {
	userID := c.GetUint("userID")

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No image uploaded. Please upload a valid product image."})
		return
	}
	if file.Size > maxImageBytes {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Image too large. Maximum size is 2MB."})
		return
	}
	if !allowedImageTypes[file.Header.Get("Content-Type")] {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Only JPEG and PNG images are allowed."})
		return
	}

	f, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No image uploaded. Please upload a valid product image."})
		return
	}
	defer f.Close()

	imageBytes, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No image uploaded. Please upload a valid product image."})
		return
	}

	result, err := newAnalysisService().AnalyzeImage(c.Request.Context(), userID, imageBytes)
	if err != nil {
		respondAnalysisError(c, err)
		return
	}

	message := "Product analyzed successfully."
	if result.Cached {
		message = "Product analyzed successfully (from cache)."
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "analysis": result.Analysis, "message": message})
}

// GET /api/products/analysis/:productId
func GetProductAnalysis(c *gin.Context) {
	userID := c.GetUint("userID")

	productID, err := strconv.ParseUint(c.Param("productId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid product id"})
		return
	}

	result, err := newAnalysisService().AnalyzeProduct(c.Request.Context(), userID, uint(productID))
	if err != nil {
		respondAnalysisError(c, err)
		return
	}

	message := "Product analyzed successfully."
	if result.Cached {
		message = "Product analyzed successfully (from cache)."
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "analysis": result.Analysis, "product": result.Product, "message": message})
}

// GET /api/products/get-recipes
func GetRecipes(c *gin.Context) {
	userID := c.GetUint("userID")
	db := dbHandle()

	user, err := services.NewUserService(db).FindUser(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found. Please login again."})
		return
	}

	batch, err := services.NewRecipeService(db, services.NewGeminiService()).GetLatestRecipes(c.Request.Context(), user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Something went wrong with recipes fetching"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "recipes": batch, "message": "Recipes fetched successfully"})
}

func respondAnalysisError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No image uploaded. Please upload a valid product image."})
	case errors.Is(err, services.ErrDecodeFailed):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Unable to decode barcode. Try uploading a clearer image."})
	case errors.Is(err, services.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Product not found in our database."})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Product not found."})
	case errors.Is(err, services.ErrGenerationFailed):
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to analyze product. Please try again later."})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Something went wrong while analyzing the product. Please try again."})
	}
}
