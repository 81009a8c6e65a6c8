package controllers

import (
	"fmt"
	"net/http"

	"github.com/Samarth622/Foodlens-Backend/services"

	"github.com/gin-gonic/gin"
)

// GET /api/products/category/:category
func GetCategoryProducts(c *gin.Context) {
	category := c.Param("category")

	products, total, err := services.NewProductService(dbHandle()).ListByCategory(category)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Something went wrong with product fetching"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       products,
		"totalItems": total,
		"message":    fmt.Sprintf("Products in category %s fetched successfully", category),
	})
}
