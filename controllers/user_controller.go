package controllers

import (
	"net/http"

	"github.com/Samarth622/Foodlens-Backend/services"

	"github.com/gin-gonic/gin"
)

func GetProfile(c *gin.Context) {
	userID := c.GetUint("userID")

	profile, err := services.NewUserService(dbHandle()).GetProfile(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "profile": profile})
}

func UpdateProfile(c *gin.Context) {
	userID := c.GetUint("userID")

	var input services.ProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	completion, err := services.NewUserService(dbHandle()).EditProfile(userID, input)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"message":           "Profile updated successfully",
		"profileCompletion": completion,
	})
}
