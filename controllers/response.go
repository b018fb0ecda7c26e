package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yazicin/yazicin-api/middleware"
	"github.com/yazicin/yazicin-api/models"
	"github.com/yazicin/yazicin-api/services"
)

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

// respondServiceError maps a domain error onto the HTTP envelope. action names the
// operation in the message of unexpected failures.
func respondServiceError(c *gin.Context, err error, action string) {
	if code := models.ErrorCode(err); code != "" {
		respondError(c, http.StatusBadRequest, code, err.Error())
		return
	}

	switch {
	case errors.Is(err, models.ErrNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Resource not found")
	case errors.Is(err, models.ErrForbidden):
		respondError(c, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, models.ErrAlreadyReviewed):
		respondError(c, http.StatusConflict, "ALREADY_REVIEWED", "This order has already been reviewed")
	case errors.Is(err, models.ErrApplicationExists):
		respondError(c, http.StatusConflict, "APPLICATION_EXISTS", "A provider application already exists for this user")
	case errors.Is(err, models.ErrConflict):
		respondError(c, http.StatusConflict, "CONFLICT", "The resource was changed by someone else, please retry")
	default:
		log.Printf("Failed to %s: %v", action, err)
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to "+action)
	}
}

func respondForbidden(c *gin.Context, message string) {
	respondError(c, http.StatusForbidden, "FORBIDDEN", message)
}

// currentUser loads the marketplace user behind the request's token. On failure the
// response has been written and ok is false.
func currentUser(c *gin.Context, users *services.UserService) (*models.User, bool) {
	auth0ID, err := middleware.GetUserID(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Could not extract user information")
		return nil, false
	}

	user, err := users.GetByAuth0ID(c.Request.Context(), auth0ID)
	if errors.Is(err, models.ErrNotFound) {
		respondError(c, http.StatusNotFound, "USER_NOT_FOUND", "User profile not found. Please create a profile first.")
		return nil, false
	}
	if err != nil {
		respondServiceError(c, err, "load user")
		return nil, false
	}
	return user, true
}
