package controllers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yazicin/yazicin-api/models"
	"github.com/yazicin/yazicin-api/services"
	"github.com/yazicin/yazicin-api/utils"
)

type UploadController struct {
	files services.PrintFileService
	users *services.UserService
}

func NewUploadController(files services.PrintFileService, users *services.UserService) *UploadController {
	return &UploadController{files: files, users: users}
}

// UploadPrintFile handles POST /api/v1/uploads - stores a 3D model and returns the
// file reference to put on a new order
func (uc *UploadController) UploadPrintFile(c *gin.Context) {
	user, ok := currentUser(c, uc.users)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "MISSING_FILE", "A print file is required in the \"file\" form field")
		return
	}

	ref, err := uc.files.Upload(c.Request.Context(), user.ID, fileHeader)
	if err != nil {
		if models.ErrorCode(err) != "" {
			respondServiceError(c, err, "upload print file")
			return
		}
		log.Printf("Failed to upload print file for user %s: %v", user.ID, err)
		respondError(c, http.StatusBadGateway, "STORAGE_ERROR", "Failed to store the print file")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":         true,
		"data":            ref,
		"allowed_formats": utils.AllowedPrintFormats(),
	})
}
