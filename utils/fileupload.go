package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yazicin/yazicin-api/models"
)

// printFileTypes maps the accepted model formats to the content type they are stored with
var printFileTypes = map[string]string{
	".stl": "model/stl",
	".obj": "model/obj",
	".3mf": "model/3mf",
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// Unwrap exposes the failure as a models.ValidationError so handlers map it like any other bad input
func (e *FileUploadError) Unwrap() error {
	return models.NewValidationError(e.Code, e.Message)
}

// AllowedPrintFormats lists the accepted extensions in a stable order
func AllowedPrintFormats() []string {
	return []string{".stl", ".obj", ".3mf"}
}

// ValidatePrintFile validates the uploaded model's format and size
func ValidatePrintFile(fileHeader *multipart.FileHeader, maxBytes int64) error {
	if fileHeader.Size <= 0 {
		return &FileUploadError{
			Code:    "EMPTY_FILE",
			Message: "Uploaded file is empty",
		}
	}

	if fileHeader.Size > maxBytes {
		return &FileUploadError{
			Code:    "FILE_TOO_LARGE",
			Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", maxBytes/(1024*1024)),
		}
	}

	if _, ok := printFileTypes[strings.ToLower(filepath.Ext(fileHeader.Filename))]; !ok {
		return &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: fmt.Sprintf("Only %s files are allowed", strings.Join(AllowedPrintFormats(), ", ")),
		}
	}

	return nil
}

// PrintFileContentType returns the content type for a validated file name
func PrintFileContentType(filename string) string {
	if contentType, ok := printFileTypes[strings.ToLower(filepath.Ext(filename))]; ok {
		return contentType
	}
	return "application/octet-stream"
}

// SanitizeFileName strips directories and anything outside [A-Za-z0-9._-]
func SanitizeFileName(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	clean := strings.Trim(unsafeFileChars.ReplaceAllString(base, "_"), "._")
	if clean == "" {
		return "model"
	}
	return clean
}

// PrintFileKey builds the storage key for an upload by ownerID.
// Format: print-files/{owner}/{yyyy}/{mm}/{uuid}_{filename}
func PrintFileKey(ownerID, filename string, now time.Time) string {
	return fmt.Sprintf("print-files/%s/%04d/%02d/%s_%s",
		ownerID, now.Year(), int(now.Month()), uuid.NewString(), SanitizeFileName(filename))
}
