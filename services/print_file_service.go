package services

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"time"

	"github.com/yazicin/yazicin-api/models"
	"github.com/yazicin/yazicin-api/utils"
)

// PrintFileService validates uploaded 3D models and keeps them in blob storage.
// Orders only ever hold the returned FileRef.
type PrintFileService interface {
	Upload(ctx context.Context, ownerID string, fileHeader *multipart.FileHeader) (*models.FileRef, error)
	DownloadURL(ctx context.Context, ref models.FileRef) (string, error)
}

type blobPrintFileService struct {
	store    BlobStore
	maxBytes int64
	now      func() time.Time
}

func NewPrintFileService(store BlobStore, maxBytes int64) PrintFileService {
	return &blobPrintFileService{store: store, maxBytes: maxBytes, now: time.Now}
}

func (s *blobPrintFileService) Upload(ctx context.Context, ownerID string, fileHeader *multipart.FileHeader) (*models.FileRef, error) {
	if err := utils.ValidatePrintFile(fileHeader, s.maxBytes); err != nil {
		return nil, err
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Printf("warning: failed to close file: %v", closeErr)
		}
	}()

	key := utils.PrintFileKey(ownerID, fileHeader.Filename, s.now().UTC())
	fileURL, err := s.store.Put(ctx, key, utils.PrintFileContentType(fileHeader.Filename), file, fileHeader.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to upload print file: %w", err)
	}

	return &models.FileRef{
		FileName: utils.SanitizeFileName(fileHeader.Filename),
		FileURL:  fileURL,
		FileSize: fileHeader.Size,
	}, nil
}

func (s *blobPrintFileService) DownloadURL(ctx context.Context, ref models.FileRef) (string, error) {
	if ref.FileURL == "" {
		return "", models.ErrNotFound
	}
	url, err := s.store.PresignedURL(ctx, ref.FileURL)
	if err != nil {
		return "", fmt.Errorf("failed to generate download URL: %w", err)
	}
	return url, nil
}
