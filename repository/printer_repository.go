package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yazicin/yazicin-api/models"
	"gorm.io/gorm"
)

// PrinterRepository stores provider printer catalogs
type PrinterRepository interface {
	Create(ctx context.Context, printer *models.Printer) error
	FindByID(ctx context.Context, id string) (*models.Printer, error)
	ListByProvider(ctx context.Context, providerID string) ([]models.Printer, error)
	UpdateStatus(ctx context.Context, id string, status models.PrinterStatus) error
	Delete(ctx context.Context, id string) error
}

type printerRepository struct {
	db *gorm.DB
}

func NewPrinterRepository(db *gorm.DB) PrinterRepository {
	return &printerRepository{db: db}
}

func (r *printerRepository) Create(ctx context.Context, printer *models.Printer) error {
	if err := r.db.WithContext(ctx).Create(printer).Error; err != nil {
		return fmt.Errorf("repository.CreatePrinter: %w", err)
	}
	return nil
}

func (r *printerRepository) FindByID(ctx context.Context, id string) (*models.Printer, error) {
	var printer models.Printer
	if err := r.db.WithContext(ctx).First(&printer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindPrinterByID: %w", err)
	}
	return &printer, nil
}

func (r *printerRepository) ListByProvider(ctx context.Context, providerID string) ([]models.Printer, error) {
	printers := []models.Printer{}
	if err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("created_at ASC").
		Find(&printers).Error; err != nil {
		return nil, fmt.Errorf("repository.ListPrinters: %w", err)
	}
	return printers, nil
}

func (r *printerRepository) UpdateStatus(ctx context.Context, id string, status models.PrinterStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Printer{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	if result.Error != nil {
		return fmt.Errorf("repository.UpdatePrinterStatus: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *printerRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Delete(&models.Printer{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("repository.DeletePrinter: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}
