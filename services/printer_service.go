package services

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/yazicin/yazicin-api/models"
	"github.com/yazicin/yazicin-api/repository"
)

// CreatePrinterInput describes a printer a provider adds to their catalog
type CreatePrinterInput struct {
	Brand       string                `json:"brand" validate:"required,max=100"`
	Model       string                `json:"model" validate:"required,max=100"`
	Type        string                `json:"type" validate:"required,oneof=FDM SLA SLS MSLA"`
	BuildVolume models.BuildVolume    `json:"build_volume"`
	Materials   []string              `json:"materials" validate:"required,min=1,dive,required"`
	Colors      []string              `json:"colors" validate:"required,min=1,dive,required"`
	Pricing     models.PrinterPricing `json:"pricing"`
}

type PrinterService struct {
	printers repository.PrinterRepository
	validate *validator.Validate
}

func NewPrinterService(printers repository.PrinterRepository) *PrinterService {
	return &PrinterService{printers: printers, validate: newValidator()}
}

func (s *PrinterService) CreatePrinter(ctx context.Context, providerID string, in CreatePrinterInput) (*models.Printer, error) {
	in.Type = strings.ToUpper(strings.TrimSpace(in.Type))
	if err := validateInput(s.validate, in); err != nil {
		return nil, err
	}
	if in.BuildVolume.X <= 0 || in.BuildVolume.Y <= 0 || in.BuildVolume.Z <= 0 {
		return nil, models.NewValidationError("INVALID_BUILD_VOLUME", "Build volume dimensions must be greater than zero")
	}
	if in.Pricing.PerGram.IsNegative() || in.Pricing.PerHour.IsNegative() || in.Pricing.MinOrder.IsNegative() {
		return nil, models.NewValidationError("INVALID_PRICE", "Printer prices cannot be negative")
	}

	printer := &models.Printer{
		ProviderID:  providerID,
		Brand:       strings.TrimSpace(in.Brand),
		Model:       strings.TrimSpace(in.Model),
		Type:        in.Type,
		BuildVolume: in.BuildVolume,
		Materials:   normalizeList(in.Materials, strings.ToUpper),
		Colors:      normalizeList(in.Colors, strings.ToLower),
		Status:      models.PrinterActive,
		Pricing:     in.Pricing,
	}
	if err := s.printers.Create(ctx, printer); err != nil {
		return nil, err
	}
	return printer, nil
}

// normalizeList trims, normalizes case and drops duplicates, keeping first occurrence order
func normalizeList(values []string, normalize func(string) string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = normalize(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

func (s *PrinterService) GetPrinter(ctx context.Context, id string) (*models.Printer, error) {
	return s.printers.FindByID(ctx, id)
}

func (s *PrinterService) ListProviderPrinters(ctx context.Context, providerID string) ([]models.Printer, error) {
	return s.printers.ListByProvider(ctx, providerID)
}

func (s *PrinterService) SetStatus(ctx context.Context, id string, status models.PrinterStatus) error {
	if !status.IsValid() {
		return models.NewValidationError("INVALID_PRINTER_STATUS", "Printer status must be one of active, inactive, maintenance, busy")
	}
	return s.printers.UpdateStatus(ctx, id, status)
}

// DeletePrinter removes a catalog entry. Orders keep the printer name they copied.
func (s *PrinterService) DeletePrinter(ctx context.Context, id string) error {
	return s.printers.Delete(ctx, id)
}
