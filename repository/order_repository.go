package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/yazicin/yazicin-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository is the Order Entity Store
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	ListByCustomer(ctx context.Context, customerID string) ([]models.Order, error)
	ListByProvider(ctx context.Context, providerID string) ([]models.Order, error)
	ListByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error)

	// Update loads the order, lets mutate change it and writes it back as one unit.
	// An error from mutate aborts the write. A concurrent writer that got there first
	// yields models.ErrConflict.
	Update(ctx context.Context, id string, mutate func(*models.Order) error) (*models.Order, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	if order.Version == 0 {
		order.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("repository.CreateOrder: %w", err)
	}
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("repository.FindOrderByID: %w", err)
	}
	return &order, nil
}

func (r *orderRepository) ListByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	return r.list(ctx, "customer_id = ?", customerID)
}

func (r *orderRepository) ListByProvider(ctx context.Context, providerID string) ([]models.Order, error) {
	return r.list(ctx, "provider_id = ?", providerID)
}

func (r *orderRepository) ListByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	return r.list(ctx, "status = ?", status)
}

func (r *orderRepository) list(ctx context.Context, query string, arg interface{}) ([]models.Order, error) {
	orders := []models.Order{}
	if err := r.db.WithContext(ctx).
		Where(query, arg).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("repository.ListOrders: %w", err)
	}
	return orders, nil
}

func (r *orderRepository) Update(ctx context.Context, id string, mutate func(*models.Order) error) (*models.Order, error) {
	var updated models.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		// row lock where the dialect has one; the version check below covers the rest
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrNotFound
			}
			return fmt.Errorf("repository.UpdateOrder.Load: %w", err)
		}

		previous := order.Version
		if err := mutate(&order); err != nil {
			return err
		}
		order.ID = id
		order.Version = previous + 1

		result := tx.Model(&order).
			Where("version = ?", previous).
			Select("*").
			Omit("created_at").
			Updates(&order)
		if result.Error != nil {
			return fmt.Errorf("repository.UpdateOrder.Save: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return models.ErrConflict
		}

		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
