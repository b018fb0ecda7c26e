package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/yazicin/yazicin-api/models"
	"github.com/yazicin/yazicin-api/realtime"
	"github.com/yazicin/yazicin-api/repository"
)

// CreateOrderInput is what a customer submits when placing an order
type CreateOrderInput struct {
	ProviderID      string                 `json:"provider_id" validate:"required"`
	PrinterID       string                 `json:"printer_id" validate:"required"`
	File            models.FileRef         `json:"file"`
	PrintSettings   models.PrintSettings   `json:"print_settings"`
	ShippingAddress models.ShippingAddress `json:"shipping_address"`
	Notes           string                 `json:"notes" validate:"max=2000"`
	Price           decimal.Decimal        `json:"price"`
}

// OrderService is the entry point for every order mutation. It applies the state machine
// inside a store transaction and announces each committed change.
type OrderService struct {
	repos     *repository.Repositories
	hub       *realtime.Hub
	publisher realtime.Publisher
	notifier  StatusNotifier
	now       func() time.Time
	buffer    time.Duration
	validate  *validator.Validate
}

type OrderOption func(*OrderService)

// WithClock replaces time.Now
func WithClock(now func() time.Time) OrderOption {
	return func(s *OrderService) { s.now = now }
}

func WithNotifier(notifier StatusNotifier) OrderOption {
	return func(s *OrderService) { s.notifier = notifier }
}

// WithPublisher routes change events somewhere other than the local hub, e.g. a RedisBroker
func WithPublisher(publisher realtime.Publisher) OrderOption {
	return func(s *OrderService) { s.publisher = publisher }
}

func WithDeliveryBuffer(buffer time.Duration) OrderOption {
	return func(s *OrderService) { s.buffer = buffer }
}

func NewOrderService(repos *repository.Repositories, hub *realtime.Hub, opts ...OrderOption) *OrderService {
	s := &OrderService{
		repos:     repos,
		hub:       hub,
		publisher: hub,
		notifier:  LogNotifier{},
		now:       time.Now,
		buffer:    models.DefaultDeliveryBuffer,
		validate:  newValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrder places a pending order for customerID, freezing the customer, provider and
// printer names onto it.
func (s *OrderService) CreateOrder(ctx context.Context, customerID string, in CreateOrderInput) (*models.Order, error) {
	in.Notes = strings.TrimSpace(in.Notes)
	if err := validateInput(s.validate, in); err != nil {
		return nil, err
	}
	if err := models.ValidatePrice(in.Price); err != nil {
		return nil, err
	}

	customer, err := s.repos.Users.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	provider, err := s.repos.Providers.FindProvider(ctx, in.ProviderID)
	if errors.Is(err, models.ErrNotFound) || (err == nil && !provider.IsActive) {
		return nil, models.NewValidationError("PROVIDER_NOT_AVAILABLE", "Provider does not exist or is not accepting orders")
	}
	if err != nil {
		return nil, err
	}

	printer, err := s.repos.Printers.FindByID(ctx, in.PrinterID)
	if errors.Is(err, models.ErrNotFound) || (err == nil && printer.ProviderID != provider.UserID) {
		return nil, models.NewValidationError("PRINTER_NOT_FOUND", "Printer does not belong to this provider")
	}
	if err != nil {
		return nil, err
	}
	if printer.Status != models.PrinterActive {
		return nil, models.NewValidationError("PRINTER_NOT_AVAILABLE", "Printer is not accepting orders ("+string(printer.Status)+")")
	}
	if !printer.SupportsMaterial(in.PrintSettings.Material) {
		return nil, models.NewValidationError("MATERIAL_NOT_SUPPORTED", "Printer does not support material "+in.PrintSettings.Material)
	}

	now := s.now()
	order := &models.Order{
		CustomerID:      customer.ID,
		CustomerName:    customer.Name,
		CustomerEmail:   customer.Email,
		ProviderID:      provider.UserID,
		ProviderName:    provider.BusinessName,
		PrinterID:       printer.ID,
		PrinterName:     printer.DisplayName(),
		FileRef:         in.File,
		PrintSettings:   in.PrintSettings,
		ShippingAddress: in.ShippingAddress,
		Notes:           in.Notes,
		Price:           in.Price,
		Status:          models.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repos.Orders.Create(ctx, order); err != nil {
		return nil, err
	}

	s.announce(ctx, order)
	return s.decorate(order), nil
}

// ApplyTransition moves an order to target. Validation failures leave the order untouched.
func (s *OrderService) ApplyTransition(ctx context.Context, orderID string, target models.OrderStatus, extra models.TransitionExtra) (*models.Order, error) {
	var previous models.OrderStatus
	order, err := s.repos.Orders.Update(ctx, orderID, func(o *models.Order) error {
		previous = o.Status
		return o.ApplyTransition(target, extra, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, order)
	if err := s.notifier.NotifyStatusChange(ctx, order, previous); err != nil {
		log.Printf("Failed to notify customer about order %s: %v", order.ID, err)
	}
	return s.decorate(order), nil
}

// ProposePriceChange records the provider's new price for the customer to accept or reject
func (s *OrderService) ProposePriceChange(ctx context.Context, orderID string, newPrice decimal.Decimal) (*models.Order, error) {
	order, err := s.repos.Orders.Update(ctx, orderID, func(o *models.Order) error {
		return o.ProposePriceChange(newPrice, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, order)
	return s.decorate(order), nil
}

// RespondToPriceChange resolves the pending proposal. Status is never affected.
func (s *OrderService) RespondToPriceChange(ctx context.Context, orderID string, accept bool) (*models.Order, *models.PriceResolution, error) {
	var resolution models.PriceResolution
	order, err := s.repos.Orders.Update(ctx, orderID, func(o *models.Order) error {
		var err error
		resolution, err = o.RespondToPriceChange(accept, s.now())
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.announce(ctx, order)
	return s.decorate(order), &resolution, nil
}

// AddTrackingInfo records carrier details ahead of, or after, shipping
func (s *OrderService) AddTrackingInfo(ctx context.Context, orderID, trackingNumber, trackingCompany string) (*models.Order, error) {
	order, err := s.repos.Orders.Update(ctx, orderID, func(o *models.Order) error {
		return o.SetTracking(trackingNumber, trackingCompany, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, order)
	return s.decorate(order), nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	order, err := s.repos.Orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.decorate(order), nil
}

func (s *OrderService) ListOrdersByCustomer(ctx context.Context, customerID string) ([]models.Order, error) {
	return s.decorateAll(s.repos.Orders.ListByCustomer(ctx, customerID))
}

func (s *OrderService) ListOrdersByProvider(ctx context.Context, providerID string) ([]models.Order, error) {
	return s.decorateAll(s.repos.Orders.ListByProvider(ctx, providerID))
}

func (s *OrderService) ListOrdersByStatus(ctx context.Context, status models.OrderStatus) ([]models.Order, error) {
	if !status.IsValid() {
		return nil, models.NewValidationError("INVALID_STATUS", "Unknown order status "+string(status))
	}
	return s.decorateAll(s.repos.Orders.ListByStatus(ctx, status))
}

// SubscribeToOrder calls handler with the current order and then with every later version of it
func (s *OrderService) SubscribeToOrder(ctx context.Context, orderID string, handler func(*models.Order)) (*realtime.Subscription, error) {
	sub := s.hub.Subscribe(realtime.Filter{Kind: realtime.KindOrder, OrderID: orderID}, s.orderHandler(handler))

	// subscribed before reading so no write can fall between the snapshot and the feed
	order, err := s.repos.Orders.FindByID(ctx, orderID)
	if err != nil {
		sub.Unsubscribe()
		return nil, err
	}
	sub.Deliver(realtime.OrderEvent(order))
	return sub, nil
}

// SubscribeToCustomerOrders calls handler once per existing order of the customer, then for
// every change to any of them. Consumers replace their copy by order ID.
func (s *OrderService) SubscribeToCustomerOrders(ctx context.Context, customerID string, handler func(*models.Order)) (*realtime.Subscription, error) {
	return s.subscribeToParty(ctx, realtime.Filter{Kind: realtime.KindOrder, CustomerID: customerID}, handler,
		func() ([]models.Order, error) { return s.repos.Orders.ListByCustomer(ctx, customerID) })
}

// SubscribeToProviderOrders is SubscribeToCustomerOrders for the provider side
func (s *OrderService) SubscribeToProviderOrders(ctx context.Context, providerID string, handler func(*models.Order)) (*realtime.Subscription, error) {
	return s.subscribeToParty(ctx, realtime.Filter{Kind: realtime.KindOrder, ProviderID: providerID}, handler,
		func() ([]models.Order, error) { return s.repos.Orders.ListByProvider(ctx, providerID) })
}

func (s *OrderService) subscribeToParty(ctx context.Context, filter realtime.Filter, handler func(*models.Order), load func() ([]models.Order, error)) (*realtime.Subscription, error) {
	sub := s.hub.Subscribe(filter, s.orderHandler(handler))

	orders, err := load()
	if err != nil {
		sub.Unsubscribe()
		return nil, err
	}
	// oldest first so a client appending in arrival order ends up newest last
	for i := len(orders) - 1; i >= 0; i-- {
		sub.Deliver(realtime.OrderEvent(&orders[i]))
	}
	return sub, nil
}

// orderHandler hands each subscriber its own decorated copy; events are shared between subscribers
func (s *OrderService) orderHandler(handler func(*models.Order)) func(realtime.Event) {
	return func(e realtime.Event) {
		if e.Order == nil {
			return
		}
		handler(s.decorate(e.Order))
	}
}

// announce publishes a committed order. Failures are logged: the write already happened.
func (s *OrderService) announce(ctx context.Context, order *models.Order) {
	if err := s.publisher.Publish(ctx, realtime.OrderEvent(order)); err != nil {
		log.Printf("Failed to publish change for order %s: %v", order.ID, err)
	}
}

// decorate returns a copy of order carrying the production estimate for the current time
func (s *OrderService) decorate(order *models.Order) *models.Order {
	decorated := *order
	decorated.Production = order.ProductionEstimate(s.now(), s.buffer)
	return &decorated
}

func (s *OrderService) decorateAll(orders []models.Order, err error) ([]models.Order, error) {
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range orders {
		orders[i].Production = orders[i].ProductionEstimate(now, s.buffer)
	}
	return orders, nil
}
