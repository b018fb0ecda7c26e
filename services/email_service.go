package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/yazicin/yazicin-api/config"
	"github.com/yazicin/yazicin-api/models"
)

// StatusNotifier tells the customer that their order moved to a new status.
// It runs after the change is committed; a failure never undoes the change.
type StatusNotifier interface {
	NotifyStatusChange(ctx context.Context, order *models.Order, previous models.OrderStatus) error
}

var statusHeadlines = map[models.OrderStatus]string{
	models.StatusAccepted:     "Your order was accepted",
	models.StatusInProduction: "Your order is being printed",
	models.StatusShipped:      "Your order has shipped",
	models.StatusDelivered:    "Your order was delivered",
	models.StatusCancelled:    "Your order was cancelled",
}

// statusEmail renders the subject and plain-text body for order's current status
func statusEmail(order *models.Order) (string, string) {
	headline, ok := statusHeadlines[order.Status]
	if !ok {
		headline = "Your order was updated"
	}
	subject := fmt.Sprintf("%s (#%s)", headline, shortID(order.ID))

	var body strings.Builder
	fmt.Fprintf(&body, "Hello %s,\n\n", order.CustomerName)
	fmt.Fprintf(&body, "%s by %s.\n", headline, order.ProviderName)
	fmt.Fprintf(&body, "File: %s\nPrinter: %s\nPrice: %s\n", order.FileName, order.PrinterName, order.Price.StringFixed(2))
	switch order.Status {
	case models.StatusInProduction:
		if order.ProductionHours != nil {
			fmt.Fprintf(&body, "Estimated production time: %.1f hours\n", *order.ProductionHours)
		}
	case models.StatusShipped:
		if order.TrackingNumber != nil && order.TrackingCompany != nil {
			fmt.Fprintf(&body, "Carrier: %s\nTracking number: %s\n", *order.TrackingCompany, *order.TrackingNumber)
		}
	case models.StatusCancelled:
		if order.CancelReason != nil && *order.CancelReason != "" {
			fmt.Fprintf(&body, "Reason: %s\n", *order.CancelReason)
		}
	}
	return subject, body.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// sesAPI is the part of the SES v2 client the notifier uses
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESNotifier sends status emails through Amazon SES v2
type SESNotifier struct {
	client sesAPI
	from   string
}

func NewSESNotifier(ctx context.Context, cfg *config.Config) (*SESNotifier, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" && cfg.AWSSecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)))
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &SESNotifier{client: sesv2.NewFromConfig(awsConfig), from: cfg.SESFromAddress}, nil
}

func (n *SESNotifier) NotifyStatusChange(ctx context.Context, order *models.Order, previous models.OrderStatus) error {
	if order.CustomerEmail == "" {
		return nil
	}
	subject, body := statusEmail(order)

	_, err := n.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.from),
		Destination: &types.Destination{
			ToAddresses: []string{order.CustomerEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send status email: %w", err)
	}
	return nil
}

// LogNotifier only logs status changes. Used when SES is not configured.
type LogNotifier struct{}

func (LogNotifier) NotifyStatusChange(ctx context.Context, order *models.Order, previous models.OrderStatus) error {
	log.Printf("Order %s moved from %s to %s (customer %s)", order.ID, previous, order.Status, order.CustomerID)
	return nil
}

// StatusChange is a notification captured by MockNotifier
type StatusChange struct {
	OrderID  string
	From     models.OrderStatus
	To       models.OrderStatus
	Subject  string
	Customer string
}

// MockNotifier records notifications for tests. Err, when set, is returned from every call.
type MockNotifier struct {
	mu      sync.Mutex
	changes []StatusChange
	Err     error
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) NotifyStatusChange(ctx context.Context, order *models.Order, previous models.OrderStatus) error {
	subject, _ := statusEmail(order)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = append(m.changes, StatusChange{
		OrderID:  order.ID,
		From:     previous,
		To:       order.Status,
		Subject:  subject,
		Customer: order.CustomerEmail,
	})
	return m.Err
}

// Changes returns a copy of everything recorded so far
func (m *MockNotifier) Changes() []StatusChange {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]StatusChange, len(m.changes))
	copy(out, m.changes)
	return out
}
