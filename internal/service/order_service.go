package service

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sreerambrahmagnani/self-order-backend/internal/models"
	"github.com/sreerambrahmagnani/self-order-backend/internal/storage"
)

// OrderService handles business logic for the order ledger
type OrderService struct {
	orders   *storage.Collection[models.Order]
	notifier Notifier
	validate *validator.Validate
	log      *slog.Logger
}

// NewOrderService creates a new order service
func NewOrderService(orders *storage.Collection[models.Order], notifier Notifier, log *slog.Logger) *OrderService {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report failures by JSON field name so clients see the name
	// they actually sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &OrderService{
		orders:   orders,
		notifier: notifier,
		validate: v,
		log:      log,
	}
}

// List returns all orders in the ledger
func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	return s.orders.All()
}

// Create validates the draft, appends a new order with a fresh id,
// the creation time and pending forced to true, then notifies
// observers with the full record. The ledger is left untouched when
// validation fails.
func (s *OrderService) Create(ctx context.Context, draft models.OrderDraft) (models.Order, error) {
	if err := s.validate.Struct(draft); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return models.Order{}, &ValidationError{
				Field: verrs[0].Field(),
				Rule:  verrs[0].Tag(),
			}
		}
		return models.Order{}, err
	}

	var created models.Order

	err := s.orders.Update(func(records []models.Order) ([]models.Order, error) {
		id := storage.NextID(func(id int64) bool {
			for _, o := range records {
				if o.ID == id {
					return true
				}
			}
			return false
		})

		created = models.Order{
			ID:          id,
			Name:        draft.Name,
			Phone:       draft.Phone,
			TableNumber: draft.TableNumber,
			Items:       draft.Items,
			TotalPrice:  draft.TotalPrice,
			CreatedAt:   time.Now().UTC(),
			Pending:     true,
		}
		return append(records, created), nil
	})
	if err != nil {
		return models.Order{}, err
	}

	s.notifier.OrderCreated(created)
	s.log.Info("order created", "order_id", created.ID, "table", created.TableNumber)
	return created, nil
}

// SetPending updates an order's fulfillment flag. Fulfillment changes
// are pull-based, so no event is published.
func (s *OrderService) SetPending(ctx context.Context, id int64, pending bool) (models.Order, error) {
	var updated models.Order

	err := s.orders.Update(func(records []models.Order) ([]models.Order, error) {
		for i, o := range records {
			if o.ID != id {
				continue
			}
			records[i].Pending = pending
			updated = records[i]
			return records, nil
		}
		return nil, ErrOrderNotFound
	})
	if err != nil {
		return models.Order{}, err
	}

	return updated, nil
}

// Delete removes an order from the ledger
func (s *OrderService) Delete(ctx context.Context, id int64) error {
	return s.orders.Update(func(records []models.Order) ([]models.Order, error) {
		for i, o := range records {
			if o.ID == id {
				return append(records[:i], records[i+1:]...), nil
			}
		}
		return nil, ErrOrderNotFound
	})
}
