package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/greenmart/greenmart-backend/pkg/db"
	"github.com/greenmart/greenmart-backend/pkg/db/models"
	"github.com/greenmart/greenmart-backend/pkg/enums"
	pkgerrors "github.com/greenmart/greenmart-backend/pkg/errors"
	"github.com/greenmart/greenmart-backend/pkg/pagination"
)

// Service exposes order history reads and lifecycle transitions.
type Service interface {
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error)
	GetForUser(ctx context.Context, orderID, userID uuid.UUID) (*OrderDTO, error)
	InvoiceForUser(ctx context.Context, orderID, userID uuid.UUID) (*Invoice, error)
	TrackingForUser(ctx context.Context, orderID, userID uuid.UUID) (*Tracking, error)
	CancelForUser(ctx context.Context, orderID, userID uuid.UUID) (*OrderDTO, error)
	PayForUser(ctx context.Context, orderID, userID uuid.UUID) (*OrderDTO, error)

	MarkPaid(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*OrderDTO, error)
}

type service struct {
	repo     *Repository
	dbClient *db.Client
}

// NewService constructs an orders service instance.
func NewService(repo *Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

// ListForUser returns a cursor page of the user's order history.
func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}

	rows, err := s.repo.ListForUser(ctx, userID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	result := &ListResult{Items: []OrderDTO{}}
	for i := range rows {
		if i >= limit {
			break
		}
		result.Items = append(result.Items, *NewOrderDTO(&rows[i]))
	}
	if len(rows) > limit {
		last := rows[limit-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &next
	}
	return result, nil
}

// GetForUser loads one order the user owns.
func (s *service) GetForUser(ctx context.Context, orderID, userID uuid.UUID) (*OrderDTO, error) {
	order, err := s.findForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	return NewOrderDTO(order), nil
}

// InvoiceForUser builds the invoice projection for an order the user owns.
func (s *service) InvoiceForUser(ctx context.Context, orderID, userID uuid.UUID) (*Invoice, error) {
	order, err := s.findForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	return NewInvoice(order), nil
}

// TrackingForUser builds the fulfilment timeline for an order the user owns.
func (s *service) TrackingForUser(ctx context.Context, orderID, userID uuid.UUID) (*Tracking, error) {
	order, err := s.findForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	return NewTracking(order), nil
}

// CancelForUser lets a customer cancel their own order while it is still
// pending. Later stages need staff intervention.
func (s *service) CancelForUser(ctx context.Context, orderID, userID uuid.UUID) (*OrderDTO, error) {
	order, err := s.findForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if order.Status != enums.OrderStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("a %s order cannot be cancelled by the customer", order.Status))
	}
	return s.cancel(ctx, order)
}

// PayForUser records an online payment confirmation for an order the user
// owns. COD orders settle on delivery and can only be marked paid by staff.
func (s *service) PayForUser(ctx context.Context, orderID, userID uuid.UUID) (*OrderDTO, error) {
	order, err := s.findForUser(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != enums.PaymentMethodOnline {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "only online orders can be paid here")
	}
	return s.markPaid(ctx, order)
}

// MarkPaid flips the payment flag. Calling it on an already paid order is a
// no-op so payment callbacks can retry safely.
func (s *service) MarkPaid(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.findByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.markPaid(ctx, order)
}

func (s *service) markPaid(ctx context.Context, order *models.Order) (*OrderDTO, error) {
	if order.IsPaid {
		return NewOrderDTO(order), nil
	}
	if order.Status == enums.OrderStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cancelled orders cannot be marked paid")
	}

	if err := s.repo.UpdateStatus(ctx, order.ID, map[string]any{"is_paid": true}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: mark paid")
	}
	order.IsPaid = true
	return NewOrderDTO(order), nil
}

// UpdateStatus moves an order along the fulfilment track. Cancelling returns
// the committed stock in the same transaction as the status flip.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, target enums.OrderStatus) (*OrderDTO, error) {
	if !target.Valid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	order, err := s.findByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransition(target) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("cannot move a %s order to %s", order.Status, target))
	}

	if target == enums.OrderStatusCancelled {
		return s.cancel(ctx, order)
	}

	if err := s.repo.UpdateStatus(ctx, order.ID, map[string]any{"status": target}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update status")
	}
	order.Status = target
	return NewOrderDTO(order), nil
}

// cancel flips the status and puts every line's quantity back on the shelf
// atomically. Lines whose catalog row was deleted since placement have
// nothing to restock.
func (s *service) cancel(ctx context.Context, order *models.Order) (*OrderDTO, error) {
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		for _, item := range order.Items {
			switch {
			case item.VariantID != nil:
				if err := txRepo.RestockVariant(ctx, *item.VariantID, item.Quantity); err != nil {
					return err
				}
			case item.ProductID != nil:
				if err := txRepo.RestockProduct(ctx, *item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
		}
		return txRepo.UpdateStatus(ctx, order.ID, map[string]any{"status": enums.OrderStatusCancelled})
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: cancel order")
	}

	order.Status = enums.OrderStatusCancelled
	return NewOrderDTO(order), nil
}

func (s *service) findByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}
	return order, nil
}

func (s *service) findForUser(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindForUser(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}
	return order, nil
}
