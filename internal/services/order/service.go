package order

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"restaurant-pos/internal/catalog"
	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/models"
	"restaurant-pos/internal/tables"
)

const changedBy = "order-service"

// EventPublisher publishes status transition events after commit.
// A nil publisher disables event publishing.
type EventPublisher interface {
	PublishStatusUpdate(ctx context.Context, event models.StatusUpdateEvent) error
}

// Service is the order transaction manager. Every mutating operation
// runs as one atomic unit of work: validation before any write, full
// rollback plus compensating table release on any failure.
type Service struct {
	runner TxRunner
	alloc  *tables.Allocator
	pub    EventPublisher
	logger *logger.Logger
}

// NewService creates a new order service
func NewService(runner TxRunner, pub EventPublisher, log *logger.Logger) *Service {
	return &Service{
		runner: runner,
		alloc:  tables.NewAllocator(),
		pub:    pub,
		logger: log,
	}
}

// CreateOrder validates, prices and persists a new order, reserving a
// table when the channel type requires one
func (s *Service) CreateOrder(ctx context.Context, req *models.CreateOrderRequest, requestID string) (*models.CreateOrderResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var resp *models.CreateOrderResponse

	err := s.runner.Within(ctx, func(st Store) error {
		computed, err := catalog.PriceLines(ctx, st, req.Items)
		if err != nil {
			return err
		}
		total := catalog.ReconcileTotal(computed, req.TotalPrice)

		if err := st.LockIDAllocation(ctx); err != nil {
			return err
		}
		ids, err := st.OrderIDs(ctx)
		if err != nil {
			return err
		}

		order := &models.Order{
			ID:              nextFreeID(ids),
			CustomerName:    strings.TrimSpace(req.CustomerName),
			TotalPrice:      total,
			Status:          models.StatusPending,
			OrderType:       strings.TrimSpace(req.OrderType),
			PaymentMethod:   optional(req.PaymentMethod),
			NeedsAssistance: req.NeedsAssistance,
			Note:            optional(req.Note),
			CustomerEmail:   optional(req.CustomerEmail),
			EmailReceipt:    req.EmailReceipt,
			PaymentStatus:   paymentStatusOrDefault(req.PaymentStatus),
		}

		// Reserve before the order row exists; the order id is stamped
		// onto the table only after the insert succeeds.
		var reserved *models.Table
		if models.RequiresTable(order.OrderType) {
			reserved, err = s.alloc.Reserve(ctx, st, 0, strings.TrimSpace(req.TableNumber))
			if err != nil {
				return err
			}
			order.TableNumber = &reserved.Number
		}

		if err := st.InsertOrder(ctx, order); err != nil {
			return s.compensate(ctx, st, reserved, err)
		}
		if err := st.InsertOrderLines(ctx, order.ID, req.Items); err != nil {
			return s.compensate(ctx, st, reserved, err)
		}
		if reserved != nil {
			if err := s.alloc.Finalize(ctx, st, reserved.ID, order.ID); err != nil {
				return s.compensate(ctx, st, reserved, err)
			}
		}
		if err := st.AppendStatusLog(ctx, order.ID, order.Status, changedBy, "order created"); err != nil {
			return s.compensate(ctx, st, reserved, err)
		}

		resp = &models.CreateOrderResponse{
			OrderID:     order.ID,
			TableNumber: order.TableNumber,
			TotalPrice:  order.TotalPrice,
			Status:      string(order.Status),
		}
		return nil
	})
	if err != nil {
		s.logger.Error("order_creation_failed", "Failed to create order", requestID, err, map[string]interface{}{
			"customer_name": req.CustomerName,
			"order_type":    req.OrderType,
		})
		return nil, err
	}

	s.logger.Info("order_created", "Order created", requestID, map[string]interface{}{
		"order_id":    resp.OrderID,
		"total_price": resp.TotalPrice,
		"table":       resp.TableNumber,
	})
	return resp, nil
}

// UpdateOrderDetails applies a partial edit: item replacement with
// repricing, note/name/assistance updates, and table release or move.
// Everything happens in one transaction.
func (s *Service) UpdateOrderDetails(ctx context.Context, id int, req *models.UpdateOrderDetailsRequest, requestID string) (*models.Order, error) {
	var updated *models.Order

	err := s.runner.Within(ctx, func(st Store) error {
		order, err := st.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}

		// Served and cancelled orders have released their table and
		// must never reacquire one, so the whole edit is closed off.
		if order.Status.IsTerminal() {
			return models.Errorf(models.KindConflict, "order %d is %s and can no longer be edited", id, order.Status)
		}

		if req.CustomerName != nil {
			name := strings.TrimSpace(*req.CustomerName)
			if name == "" {
				return models.NewError(models.KindValidation, "customer_name cannot be empty")
			}
			order.CustomerName = name
		}
		if req.Note != nil {
			order.Note = optional(*req.Note)
		}
		if req.NeedsAssistance != nil {
			order.NeedsAssistance = *req.NeedsAssistance
		}

		if req.Items != nil {
			if err := models.ValidateLines(req.Items); err != nil {
				return err
			}
			computed, err := catalog.PriceLines(ctx, st, req.Items)
			if err != nil {
				return err
			}
			order.TotalPrice = computed
			if err := st.DeleteOrderLines(ctx, id); err != nil {
				return err
			}
			if err := st.InsertOrderLines(ctx, id, req.Items); err != nil {
				return err
			}
		}

		if req.TableNumber != nil {
			if err := s.moveTable(ctx, st, order, strings.TrimSpace(*req.TableNumber)); err != nil {
				return err
			}
		}

		if err := st.UpdateOrderDetails(ctx, order); err != nil {
			return err
		}

		order.Items, err = s.loadLines(ctx, st, id)
		if err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		s.logger.Error("order_update_failed", "Failed to update order details", requestID, err, map[string]interface{}{
			"order_id": id,
		})
		return nil, err
	}

	s.logger.Info("order_updated", "Order details updated", requestID, map[string]interface{}{
		"order_id": id,
	})
	return updated, nil
}

// moveTable implements the table_label edit: empty label releases the
// current table, a non-empty label reserves the new table before the old
// one is released so a failed reservation leaves the order seated.
func (s *Service) moveTable(ctx context.Context, st Store, o *models.Order, label string) error {
	if label == "" {
		if err := s.alloc.ReleaseForOrder(ctx, st, o.ID); err != nil {
			return err
		}
		o.TableNumber = nil
		return nil
	}

	tbl, err := s.alloc.Reserve(ctx, st, o.ID, label)
	if err != nil {
		return err
	}
	if tbl.CurrentOrderID == nil || *tbl.CurrentOrderID != o.ID {
		if err := s.alloc.ReleaseForOrderExcept(ctx, st, o.ID, tbl.ID); err != nil {
			return err
		}
		if err := s.alloc.Finalize(ctx, st, tbl.ID, o.ID); err != nil {
			return err
		}
	}
	o.TableNumber = &tbl.Number
	return nil
}

// UpdateOrderStatus normalizes the target status, validates the
// transition and applies its side effects atomically: table release on
// entering cancelled or served, QR payload stamped on served and cleared
// otherwise. A transition to the current status is a trivial success.
func (s *Service) UpdateOrderStatus(ctx context.Context, id int, rawStatus, requestID string) (*models.Order, error) {
	target, err := models.ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	var updated *models.Order
	var event *models.StatusUpdateEvent

	err = s.runner.Within(ctx, func(st Store) error {
		order, err := st.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if order.Status == target {
			// Idempotent re-apply: no side effects.
			updated = order
			return nil
		}

		if err := models.ValidateTransition(order.Status, target); err != nil {
			return err
		}

		prevStatus := order.Status
		prevTable := order.TableNumber

		clearTable := target == models.StatusServed || target == models.StatusCancelled
		if clearTable {
			if err := s.alloc.ReleaseForOrder(ctx, st, id); err != nil {
				return err
			}
		}

		var qrData *string
		if target == models.StatusServed {
			payload, err := json.Marshal(models.QRPayload{OrderID: id, Amount: order.TotalPrice})
			if err != nil {
				return models.WrapError(models.KindUnknown, "failed to encode QR payload", err)
			}
			encoded := string(payload)
			qrData = &encoded
		}

		if err := st.UpdateOrderStatus(ctx, id, target, qrData, clearTable); err != nil {
			return err
		}
		if err := st.AppendStatusLog(ctx, id, target, changedBy, ""); err != nil {
			return err
		}

		order.Status = target
		order.QRCodeData = qrData
		if clearTable {
			order.TableNumber = nil
		}
		updated = order

		event = &models.StatusUpdateEvent{
			OrderID:       id,
			OldStatus:     string(prevStatus),
			NewStatus:     string(target),
			TableNumber:   prevTable,
			CustomerName:  order.CustomerName,
			CustomerEmail: order.CustomerEmail,
			EmailReceipt:  order.EmailReceipt,
			TotalPrice:    order.TotalPrice,
			Timestamp:     time.Now().UTC(),
		}
		return nil
	})
	if err != nil {
		s.logger.Error("status_update_failed", "Failed to update order status", requestID, err, map[string]interface{}{
			"order_id": id,
			"status":   rawStatus,
		})
		return nil, err
	}

	// Publishing is best-effort: a broker failure never unwinds a
	// committed transition.
	if event != nil && s.pub != nil {
		if err := s.pub.PublishStatusUpdate(ctx, *event); err != nil {
			s.logger.Error("event_publish_failed", "Failed to publish status update", requestID, err, map[string]interface{}{
				"order_id": id,
			})
		}
	}

	if event != nil {
		s.logger.Info("status_updated", "Order status updated", requestID, map[string]interface{}{
			"order_id":   id,
			"old_status": event.OldStatus,
			"new_status": event.NewStatus,
		})
	}
	return updated, nil
}

// MarkServed transitions the order to served and returns its QR payment
// payload
func (s *Service) MarkServed(ctx context.Context, id int, requestID string) (string, error) {
	updated, err := s.UpdateOrderStatus(ctx, id, string(models.StatusServed), requestID)
	if err != nil {
		return "", err
	}
	if updated.QRCodeData != nil {
		return *updated.QRCodeData, nil
	}
	// Already served before this call; rebuild the stored payload.
	payload, err := json.Marshal(models.QRPayload{OrderID: updated.ID, Amount: updated.TotalPrice})
	if err != nil {
		return "", models.WrapError(models.KindUnknown, "failed to encode QR payload", err)
	}
	return string(payload), nil
}

// DeleteOrder removes the order and its lines, releasing any held table
func (s *Service) DeleteOrder(ctx context.Context, id int, requestID string) error {
	err := s.runner.Within(ctx, func(st Store) error {
		if _, err := st.GetOrderForUpdate(ctx, id); err != nil {
			return err
		}
		if err := s.alloc.ReleaseForOrder(ctx, st, id); err != nil {
			return err
		}
		if err := st.DeleteOrderLines(ctx, id); err != nil {
			return err
		}
		return st.DeleteOrder(ctx, id)
	})
	if err != nil {
		s.logger.Error("order_delete_failed", "Failed to delete order", requestID, err, map[string]interface{}{
			"order_id": id,
		})
		return err
	}

	s.logger.Info("order_deleted", "Order deleted", requestID, map[string]interface{}{
		"order_id": id,
	})
	return nil
}

// HealthCheck verifies the storage layer is reachable
func (s *Service) HealthCheck(ctx context.Context) bool {
	return s.runner.Within(ctx, func(Store) error { return nil }) == nil
}

// compensate releases a speculatively reserved table before surfacing
// the failure. The transaction rollback would undo the reservation as
// well; the explicit release keeps the compensation path visible and
// covers stores where fn-level writes are not transactional.
func (s *Service) compensate(ctx context.Context, st Store, reserved *models.Table, err error) error {
	if reserved != nil {
		if relErr := s.alloc.Release(ctx, st, reserved.ID); relErr != nil {
			s.logger.Error("table_release_failed", "Failed to release reserved table", "", relErr, map[string]interface{}{
				"table": reserved.Number,
			})
		}
	}
	return err
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func paymentStatusOrDefault(s string) string {
	if s == "" {
		return models.PaymentUnpaid
	}
	return s
}
