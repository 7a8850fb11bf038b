package order

import (
	"context"

	"restaurant-pos/internal/models"
)

// GetOrder returns a single order with its priced lines
func (s *Service) GetOrder(ctx context.Context, id int) (*models.Order, error) {
	var order *models.Order
	err := s.runner.Within(ctx, func(st Store) error {
		o, err := st.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		o.Items, err = s.loadLines(ctx, st, id)
		if err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders returns orders newest first, optionally filtered to the
// given statuses. Each raw status is normalized before filtering so
// display aliases work as filter values.
func (s *Service) ListOrders(ctx context.Context, rawStatuses []string) ([]models.Order, error) {
	statuses := make([]models.OrderStatus, 0, len(rawStatuses))
	for _, raw := range rawStatuses {
		parsed, err := models.ParseStatus(raw)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, parsed)
	}

	var orders []models.Order
	err := s.runner.Within(ctx, func(st Store) error {
		list, err := st.ListOrders(ctx, statuses)
		if err != nil {
			return err
		}
		for i := range list {
			list[i].Items, err = s.loadLines(ctx, st, list[i].ID)
			if err != nil {
				return err
			}
		}
		orders = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// QRCodeData returns the payment payload stamped when the order was
// served. Orders not yet served have none.
func (s *Service) QRCodeData(ctx context.Context, id int) (string, error) {
	var data string
	err := s.runner.Within(ctx, func(st Store) error {
		o, err := st.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		if o.QRCodeData == nil {
			return models.Errorf(models.KindNotFound, "order %d has no QR code data", id)
		}
		data = *o.QRCodeData
		return nil
	})
	if err != nil {
		return "", err
	}
	return data, nil
}

// TablesOverview returns the floor view: every table with its occupancy
// and the current order's headline fields
func (s *Service) TablesOverview(ctx context.Context) ([]models.TableOverview, error) {
	var overview []models.TableOverview
	err := s.runner.Within(ctx, func(st Store) error {
		list, err := st.TablesOverview(ctx)
		if err != nil {
			return err
		}
		overview = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return overview, nil
}

// TableConfiguration returns the configured roster in assignment order
func (s *Service) TableConfiguration(ctx context.Context) ([]models.Table, error) {
	var roster []models.Table
	err := s.runner.Within(ctx, func(st Store) error {
		list, err := st.ListTables(ctx)
		if err != nil {
			return err
		}
		roster = list
		return nil
	})
	if err != nil {
		return nil, err
	}
	return roster, nil
}

func (s *Service) loadLines(ctx context.Context, st Store, orderID int) ([]models.OrderLine, error) {
	lines, err := st.OrderLines(ctx, orderID)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		lines[i].SelectedOptions = decodeOptions(lines[i].SelectedOptions)
	}
	return lines, nil
}
