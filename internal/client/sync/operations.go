package sync

import (
	"context"
	"fmt"

	"github.com/iudanet/possync/internal/models"
)

// operation is a named remote call bound to one queue item.
type operation struct {
	call               func(ctx context.Context) error
	name               string
	createsTransaction bool
}

// resolve maps (entity, action) to the remote operation.
// Pairs missing here are rejected at enqueue and dead-lettered if found in storage.
func (s *Service) resolve(item *models.QueueItem) (operation, error) {
	switch item.Kind {
	case models.EntityOrders:
		switch item.Action {
		case models.ActionCreate:
			op, err := s.create(item, "insert-order")
			op.createsTransaction = true
			return op, err
		case models.ActionUpdate:
			return s.update(item, "update-order")
		}
	case models.EntityCustomers:
		switch item.Action {
		case models.ActionCreate:
			return s.create(item, "insert-customer")
		case models.ActionUpdate:
			return s.update(item, "update-customer")
		}
	case models.EntityInventory:
		switch item.Action {
		case models.ActionCreate:
			return s.create(item, "insert-inventory-item")
		case models.ActionUpdate:
			return s.update(item, "update-inventory-item")
		case models.ActionDelete:
			return s.delete(item, "delete-inventory-item"), nil
		}
	case models.EntityInventoryLogs:
		if item.Action == models.ActionCreate {
			return s.create(item, "insert-inventory-log")
		}
	case models.EntityModifiers:
		switch item.Action {
		case models.ActionCreate:
			return s.create(item, "insert-modifier")
		case models.ActionUpdate:
			return s.update(item, "update-modifier")
		case models.ActionDelete:
			return s.delete(item, "delete-modifier"), nil
		}
	case models.EntityModifierOptions:
		switch item.Action {
		case models.ActionCreate:
			return s.create(item, "insert-modifier-option")
		case models.ActionUpdate:
			return s.update(item, "update-modifier-option")
		case models.ActionDelete:
			return s.delete(item, "delete-modifier-option"), nil
		}
	case models.EntityRecipes:
		switch item.Action {
		case models.ActionCreate:
			return s.create(item, "insert-recipe")
		case models.ActionUpdate:
			return s.update(item, "update-recipe")
		case models.ActionDelete:
			return s.delete(item, "delete-recipe"), nil
		}
	case models.EntityPurchaseOrders:
		switch item.Action {
		case models.ActionCreate:
			return s.create(item, "insert-purchase-order")
		case models.ActionUpdate:
			return s.update(item, "update-purchase-order")
		}
	case models.EntitySuppliers:
		switch item.Action {
		case models.ActionCreate:
			return s.create(item, "insert-supplier")
		case models.ActionUpdate:
			return s.update(item, "update-supplier")
		case models.ActionDelete:
			return s.delete(item, "delete-supplier"), nil
		}
	}
	return operation{}, fmt.Errorf("%w: %s/%s", ErrUnsupportedOperation, item.Kind, item.Action)
}

func (s *Service) create(item *models.QueueItem, name string) (operation, error) {
	if err := checkPayload(item); err != nil {
		return operation{}, err
	}
	return operation{
		name: name,
		call: func(ctx context.Context) error {
			_, err := s.writer.CreateRecord(ctx, item.Kind, item.ID, item.Payload)
			return err
		},
	}, nil
}

func (s *Service) update(item *models.QueueItem, name string) (operation, error) {
	if err := checkPayload(item); err != nil {
		return operation{}, err
	}
	return operation{
		name: name,
		call: func(ctx context.Context) error {
			_, err := s.writer.UpdateRecord(ctx, item.Kind, item.ID, item.Payload)
			return err
		},
	}, nil
}

func (s *Service) delete(item *models.QueueItem, name string) operation {
	return operation{
		name: name,
		call: func(ctx context.Context) error {
			return s.writer.DeleteRecord(ctx, item.Kind, item.ID)
		},
	}
}

func checkPayload(item *models.QueueItem) error {
	if item.Payload == nil {
		return fmt.Errorf("%s %s has no payload", item.Action, item.Kind)
	}
	if item.Payload.Kind() != item.Kind {
		return fmt.Errorf("payload kind %q does not match %q", item.Payload.Kind(), item.Kind)
	}
	return nil
}
