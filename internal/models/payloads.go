package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Payload is the typed body of a mutation. Each entity kind has exactly one variant.
type Payload interface {
	Kind() EntityKind
}

// OrderLine is a single cart line of an order.
type OrderLine struct {
	MenuItemID string          `json:"menu_item_id" validate:"required"`
	Name       string          `json:"name" validate:"required"`
	Category   string          `json:"category,omitempty"`
	Modifiers  []string        `json:"modifiers,omitempty"`
	UnitPrice  decimal.Decimal `json:"unit_price" validate:"gte=0"`
	Quantity   int             `json:"quantity" validate:"gte=1"`
}

// OrderPayload describes a sale. Order creation is the transaction-creating operation.
type OrderPayload struct {
	CreatedAt     time.Time       `json:"created_at"`
	OrderNumber   string          `json:"order_number" validate:"required"`
	TransactionID TransactionID   `json:"transaction_id,omitempty"`
	CustomerName  string          `json:"customer_name,omitempty"`
	CustomerPhone string          `json:"customer_phone,omitempty" validate:"omitempty,min=8"`
	OrderType     string          `json:"order_type,omitempty" validate:"omitempty,oneof=takeaway dine_in delivery"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Status        string          `json:"status,omitempty"`
	Items         []OrderLine     `json:"items,omitempty" validate:"dive"`
	Total         decimal.Decimal `json:"total" validate:"gte=0"`
}

func (*OrderPayload) Kind() EntityKind { return EntityOrders }

// CustomerPayload describes a loyalty customer.
type CustomerPayload struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone" validate:"required,min=8"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Points  int    `json:"points" validate:"gte=0"`
	Segment string `json:"segment,omitempty"`
}

func (*CustomerPayload) Kind() EntityKind { return EntityCustomers }

// InventoryItemPayload describes a stock item.
type InventoryItemPayload struct {
	LastRestocked *time.Time      `json:"last_restocked,omitempty"`
	Name          string          `json:"name" validate:"required"`
	Category      string          `json:"category,omitempty"`
	Unit          string          `json:"unit" validate:"required"`
	SupplierID    string          `json:"supplier_id,omitempty"`
	CurrentQty    decimal.Decimal `json:"current_quantity" validate:"gte=0"`
	MinQty        decimal.Decimal `json:"min_quantity" validate:"gte=0"`
	CostPerUnit   decimal.Decimal `json:"cost_per_unit" validate:"gte=0"`
}

func (*InventoryItemPayload) Kind() EntityKind { return EntityInventory }

// InventoryLogPayload is an append-only stock adjustment record.
type InventoryLogPayload struct {
	CreatedAt   time.Time       `json:"created_at"`
	StockItemID string          `json:"stock_item_id" validate:"required"`
	Type        string          `json:"type" validate:"required,oneof=in out adjust"`
	Reason      string          `json:"reason,omitempty"`
	PerformedBy string          `json:"performed_by,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	PreviousQty decimal.Decimal `json:"previous_quantity"`
	NewQty      decimal.Decimal `json:"new_quantity" validate:"gte=0"`
}

func (*InventoryLogPayload) Kind() EntityKind { return EntityInventoryLogs }

// ModifierPayload describes a modifier group (e.g. "Spice level").
type ModifierPayload struct {
	Name          string `json:"name" validate:"required"`
	IsRequired    bool   `json:"is_required"`
	AllowMultiple bool   `json:"allow_multiple"`
	MinSelection  int    `json:"min_selection" validate:"gte=0"`
	MaxSelection  int    `json:"max_selection" validate:"gtefield=MinSelection"`
}

func (*ModifierPayload) Kind() EntityKind { return EntityModifiers }

// ModifierOptionPayload is a single option of a modifier group.
type ModifierOptionPayload struct {
	GroupID     string          `json:"group_id" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	ExtraPrice  decimal.Decimal `json:"extra_price" validate:"gte=0"`
	IsAvailable bool            `json:"is_available"`
}

func (*ModifierOptionPayload) Kind() EntityKind { return EntityModifierOptions }

// RecipeIngredient links a recipe to a stock item.
type RecipeIngredient struct {
	StockItemID string          `json:"stock_item_id" validate:"required"`
	Unit        string          `json:"unit" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity" validate:"gt=0"`
}

// RecipePayload describes a menu item recipe.
type RecipePayload struct {
	MenuItemID  string             `json:"menu_item_id" validate:"required"`
	Name        string             `json:"name" validate:"required"`
	Ingredients []RecipeIngredient `json:"ingredients" validate:"required,min=1,dive"`
	Yield       int                `json:"yield" validate:"gte=1"`
}

func (*RecipePayload) Kind() EntityKind { return EntityRecipes }

// PurchaseOrderLine is a line of a purchase order.
type PurchaseOrderLine struct {
	StockItemID string          `json:"stock_item_id" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity" validate:"gt=0"`
	UnitCost    decimal.Decimal `json:"unit_cost" validate:"gte=0"`
}

// PurchaseOrderPayload describes an order placed with a supplier.
type PurchaseOrderPayload struct {
	ExpectedAt *time.Time          `json:"expected_at,omitempty"`
	PONumber   string              `json:"po_number" validate:"required"`
	SupplierID string              `json:"supplier_id" validate:"required"`
	Status     string              `json:"status" validate:"required,oneof=draft pending approved ordered received cancelled"`
	Lines      []PurchaseOrderLine `json:"lines" validate:"dive"`
	Total      decimal.Decimal     `json:"total" validate:"gte=0"`
}

func (*PurchaseOrderPayload) Kind() EntityKind { return EntityPurchaseOrders }

// SupplierPayload describes a supplier.
type SupplierPayload struct {
	Name          string `json:"name" validate:"required"`
	ContactPerson string `json:"contact_person,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty" validate:"omitempty,email"`
	PaymentTerms  string `json:"payment_terms,omitempty"`
	LeadTimeDays  int    `json:"lead_time_days" validate:"gte=0"`
	IsActive      bool   `json:"is_active"`
}

func (*SupplierPayload) Kind() EntityKind { return EntitySuppliers }

// NewPayload returns an empty payload variant for kind.
func NewPayload(kind EntityKind) (Payload, error) {
	switch kind {
	case EntityOrders:
		return &OrderPayload{}, nil
	case EntityCustomers:
		return &CustomerPayload{}, nil
	case EntityInventory:
		return &InventoryItemPayload{}, nil
	case EntityInventoryLogs:
		return &InventoryLogPayload{}, nil
	case EntityModifiers:
		return &ModifierPayload{}, nil
	case EntityModifierOptions:
		return &ModifierOptionPayload{}, nil
	case EntityRecipes:
		return &RecipePayload{}, nil
	case EntityPurchaseOrders:
		return &PurchaseOrderPayload{}, nil
	case EntitySuppliers:
		return &SupplierPayload{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEntity, kind)
}

// DecodePayload decodes raw JSON into the payload variant of kind.
func DecodePayload(kind EntityKind, raw []byte) (Payload, error) {
	p, err := NewPayload(kind)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, fmt.Errorf("failed to decode %s payload: %w", kind, err)
	}
	return p, nil
}
