package order

import (
	"time"

	"github.com/mfgops/backend/internal/domain/order"
	"github.com/mfgops/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// OrderLineInput is the caller-supplied shape of an order line
type OrderLineInput struct {
	ProductID uint64          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// CreateOrderRequest is the input for creating an order in DRAFT status
type CreateOrderRequest struct {
	Type           order.OrderType  `json:"type"`
	CounterpartyID uint64           `json:"counterparty_id"`
	OrderDate      time.Time        `json:"order_date"`
	ExpectedDate   *time.Time       `json:"expected_date"`
	Priority       int              `json:"priority"`
	Discount       decimal.Decimal  `json:"discount"`
	Tax            decimal.Decimal  `json:"tax"`
	ShippingCost   decimal.Decimal  `json:"shipping_cost"`
	Note           string           `json:"note"`
	Lines          []OrderLineInput `json:"lines"`
}

// UpdateOrderRequest patches an order. Nil fields keep the current value;
// a non-nil Lines slice replaces the full line set.
type UpdateOrderRequest struct {
	CounterpartyID *uint64          `json:"counterparty_id"`
	ExpectedDate   *time.Time       `json:"expected_date"`
	Priority       *int             `json:"priority"`
	Discount       *decimal.Decimal `json:"discount"`
	Tax            *decimal.Decimal `json:"tax"`
	ShippingCost   *decimal.Decimal `json:"shipping_cost"`
	Note           *string          `json:"note"`
	Lines          []OrderLineInput `json:"lines"`
}

// ShipmentLineInput names the physical units shipped against one order line
type ShipmentLineInput struct {
	ProductID     uint64   `json:"product_id"`
	SerialNumbers []string `json:"serial_numbers"`
}

// ShipOrderRequest is the input for shipping part or all of an order
type ShipOrderRequest struct {
	Lines             []ShipmentLineInput `json:"lines"`
	ActualFreightCost *decimal.Decimal    `json:"actual_freight_cost"`
}

// ReceiptRequest books finished units into stock. When serial numbers are
// given each creates one unit; otherwise Quantity anonymous units are
// created.
type ReceiptRequest struct {
	ProductID     uint64   `json:"product_id"`
	Quantity      int      `json:"quantity"`
	SerialNumbers []string `json:"serial_numbers"`
	Note          string   `json:"note"`
}

// OrderLineResponse is the read model for one line, enriched with current
// availability when requested through the detail endpoint.
type OrderLineResponse struct {
	ID              uint64          `json:"id"`
	ProductID       uint64          `json:"product_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Amount          decimal.Decimal `json:"amount"`
	QuantityShipped decimal.Decimal `json:"quantity_shipped"`
	Available       *int64          `json:"available,omitempty"`
	Shortage        *int64          `json:"shortage,omitempty"`
}

// OrderResponse is the full read model of an order
type OrderResponse struct {
	ID             uint64              `json:"id"`
	Code           string              `json:"code"`
	Type           order.OrderType     `json:"type"`
	Status         order.OrderStatus   `json:"status"`
	CounterpartyID uint64              `json:"counterparty_id"`
	CreatorID      uint64              `json:"creator_id"`
	ApproverID     *uint64             `json:"approver_id,omitempty"`
	OrderDate      time.Time           `json:"order_date"`
	ExpectedDate   *time.Time          `json:"expected_date,omitempty"`
	Discount       decimal.Decimal     `json:"discount"`
	Tax            decimal.Decimal     `json:"tax"`
	ShippingCost   decimal.Decimal     `json:"shipping_cost"`
	TotalAmount    decimal.Decimal     `json:"total_amount"`
	Note           string              `json:"note"`
	Priority       int                 `json:"priority"`
	ApprovedAt     *time.Time          `json:"approved_at,omitempty"`
	CancelledAt    *time.Time          `json:"cancelled_at,omitempty"`
	Version        int                 `json:"version"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Lines          []OrderLineResponse `json:"lines"`
}

// OrderListItemResponse is the compact read model for list endpoints
type OrderListItemResponse struct {
	ID             uint64            `json:"id"`
	Code           string            `json:"code"`
	Type           order.OrderType   `json:"type"`
	Status         order.OrderStatus `json:"status"`
	CounterpartyID uint64            `json:"counterparty_id"`
	CreatorID      uint64            `json:"creator_id"`
	OrderDate      time.Time         `json:"order_date"`
	TotalAmount    decimal.Decimal   `json:"total_amount"`
	Priority       int               `json:"priority"`
	CreatedAt      time.Time         `json:"created_at"`
}

// ApproveOrderResult carries the approved order together with the
// reservation outcome. Allocation is nil for purchase orders; shortage is
// reported as data alongside the successful approval, never as an error.
type ApproveOrderResult struct {
	Order      OrderResponse            `json:"order"`
	Allocation *stock.AllocationSummary `json:"allocation,omitempty"`
}

// ListOrdersFilter holds list query parameters
type ListOrdersFilter struct {
	Page           int
	PageSize       int
	OrderBy        string
	OrderDir       string
	Search         string
	Type           *order.OrderType
	Status         *order.OrderStatus
	CounterpartyID *uint64
	CreatorID      *uint64
	StartDate      *time.Time
	EndDate        *time.Time
}

// OrderStatusSummary is the per-status order count read model
type OrderStatusSummary struct {
	Draft           int64 `json:"draft"`
	PendingApproval int64 `json:"pending_approval"`
	Approved        int64 `json:"approved"`
	InProgress      int64 `json:"in_progress"`
	Completed       int64 `json:"completed"`
	Cancelled       int64 `json:"cancelled"`
	Total           int64 `json:"total"`
}

// ToOrderResponse maps an order aggregate to its read model
func ToOrderResponse(o *order.Order) OrderResponse {
	lines := make([]OrderLineResponse, 0, len(o.Lines))
	for _, line := range o.Lines {
		lines = append(lines, OrderLineResponse{
			ID:              line.ID,
			ProductID:       line.ProductID,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
			Amount:          line.Amount,
			QuantityShipped: line.QuantityShipped,
		})
	}

	return OrderResponse{
		ID:             o.ID,
		Code:           o.Code,
		Type:           o.Type,
		Status:         o.Status,
		CounterpartyID: o.CounterpartyID,
		CreatorID:      o.CreatorID,
		ApproverID:     o.ApproverID,
		OrderDate:      o.OrderDate,
		ExpectedDate:   o.ExpectedDate,
		Discount:       o.Discount,
		Tax:            o.Tax,
		ShippingCost:   o.ShippingCost,
		TotalAmount:    o.TotalAmount,
		Note:           o.Note,
		Priority:       o.Priority,
		ApprovedAt:     o.ApprovedAt,
		CancelledAt:    o.CancelledAt,
		Version:        o.Version,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
		Lines:          lines,
	}
}

// ToOrderListItemResponses maps order aggregates to the compact list model
func ToOrderListItemResponses(orders []order.Order) []OrderListItemResponse {
	items := make([]OrderListItemResponse, 0, len(orders))
	for _, o := range orders {
		items = append(items, OrderListItemResponse{
			ID:             o.ID,
			Code:           o.Code,
			Type:           o.Type,
			Status:         o.Status,
			CounterpartyID: o.CounterpartyID,
			CreatorID:      o.CreatorID,
			OrderDate:      o.OrderDate,
			TotalAmount:    o.TotalAmount,
			Priority:       o.Priority,
			CreatedAt:      o.CreatedAt,
		})
	}
	return items
}
