package order

import (
	"fmt"
	"time"

	"github.com/mfgops/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// OrderType distinguishes the sales and purchase variants of the order
// lifecycle; the model is shared, the type selects the code prefix and
// whether approval reserves finished-goods stock.
type OrderType string

const (
	OrderTypeSales    OrderType = "SALES"
	OrderTypePurchase OrderType = "PURCHASE"
)

// IsValid checks if the type is a valid OrderType
func (t OrderType) IsValid() bool {
	return t == OrderTypeSales || t == OrderTypePurchase
}

// CodePrefix returns the official code prefix for the order type
func (t OrderType) CodePrefix() string {
	if t == OrderTypePurchase {
		return "PO"
	}
	return "SO"
}

// OrderLine represents a line item in an order
type OrderLine struct {
	shared.BaseEntity
	OrderID         uint64          `gorm:"not null;index"`
	ProductID       uint64          `gorm:"not null"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null"` // Quantity * UnitPrice
	QuantityShipped decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (OrderLine) TableName() string {
	return "order_lines"
}

// NewOrderLine creates a new order line
func NewOrderLine(productID uint64, quantity, unitPrice decimal.Decimal) (*OrderLine, error) {
	if productID == 0 {
		return nil, shared.NewValidationError("Product ID cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewValidationError("Unit price cannot be negative")
	}

	return &OrderLine{
		BaseEntity:      shared.NewBaseEntity(),
		ProductID:       productID,
		Quantity:        quantity,
		UnitPrice:       unitPrice,
		Amount:          quantity.Mul(unitPrice),
		QuantityShipped: decimal.Zero,
	}, nil
}

// Remaining returns the quantity not yet shipped
func (l *OrderLine) Remaining() decimal.Decimal {
	return l.Quantity.Sub(l.QuantityShipped)
}

// IsFullyShipped returns true once the full quantity has been shipped
func (l *OrderLine) IsFullyShipped() bool {
	return l.QuantityShipped.GreaterThanOrEqual(l.Quantity)
}

// Order is the aggregate root for the sales/purchase order lifecycle.
// Monetary totals are always derived server-side from the lines and charges;
// values supplied by callers are never trusted.
type Order struct {
	shared.BaseAggregateRoot
	Code           string      `gorm:"type:varchar(30);not null;uniqueIndex"`
	Type           OrderType   `gorm:"type:varchar(10);not null"`
	Status         OrderStatus `gorm:"type:varchar(20);not null;default:'DRAFT'"`
	CounterpartyID uint64      `gorm:"not null;index"` // agent for sales, supplier for purchase
	CreatorID      uint64      `gorm:"not null;index"`
	ApproverID     *uint64
	OrderDate      time.Time `gorm:"not null"`
	ExpectedDate   *time.Time
	Discount       decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Tax            decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	ShippingCost   decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	Note           string          `gorm:"type:text"`
	Priority       int             `gorm:"not null;default:0"`
	ApprovedAt     *time.Time
	CancelledAt    *time.Time

	Lines []OrderLine `gorm:"foreignKey:OrderID"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates a new order in DRAFT status. The code is assigned by the
// repository once the row id exists (two-phase create).
func NewOrder(orderType OrderType, counterpartyID, creatorID uint64, orderDate time.Time, expectedDate *time.Time, priority int) (*Order, error) {
	if !orderType.IsValid() {
		return nil, shared.NewValidationError("Order type must be SALES or PURCHASE")
	}
	if counterpartyID == 0 {
		return nil, shared.NewValidationError("Counterparty ID cannot be empty")
	}
	if creatorID == 0 {
		return nil, shared.NewValidationError("Creator ID cannot be empty")
	}
	if orderDate.IsZero() {
		orderDate = time.Now()
	}

	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Type:              orderType,
		Status:            OrderStatusDraft,
		CounterpartyID:    counterpartyID,
		CreatorID:         creatorID,
		OrderDate:         orderDate,
		ExpectedDate:      expectedDate,
		Discount:          decimal.Zero,
		Tax:               decimal.Zero,
		ShippingCost:      decimal.Zero,
		TotalAmount:       decimal.Zero,
		Priority:          priority,
		Lines:             make([]OrderLine, 0),
	}, nil
}

// AddLine adds a new line to the order. A product may appear at most once.
func (o *Order) AddLine(productID uint64, quantity, unitPrice decimal.Decimal) (*OrderLine, error) {
	for _, line := range o.Lines {
		if line.ProductID == productID {
			return nil, shared.NewDuplicateLineError(productID)
		}
	}

	line, err := NewOrderLine(productID, quantity, unitPrice)
	if err != nil {
		return nil, err
	}
	line.OrderID = o.ID

	o.Lines = append(o.Lines, *line)
	o.recalculateTotal()
	o.UpdatedAt = time.Now()

	return line, nil
}

// ReplaceLines replaces the full line set, re-validating duplicates and
// recomputing the total. Shipped quantities reset with the new lines, so
// replacement is only legal while the order content is editable.
func (o *Order) ReplaceLines(lines []*OrderLine) error {
	seen := make(map[uint64]struct{}, len(lines))
	for _, line := range lines {
		if _, dup := seen[line.ProductID]; dup {
			return shared.NewDuplicateLineError(line.ProductID)
		}
		seen[line.ProductID] = struct{}{}
	}

	o.Lines = make([]OrderLine, 0, len(lines))
	for _, line := range lines {
		line.OrderID = o.ID
		o.Lines = append(o.Lines, *line)
	}
	o.recalculateTotal()
	o.UpdatedAt = time.Now()

	return nil
}

// SetCharges sets the order-level financial adjustments and recomputes the
// total.
func (o *Order) SetCharges(discount, tax, shippingCost decimal.Decimal) error {
	if discount.IsNegative() {
		return shared.NewValidationError("Discount cannot be negative")
	}
	if tax.IsNegative() {
		return shared.NewValidationError("Tax cannot be negative")
	}
	if shippingCost.IsNegative() {
		return shared.NewValidationError("Shipping cost cannot be negative")
	}

	o.Discount = discount
	o.Tax = tax
	o.ShippingCost = shippingCost
	o.recalculateTotal()
	o.UpdatedAt = time.Now()

	return nil
}

// SetShippingCost replaces the estimated freight cost, typically with the
// actual cost known at shipment time.
func (o *Order) SetShippingCost(cost decimal.Decimal) error {
	if cost.IsNegative() {
		return shared.NewValidationError("Shipping cost cannot be negative")
	}
	o.ShippingCost = cost
	o.recalculateTotal()
	o.UpdatedAt = time.Now()
	return nil
}

// SetNote sets the free-text note
func (o *Order) SetNote(note string) {
	o.Note = note
	o.UpdatedAt = time.Now()
}

// SetPriority sets the order priority
func (o *Order) SetPriority(priority int) {
	o.Priority = priority
	o.UpdatedAt = time.Now()
}

// SetExpectedDate sets the expected delivery/receipt date
func (o *Order) SetExpectedDate(date *time.Time) {
	o.ExpectedDate = date
	o.UpdatedAt = time.Now()
}

// CanModify reports whether the order content is still editable
func (o *Order) CanModify() bool {
	return o.Status == OrderStatusDraft || o.Status == OrderStatusPendingApproval
}

// EnsureEditable guards a content mutation: the order must be in an editable
// status and the caller must be the creator.
func (o *Order) EnsureEditable(callerID uint64) error {
	if !o.CanModify() {
		return shared.NewStateLockError(o.Status.String())
	}
	if o.CreatorID != callerID {
		return shared.NewPrivilegeError("Only the order creator can modify the order")
	}
	return nil
}

// Submit moves the order from DRAFT to PENDING_APPROVAL. Creator only.
// Official code assignment happens in the same transaction, by the caller,
// which also mints the submitted event once the code is final.
func (o *Order) Submit(callerID uint64) error {
	next, err := Transition(o.Status, EventSubmit)
	if err != nil {
		return err
	}
	if o.CreatorID != callerID {
		return shared.NewPrivilegeError("Only the order creator can submit the order")
	}
	if len(o.Lines) == 0 {
		return shared.NewValidationError("Cannot submit an order without lines")
	}

	o.Status = next
	o.UpdatedAt = time.Now()

	return nil
}

// Approve moves the order from PENDING_APPROVAL to APPROVED. Self-approval
// is forbidden. Stock reservation for sales orders happens in the same
// transaction, before this call.
func (o *Order) Approve(approverID uint64) error {
	next, err := Transition(o.Status, EventApprove)
	if err != nil {
		return err
	}
	if approverID == o.CreatorID {
		return shared.NewPrivilegeError("An order cannot be approved by its creator")
	}
	if approverID == 0 {
		return shared.NewValidationError("Approver ID cannot be empty")
	}

	now := time.Now()
	o.Status = next
	o.ApproverID = &approverID
	o.ApprovedAt = &now
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderApprovedEvent(o, approverID))

	return nil
}

// Reject returns the order from PENDING_APPROVAL to DRAFT with an appended
// rejection note. The code is left untouched so resubmission reuses it when
// it is already official.
func (o *Order) Reject(rejecterID uint64, reason string) error {
	next, err := Transition(o.Status, EventReject)
	if err != nil {
		return err
	}
	if rejecterID == o.CreatorID {
		return shared.NewPrivilegeError("An order cannot be rejected by its creator")
	}
	if reason == "" {
		return shared.NewValidationError("Rejection reason is required")
	}

	o.Status = next
	o.appendNote(fmt.Sprintf("Rejected by employee %d: %s", rejecterID, reason))
	o.UpdatedAt = time.Now()
	o.AddDomainEvent(NewOrderRejectedEvent(o, rejecterID, reason))

	return nil
}

// StartProcessing moves the order from APPROVED to IN_PROGRESS
func (o *Order) StartProcessing() error {
	next, err := Transition(o.Status, EventStartProcessing)
	if err != nil {
		return err
	}

	o.Status = next
	o.UpdatedAt = time.Now()

	return nil
}

// EnsureShippable guards a shipment against the current status
func (o *Order) EnsureShippable() error {
	_, err := Transition(o.Status, EventShip)
	return err
}

// RecordShipment increments the shipped quantity on the line for productID,
// failing when the request exceeds the remaining unshipped amount.
func (o *Order) RecordShipment(productID uint64, quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewValidationError("Shipment quantity must be positive")
	}

	for idx := range o.Lines {
		if o.Lines[idx].ProductID != productID {
			continue
		}
		line := &o.Lines[idx]
		if quantity.GreaterThan(line.Remaining()) {
			return shared.NewOverShipmentError(productID, quantity.String(), line.Remaining().String())
		}
		line.QuantityShipped = line.QuantityShipped.Add(quantity)
		line.UpdatedAt = time.Now()
		o.UpdatedAt = line.UpdatedAt
		return nil
	}

	return shared.NewDomainError(shared.CodeNotFound,
		fmt.Sprintf("Order has no line for product %d", productID))
}

// IsFullyShipped returns true once every line is fully shipped
func (o *Order) IsFullyShipped() bool {
	for _, line := range o.Lines {
		if !line.IsFullyShipped() {
			return false
		}
	}
	return len(o.Lines) > 0
}

// SettleShipment finalizes a shipment: the order completes when every line
// is fully shipped and otherwise stays (or lands) in IN_PROGRESS.
func (o *Order) SettleShipment(shipperID uint64) error {
	event := EventShip
	if o.IsFullyShipped() {
		event = EventComplete
	}
	next, err := Transition(o.Status, event)
	if err != nil {
		return err
	}

	o.Status = next
	o.UpdatedAt = time.Now()
	o.AddDomainEvent(NewOrderShippedEvent(o, shipperID, o.Status == OrderStatusCompleted))

	return nil
}

// Cancel cancels the order, appending a cancellation note. Reservation
// release for previously approved orders happens in the same transaction.
// Already shipped units stay consumed.
func (o *Order) Cancel(callerID uint64, reason string) error {
	next, err := Transition(o.Status, EventCancel)
	if err != nil {
		return err
	}
	if reason == "" {
		return shared.NewValidationError("Cancellation reason is required")
	}

	wasReserved := o.HoldsReservations()
	now := time.Now()
	o.Status = next
	o.CancelledAt = &now
	o.appendNote(fmt.Sprintf("Cancelled by employee %d: %s", callerID, reason))
	o.UpdatedAt = now
	o.AddDomainEvent(NewOrderCancelledEvent(o, callerID, reason, wasReserved))

	return nil
}

// MarkDeleted soft-deletes a draft order that already carries an official
// code: the row is kept as CANCELLED so the code sequence stays dense.
// Drafts without an official code are hard-deleted by the repository instead.
func (o *Order) MarkDeleted(callerID uint64) error {
	if o.Status != OrderStatusDraft {
		return shared.NewInvalidTransitionError(o.Status.String(), "delete")
	}
	if o.CreatorID != callerID {
		return shared.NewPrivilegeError("Only the order creator can delete the order")
	}

	now := time.Now()
	o.Status = OrderStatusCancelled
	o.CancelledAt = &now
	o.appendNote(fmt.Sprintf("Deleted by employee %d, order code retained", callerID))
	o.UpdatedAt = now

	return nil
}

// HoldsReservations reports whether the current status implies reserved
// stock units linked to the order.
func (o *Order) HoldsReservations() bool {
	return o.Type == OrderTypeSales &&
		(o.Status == OrderStatusApproved || o.Status == OrderStatusInProgress)
}

// IsDraft returns true if the order is in draft status
func (o *Order) IsDraft() bool {
	return o.Status == OrderStatusDraft
}

// HasOfficialCode reports whether the permanent code has been assigned
func (o *Order) HasOfficialCode() bool {
	return o.Code != "" && !IsDraftCode(o.Code)
}

// LineByProduct returns the line for productID, or nil
func (o *Order) LineByProduct(productID uint64) *OrderLine {
	for idx := range o.Lines {
		if o.Lines[idx].ProductID == productID {
			return &o.Lines[idx]
		}
	}
	return nil
}

// recalculateTotal derives the order total from lines and charges:
// sum(qty*price) - discount + tax + shipping.
func (o *Order) recalculateTotal() {
	sum := decimal.Zero
	for idx := range o.Lines {
		o.Lines[idx].Amount = o.Lines[idx].Quantity.Mul(o.Lines[idx].UnitPrice)
		sum = sum.Add(o.Lines[idx].Amount)
	}
	o.TotalAmount = sum.Sub(o.Discount).Add(o.Tax).Add(o.ShippingCost)
}

func (o *Order) appendNote(entry string) {
	stamp := time.Now().Format("2006-01-02 15:04")
	if o.Note != "" {
		o.Note += "\n"
	}
	o.Note += fmt.Sprintf("[%s] %s", stamp, entry)
}
