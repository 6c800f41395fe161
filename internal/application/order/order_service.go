package order

import (
	"context"
	"fmt"

	"github.com/mfgops/backend/internal/domain/order"
	"github.com/mfgops/backend/internal/domain/shared"
	"github.com/mfgops/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CounterpartyLookup validates agent/supplier references before an order is
// created. Master data lives outside this engine.
type CounterpartyLookup interface {
	Exists(ctx context.Context, id uint64) (bool, error)
}

// defaultAllocationRetries bounds the re-select loop when a concurrent
// approval claims part of our FIFO candidate set.
const defaultAllocationRetries = 3

// OrderService drives the order lifecycle: every operation runs in one
// transaction scope, validates state and ownership before any write,
// recomputes totals server-side, and triggers the stock allocator at the
// approve and ship transitions. Notifications are emitted strictly after
// commit and are best effort.
type OrderService struct {
	scope             TransactionScope
	counterparties    CounterpartyLookup
	publisher         shared.EventPublisher
	logger            *zap.Logger
	allocationRetries int
}

// NewOrderService creates a new OrderService
func NewOrderService(scope TransactionScope, counterparties CounterpartyLookup, logger *zap.Logger) *OrderService {
	return &OrderService{
		scope:             scope,
		counterparties:    counterparties,
		logger:            logger,
		allocationRetries: defaultAllocationRetries,
	}
}

// SetEventPublisher sets the post-commit notification sink
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetAllocationRetries overrides the bounded re-select attempt count used
// when a reservation race loses units between select and update
func (s *OrderService) SetAllocationRetries(n int) {
	if n >= 0 {
		s.allocationRetries = n
	}
}

// Create creates a new order in DRAFT status with an id-derived draft code.
// The total is computed from the lines and charges; caller totals are never
// trusted.
func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest, creatorID uint64) (*OrderResponse, error) {
	exists, err := s.counterparties.Exists(ctx, req.CounterpartyID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, shared.NewDomainError(shared.CodeNotFound,
			fmt.Sprintf("Counterparty %d does not exist", req.CounterpartyID))
	}
	if len(req.Lines) == 0 {
		return nil, shared.NewValidationError("An order requires at least one line")
	}

	o, err := order.NewOrder(req.Type, req.CounterpartyID, creatorID, req.OrderDate, req.ExpectedDate, req.Priority)
	if err != nil {
		return nil, err
	}
	for _, input := range req.Lines {
		if _, err := o.AddLine(input.ProductID, input.Quantity, input.UnitPrice); err != nil {
			return nil, err
		}
	}
	if err := o.SetCharges(req.Discount, req.Tax, req.ShippingCost); err != nil {
		return nil, err
	}
	if req.Note != "" {
		o.SetNote(req.Note)
	}

	var resp OrderResponse
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.Orders().Create(ctx, o); err != nil {
			return err
		}
		resp = ToOrderResponse(o)
		return s.enrichAvailability(ctx, repos, &resp)
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetByID retrieves an order with availability-enriched lines. The read and
// the enrichment share one transaction so they observe the same snapshot.
func (s *OrderService) GetByID(ctx context.Context, orderID uint64) (*OrderResponse, error) {
	var resp OrderResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		resp = ToOrderResponse(o)
		return s.enrichAvailability(ctx, repos, &resp)
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// List retrieves orders matching the filter with pagination
func (s *OrderService) List(ctx context.Context, filter ListOrdersFilter) ([]OrderListItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Type != nil {
		domainFilter.Filters["type"] = string(*filter.Type)
	}
	if filter.Status != nil {
		domainFilter.Filters["status"] = string(*filter.Status)
	}
	if filter.CounterpartyID != nil {
		domainFilter.Filters["counterparty_id"] = *filter.CounterpartyID
	}
	if filter.CreatorID != nil {
		domainFilter.Filters["creator_id"] = *filter.CreatorID
	}
	if filter.StartDate != nil {
		domainFilter.Filters["start_date"] = *filter.StartDate
	}
	if filter.EndDate != nil {
		domainFilter.Filters["end_date"] = *filter.EndDate
	}

	var (
		items []OrderListItemResponse
		total int64
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		orders, err := repos.Orders().FindAll(ctx, domainFilter)
		if err != nil {
			return err
		}
		total, err = repos.Orders().Count(ctx, domainFilter)
		if err != nil {
			return err
		}
		items = ToOrderListItemResponses(orders)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Update patches an order. Allowed only while the content is editable
// (DRAFT or PENDING_APPROVAL) and only for the creator. A supplied line set
// replaces the existing lines entirely; totals are recomputed either way.
func (s *OrderService) Update(ctx context.Context, orderID uint64, req UpdateOrderRequest, callerID uint64) (*OrderResponse, error) {
	if req.CounterpartyID != nil {
		exists, err := s.counterparties.Exists(ctx, *req.CounterpartyID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, shared.NewDomainError(shared.CodeNotFound,
				fmt.Sprintf("Counterparty %d does not exist", *req.CounterpartyID))
		}
	}

	var resp OrderResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.EnsureEditable(callerID); err != nil {
			return err
		}

		if req.CounterpartyID != nil {
			o.CounterpartyID = *req.CounterpartyID
		}
		if req.ExpectedDate != nil {
			o.SetExpectedDate(req.ExpectedDate)
		}
		if req.Priority != nil {
			o.SetPriority(*req.Priority)
		}
		if req.Note != nil {
			o.SetNote(*req.Note)
		}
		if req.Lines != nil {
			lines := make([]*order.OrderLine, 0, len(req.Lines))
			for _, input := range req.Lines {
				line, err := order.NewOrderLine(input.ProductID, input.Quantity, input.UnitPrice)
				if err != nil {
					return err
				}
				lines = append(lines, line)
			}
			if err := o.ReplaceLines(lines); err != nil {
				return err
			}
		}

		discount, tax, shipping := o.Discount, o.Tax, o.ShippingCost
		if req.Discount != nil {
			discount = *req.Discount
		}
		if req.Tax != nil {
			tax = *req.Tax
		}
		if req.ShippingCost != nil {
			shipping = *req.ShippingCost
		}
		if err := o.SetCharges(discount, tax, shipping); err != nil {
			return err
		}

		if err := repos.Orders().Save(ctx, o); err != nil {
			return err
		}
		resp = ToOrderResponse(o)
		return s.enrichAvailability(ctx, repos, &resp)
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Submit moves a draft order to PENDING_APPROVAL, assigning the permanent
// sequential code when the current code is still a draft code. Resubmission
// after rejection keeps an already-official code, so Submit is idempotent
// on the code.
func (s *OrderService) Submit(ctx context.Context, orderID, callerID uint64) (*OrderResponse, error) {
	var (
		resp   OrderResponse
		events []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.Submit(callerID); err != nil {
			return err
		}
		if !o.HasOfficialCode() {
			code, err := repos.Orders().NextOfficialCode(ctx, o.Type.CodePrefix(), o.OrderDate.Year())
			if err != nil {
				return err
			}
			o.Code = code
		}
		o.AddDomainEvent(order.NewOrderSubmittedEvent(o))
		if err := repos.Orders().Save(ctx, o); err != nil {
			return err
		}
		resp = ToOrderResponse(o)
		events = o.GetDomainEvents()
		o.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishAfterCommit(ctx, events)
	return &resp, nil
}

// Approve moves a pending order to APPROVED. Self-approval is forbidden.
// For sales orders the stock allocator reserves units per line inside the
// same transaction; shortage is surfaced in the result, not as an error.
func (s *OrderService) Approve(ctx context.Context, orderID, approverID uint64) (*ApproveOrderResult, error) {
	var (
		result ApproveOrderResult
		events []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.Approve(approverID); err != nil {
			return err
		}

		if o.Type == order.OrderTypeSales {
			summary, err := s.allocate(ctx, repos, o, approverID)
			if err != nil {
				return err
			}
			result.Allocation = summary
		}

		if err := repos.Orders().Save(ctx, o); err != nil {
			return err
		}
		result.Order = ToOrderResponse(o)
		events = o.GetDomainEvents()
		o.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishAfterCommit(ctx, events)
	return &result, nil
}

// Reject returns a pending order to DRAFT with a timestamped rejection note.
// The code stays untouched so resubmission reuses it when already official.
func (s *OrderService) Reject(ctx context.Context, orderID, rejecterID uint64, reason string) (*OrderResponse, error) {
	var (
		resp   OrderResponse
		events []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.Reject(rejecterID, reason); err != nil {
			return err
		}
		if err := repos.Orders().Save(ctx, o); err != nil {
			return err
		}
		resp = ToOrderResponse(o)
		events = o.GetDomainEvents()
		o.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishAfterCommit(ctx, events)
	return &resp, nil
}

// StartProcessing moves an approved order to IN_PROGRESS
func (s *OrderService) StartProcessing(ctx context.Context, orderID uint64) (*OrderResponse, error) {
	var resp OrderResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.StartProcessing(); err != nil {
			return err
		}
		if err := repos.Orders().Save(ctx, o); err != nil {
			return err
		}
		resp = ToOrderResponse(o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ship records a shipment against an APPROVED or IN_PROGRESS order. Every
// named serial must belong to the right product and be free or reserved for
// this order; shipped quantities never exceed the remaining unshipped
// amount. The order completes when every line is fully shipped.
func (s *OrderService) Ship(ctx context.Context, orderID uint64, req ShipOrderRequest, shipperID uint64) (*OrderResponse, error) {
	if len(req.Lines) == 0 {
		return nil, shared.NewValidationError("A shipment requires at least one line")
	}

	var (
		resp   OrderResponse
		events []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if err := o.EnsureShippable(); err != nil {
			return err
		}

		// Validation pass: resolve and verify every unit before any write.
		type resolvedLine struct {
			productID uint64
			quantity  decimal.Decimal
			unitIDs   []uint64
		}
		resolved := make([]resolvedLine, 0, len(req.Lines))
		for _, input := range req.Lines {
			if len(input.SerialNumbers) == 0 {
				return shared.NewValidationError("Shipment lines require serial numbers")
			}
			line := o.LineByProduct(input.ProductID)
			if line == nil {
				return shared.NewDomainError(shared.CodeNotFound,
					fmt.Sprintf("Order has no line for product %d", input.ProductID))
			}
			quantity := decimal.NewFromInt(int64(len(input.SerialNumbers)))
			if quantity.GreaterThan(line.Remaining()) {
				return shared.NewOverShipmentError(input.ProductID, quantity.String(), line.Remaining().String())
			}

			units, err := repos.Stock().FindUnitsBySerial(ctx, input.ProductID, input.SerialNumbers)
			if err != nil {
				return err
			}
			if len(units) != len(input.SerialNumbers) {
				return shared.NewValidationError(
					fmt.Sprintf("Unknown serial numbers for product %d", input.ProductID))
			}
			unitIDs := make([]uint64, 0, len(units))
			for _, unit := range units {
				if !unit.CanShipFor(o.ID) {
					return shared.NewDomainError(shared.CodeConflict,
						fmt.Sprintf("Stock unit %s is not shippable for this order", unitSerial(unit)))
				}
				unitIDs = append(unitIDs, unit.ID)
			}
			resolved = append(resolved, resolvedLine{
				productID: input.ProductID,
				quantity:  quantity,
				unitIDs:   unitIDs,
			})
		}

		// Write pass: claim the units, bump shipped quantities, append the
		// audit rows.
		for _, line := range resolved {
			shipped, err := repos.Stock().MarkShipped(ctx, line.unitIDs, o.ID)
			if err != nil {
				return err
			}
			if shipped != int64(len(line.unitIDs)) {
				return shared.ErrConflict
			}
			if err := o.RecordShipment(line.productID, line.quantity); err != nil {
				return err
			}
			entry, err := stock.NewStockTransaction(stock.TransactionTypeShipment,
				line.productID, line.quantity, &o.ID, shipperID, "Order shipment "+o.Code)
			if err != nil {
				return err
			}
			if err := repos.Stock().RecordTransaction(ctx, entry); err != nil {
				return err
			}
		}

		if req.ActualFreightCost != nil {
			if err := o.SetShippingCost(*req.ActualFreightCost); err != nil {
				return err
			}
		}
		if err := o.SettleShipment(shipperID); err != nil {
			return err
		}
		if err := repos.Orders().Save(ctx, o); err != nil {
			return err
		}
		resp = ToOrderResponse(o)
		events = o.GetDomainEvents()
		o.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishAfterCommit(ctx, events)
	return &resp, nil
}

// Cancel cancels a PENDING_APPROVAL, APPROVED or IN_PROGRESS order. Held
// reservations are released back to stock; already-shipped units stay
// consumed.
func (s *OrderService) Cancel(ctx context.Context, orderID, callerID uint64, reason string) (*OrderResponse, error) {
	var (
		resp   OrderResponse
		events []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		wasReserved := o.HoldsReservations()
		if err := o.Cancel(callerID, reason); err != nil {
			return err
		}

		if wasReserved {
			if err := s.releaseReservations(ctx, repos, o, callerID); err != nil {
				return err
			}
		}

		if err := repos.Orders().Save(ctx, o); err != nil {
			return err
		}
		resp = ToOrderResponse(o)
		events = o.GetDomainEvents()
		o.ClearDomainEvents()
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishAfterCommit(ctx, events)
	return &resp, nil
}

// Delete removes a draft order owned by the caller. Drafts that already
// carry an official code are soft-deleted to CANCELLED so the code sequence
// stays intact; others are removed outright.
func (s *OrderService) Delete(ctx context.Context, orderID, callerID uint64) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		o, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if o.HasOfficialCode() {
			if err := o.MarkDeleted(callerID); err != nil {
				return err
			}
			return repos.Orders().Save(ctx, o)
		}
		if !o.IsDraft() {
			return shared.NewInvalidTransitionError(o.Status.String(), "delete")
		}
		if o.CreatorID != callerID {
			return shared.NewPrivilegeError("Only the order creator can delete the order")
		}
		return repos.Orders().Delete(ctx, o.ID)
	})
}

// GetStatusSummary retrieves the order count per status
func (s *OrderService) GetStatusSummary(ctx context.Context) (*OrderStatusSummary, error) {
	summary := &OrderStatusSummary{}
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		counts := []struct {
			status order.OrderStatus
			target *int64
		}{
			{order.OrderStatusDraft, &summary.Draft},
			{order.OrderStatusPendingApproval, &summary.PendingApproval},
			{order.OrderStatusApproved, &summary.Approved},
			{order.OrderStatusInProgress, &summary.InProgress},
			{order.OrderStatusCompleted, &summary.Completed},
			{order.OrderStatusCancelled, &summary.Cancelled},
		}
		for _, c := range counts {
			n, err := repos.Orders().CountByStatus(ctx, c.status)
			if err != nil {
				return err
			}
			*c.target = n
			summary.Total += n
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// allocate reserves stock for every line of a sales order using pure FIFO
// selection. Availability across all products is read with one grouped
// query; each line then claims its candidates with a guarded update and
// re-selects when a concurrent approval wins part of the set. Shortage is
// recorded, never raised.
func (s *OrderService) allocate(ctx context.Context, repos TransactionalRepositories, o *order.Order, actorID uint64) (*stock.AllocationSummary, error) {
	productIDs := make([]uint64, 0, len(o.Lines))
	for _, line := range o.Lines {
		productIDs = append(productIDs, line.ProductID)
	}
	availability, err := repos.Stock().AvailabilityByProduct(ctx, productIDs)
	if err != nil {
		return nil, err
	}

	summary := &stock.AllocationSummary{}
	for _, line := range o.Lines {
		requested := line.Quantity.IntPart()
		want := requested
		if avail := availability[line.ProductID]; avail < want {
			want = avail
		}

		var reserved int64
		remaining := want
		for attempt := 0; attempt <= s.allocationRetries && remaining > 0; attempt++ {
			candidates, err := repos.Stock().FindAvailableUnits(ctx, line.ProductID, int(remaining))
			if err != nil {
				return nil, err
			}
			if len(candidates) == 0 {
				break
			}
			unitIDs := make([]uint64, 0, len(candidates))
			for _, unit := range candidates {
				unitIDs = append(unitIDs, unit.ID)
			}
			claimed, err := repos.Stock().ReserveUnits(ctx, unitIDs, o.ID)
			if err != nil {
				return nil, err
			}
			reserved += claimed
			remaining -= claimed
		}

		if reserved > 0 {
			entry, err := stock.NewStockTransaction(stock.TransactionTypeReservation,
				line.ProductID, decimal.NewFromInt(reserved), &o.ID, actorID,
				"Reservation on approval of "+o.Code)
			if err != nil {
				return nil, err
			}
			if err := repos.Stock().RecordTransaction(ctx, entry); err != nil {
				return nil, err
			}
		}

		summary.Add(stock.LineAllocation{
			ProductID: line.ProductID,
			Requested: requested,
			Reserved:  reserved,
			Shortage:  requested - reserved,
		})
	}
	return summary, nil
}

// releaseReservations returns every unit reserved for the order to stock
// and appends one RELEASE audit row per product.
func (s *OrderService) releaseReservations(ctx context.Context, repos TransactionalRepositories, o *order.Order, actorID uint64) error {
	reserved, err := repos.Stock().FindReservedByOrder(ctx, o.ID)
	if err != nil {
		return err
	}
	if len(reserved) == 0 {
		return nil
	}

	perProduct := make(map[uint64]int64)
	for _, unit := range reserved {
		perProduct[unit.ProductID]++
	}

	released, err := repos.Stock().ReleaseUnitsForOrder(ctx, o.ID)
	if err != nil {
		return err
	}
	if released != int64(len(reserved)) {
		return shared.ErrConflict
	}

	for productID, count := range perProduct {
		entry, err := stock.NewStockTransaction(stock.TransactionTypeRelease,
			productID, decimal.NewFromInt(count), &o.ID, actorID,
			"Release on cancellation of "+o.Code)
		if err != nil {
			return err
		}
		if err := repos.Stock().RecordTransaction(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

// enrichAvailability decorates line read models with current availability
// and the resulting shortage against the remaining unshipped quantity, using
// one grouped query across all products on the order.
func (s *OrderService) enrichAvailability(ctx context.Context, repos TransactionalRepositories, resp *OrderResponse) error {
	if len(resp.Lines) == 0 {
		return nil
	}
	productIDs := make([]uint64, 0, len(resp.Lines))
	for _, line := range resp.Lines {
		productIDs = append(productIDs, line.ProductID)
	}
	availability, err := repos.Stock().AvailabilityByProduct(ctx, productIDs)
	if err != nil {
		return err
	}

	for idx := range resp.Lines {
		line := &resp.Lines[idx]
		available := availability[line.ProductID]
		remaining := line.Quantity.Sub(line.QuantityShipped).IntPart()
		shortage := remaining - available
		if shortage < 0 {
			shortage = 0
		}
		line.Available = &available
		line.Shortage = &shortage
	}
	return nil
}

// publishAfterCommit hands the collected events to the notification sink.
// Failures are logged and swallowed: the business transaction has already
// committed and must not be affected.
func (s *OrderService) publishAfterCommit(ctx context.Context, events []shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("notification sink panicked", zap.Any("panic", r))
		}
	}()
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to emit order notifications",
			zap.Int("events", len(events)),
			zap.Error(err),
		)
	}
}

// unitSerial renders a stock unit identifier for error messages
func unitSerial(unit stock.StockUnit) string {
	if unit.SerialNumber != nil {
		return *unit.SerialNumber
	}
	return fmt.Sprintf("#%d", unit.ID)
}
