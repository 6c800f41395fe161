package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	apporder "github.com/mfgops/backend/internal/application/order"
	"github.com/mfgops/backend/internal/domain/order"
	"github.com/mfgops/backend/internal/interfaces/http/dto"
	"github.com/mfgops/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
)

// OrderHandler handles order lifecycle API endpoints
type OrderHandler struct {
	BaseHandler
	orderService *apporder.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *apporder.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// OrderLineInput represents one line in a create or update request
type OrderLineInput struct {
	ProductID uint64  `json:"product_id" binding:"required,gt=0"`
	Quantity  float64 `json:"quantity" binding:"required,gt=0"`
	UnitPrice float64 `json:"unit_price" binding:"required,gte=0"`
}

// CreateOrderRequest represents a request to create a new draft order
type CreateOrderRequest struct {
	Type           string           `json:"type" binding:"required,oneof=SALES PURCHASE"`
	CounterpartyID uint64           `json:"counterparty_id" binding:"required,gt=0"`
	OrderDate      time.Time        `json:"order_date" binding:"required"`
	ExpectedDate   *time.Time       `json:"expected_date"`
	Priority       int              `json:"priority" binding:"omitempty,min=0,max=3"`
	Discount       *float64         `json:"discount" binding:"omitempty,gte=0"`
	Tax            *float64         `json:"tax" binding:"omitempty,gte=0"`
	ShippingCost   *float64         `json:"shipping_cost" binding:"omitempty,gte=0"`
	Note           string           `json:"note" binding:"omitempty,max=1000"`
	Lines          []OrderLineInput `json:"lines" binding:"required,min=1,dive"`
}

// UpdateOrderRequest represents a request to update an editable order.
// Omitted fields keep their current value; a non-nil lines array replaces
// the full line set.
type UpdateOrderRequest struct {
	CounterpartyID *uint64          `json:"counterparty_id" binding:"omitempty,gt=0"`
	ExpectedDate   *time.Time       `json:"expected_date"`
	Priority       *int             `json:"priority" binding:"omitempty,min=0,max=3"`
	Discount       *float64         `json:"discount" binding:"omitempty,gte=0"`
	Tax            *float64         `json:"tax" binding:"omitempty,gte=0"`
	ShippingCost   *float64         `json:"shipping_cost" binding:"omitempty,gte=0"`
	Note           *string          `json:"note" binding:"omitempty,max=1000"`
	Lines          []OrderLineInput `json:"lines" binding:"omitempty,min=1,dive"`
}

// RejectOrderRequest represents a request to reject a pending order
type RejectOrderRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// CancelOrderRequest represents a request to cancel an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// ShipmentLineInput names the serialized units shipped against one line
type ShipmentLineInput struct {
	ProductID     uint64   `json:"product_id" binding:"required,gt=0"`
	SerialNumbers []string `json:"serial_numbers" binding:"required,min=1,dive,min=1"`
}

// ShipOrderRequest represents a request to ship part or all of an order
type ShipOrderRequest struct {
	Lines             []ShipmentLineInput `json:"lines" binding:"required,min=1,dive"`
	ActualFreightCost *float64            `json:"actual_freight_cost" binding:"omitempty,gte=0"`
}

// ListOrdersQuery represents the list endpoint query parameters
type ListOrdersQuery struct {
	dto.ListRequest
	Type           string `form:"type" binding:"omitempty,oneof=SALES PURCHASE"`
	Status         string `form:"status" binding:"omitempty,oneof=DRAFT PENDING_APPROVAL APPROVED IN_PROGRESS COMPLETED CANCELLED"`
	CounterpartyID uint64 `form:"counterparty_id"`
	CreatorID      uint64 `form:"creator_id"`
	StartDate      string `form:"start_date"`
	EndDate        string `form:"end_date"`
}

func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func toLineInputs(lines []OrderLineInput) []apporder.OrderLineInput {
	inputs := make([]apporder.OrderLineInput, 0, len(lines))
	for _, line := range lines {
		inputs = append(inputs, apporder.OrderLineInput{
			ProductID: line.ProductID,
			Quantity:  decimal.NewFromFloat(line.Quantity),
			UnitPrice: decimal.NewFromFloat(line.UnitPrice),
		})
	}
	return inputs
}

func optionalDecimal(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v)
	return &d
}

// Create handles POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	callerID := middleware.GetCallerID(c)
	if callerID == 0 {
		h.Unauthorized(c, "Missing caller identity")
		return
	}

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := apporder.CreateOrderRequest{
		Type:           order.OrderType(req.Type),
		CounterpartyID: req.CounterpartyID,
		OrderDate:      req.OrderDate,
		ExpectedDate:   req.ExpectedDate,
		Priority:       req.Priority,
		Note:           req.Note,
		Lines:          toLineInputs(req.Lines),
	}
	if req.Discount != nil {
		appReq.Discount = decimal.NewFromFloat(*req.Discount)
	}
	if req.Tax != nil {
		appReq.Tax = decimal.NewFromFloat(*req.Tax)
	}
	if req.ShippingCost != nil {
		appReq.ShippingCost = decimal.NewFromFloat(*req.ShippingCost)
	}

	resp, err := h.orderService.Create(c.Request.Context(), appReq, callerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// GetByID handles GET /orders/:id
func (h *OrderHandler) GetByID(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	resp, err := h.orderService.GetByID(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// List handles GET /orders
func (h *OrderHandler) List(c *gin.Context) {
	var query ListOrdersQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := apporder.ListOrdersFilter{
		Page:     query.Page,
		PageSize: query.PageSize,
		OrderBy:  query.OrderBy,
		OrderDir: query.OrderDir,
		Search:   query.Search,
	}
	if query.Type != "" {
		t := order.OrderType(query.Type)
		filter.Type = &t
	}
	if query.Status != "" {
		s := order.OrderStatus(query.Status)
		filter.Status = &s
	}
	if query.CounterpartyID != 0 {
		filter.CounterpartyID = &query.CounterpartyID
	}
	if query.CreatorID != 0 {
		filter.CreatorID = &query.CreatorID
	}
	if query.StartDate != "" {
		start, err := time.Parse(time.RFC3339, query.StartDate)
		if err != nil {
			h.BadRequest(c, "Invalid start_date, expected RFC 3339")
			return
		}
		filter.StartDate = &start
	}
	if query.EndDate != "" {
		end, err := time.Parse(time.RFC3339, query.EndDate)
		if err != nil {
			h.BadRequest(c, "Invalid end_date, expected RFC 3339")
			return
		}
		filter.EndDate = &end
	}

	items, total, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, items, total, page, pageSize)
}

// GetStatusSummary handles GET /orders/summary
func (h *OrderHandler) GetStatusSummary(c *gin.Context) {
	summary, err := h.orderService.GetStatusSummary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// Update handles PUT /orders/:id
func (h *OrderHandler) Update(c *gin.Context) {
	callerID := middleware.GetCallerID(c)
	if callerID == 0 {
		h.Unauthorized(c, "Missing caller identity")
		return
	}

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	var req UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := apporder.UpdateOrderRequest{
		CounterpartyID: req.CounterpartyID,
		ExpectedDate:   req.ExpectedDate,
		Priority:       req.Priority,
		Discount:       optionalDecimal(req.Discount),
		Tax:            optionalDecimal(req.Tax),
		ShippingCost:   optionalDecimal(req.ShippingCost),
		Note:           req.Note,
	}
	if req.Lines != nil {
		appReq.Lines = toLineInputs(req.Lines)
	}

	resp, err := h.orderService.Update(c.Request.Context(), orderID, appReq, callerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Delete handles DELETE /orders/:id
func (h *OrderHandler) Delete(c *gin.Context) {
	callerID := middleware.GetCallerID(c)
	if callerID == 0 {
		h.Unauthorized(c, "Missing caller identity")
		return
	}

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	if err := h.orderService.Delete(c.Request.Context(), orderID, callerID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Submit handles POST /orders/:id/submit
func (h *OrderHandler) Submit(c *gin.Context) {
	callerID := middleware.GetCallerID(c)
	if callerID == 0 {
		h.Unauthorized(c, "Missing caller identity")
		return
	}

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	resp, err := h.orderService.Submit(c.Request.Context(), orderID, callerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Approve handles POST /orders/:id/approve
func (h *OrderHandler) Approve(c *gin.Context) {
	callerID := middleware.GetCallerID(c)
	if callerID == 0 {
		h.Unauthorized(c, "Missing caller identity")
		return
	}

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	result, err := h.orderService.Approve(c.Request.Context(), orderID, callerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Reject handles POST /orders/:id/reject
func (h *OrderHandler) Reject(c *gin.Context) {
	callerID := middleware.GetCallerID(c)
	if callerID == 0 {
		h.Unauthorized(c, "Missing caller identity")
		return
	}

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	var req RejectOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.orderService.Reject(c.Request.Context(), orderID, callerID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Start handles POST /orders/:id/start
func (h *OrderHandler) Start(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	resp, err := h.orderService.StartProcessing(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Ship handles POST /orders/:id/ship
func (h *OrderHandler) Ship(c *gin.Context) {
	callerID := middleware.GetCallerID(c)
	if callerID == 0 {
		h.Unauthorized(c, "Missing caller identity")
		return
	}

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	var req ShipOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := apporder.ShipOrderRequest{
		ActualFreightCost: optionalDecimal(req.ActualFreightCost),
	}
	for _, line := range req.Lines {
		appReq.Lines = append(appReq.Lines, apporder.ShipmentLineInput{
			ProductID:     line.ProductID,
			SerialNumbers: line.SerialNumbers,
		})
	}

	resp, err := h.orderService.Ship(c.Request.Context(), orderID, appReq, callerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// Cancel handles POST /orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	callerID := middleware.GetCallerID(c)
	if callerID == 0 {
		h.Unauthorized(c, "Missing caller identity")
		return
	}

	orderID, ok := parseIDParam(c, "id")
	if !ok {
		h.BadRequest(c, "Invalid order ID")
		return
	}

	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.orderService.Cancel(c.Request.Context(), orderID, callerID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, resp)
}

// RegisterRoutes registers order routes on the given router group
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.POST("", h.Create)
		orders.GET("", h.List)
		orders.GET("/summary", h.GetStatusSummary)
		orders.GET("/:id", h.GetByID)
		orders.PUT("/:id", h.Update)
		orders.DELETE("/:id", h.Delete)
		orders.POST("/:id/submit", h.Submit)
		orders.POST("/:id/approve", h.Approve)
		orders.POST("/:id/reject", h.Reject)
		orders.POST("/:id/start", h.Start)
		orders.POST("/:id/ship", h.Ship)
		orders.POST("/:id/cancel", h.Cancel)
	}
}
