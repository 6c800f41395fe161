package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	apporder "github.com/mfgops/backend/internal/application/order"
	"github.com/mfgops/backend/internal/domain/stock"
	"github.com/mfgops/backend/internal/interfaces/http/middleware"
)

// StockHandler handles stock intake API endpoints
type StockHandler struct {
	BaseHandler
	intakeService *apporder.StockIntakeService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(intakeService *apporder.StockIntakeService) *StockHandler {
	return &StockHandler{
		intakeService: intakeService,
	}
}

// RecordReceiptRequest represents a request to book finished units into
// stock. Serial numbers are optional; when given their count must match the
// quantity.
type RecordReceiptRequest struct {
	ProductID     uint64   `json:"product_id" binding:"required,gt=0"`
	Quantity      int      `json:"quantity" binding:"required,gt=0"`
	SerialNumbers []string `json:"serial_numbers" binding:"omitempty,dive,min=1"`
	Note          string   `json:"note" binding:"omitempty,max=500"`
}

// StockUnitResponse represents a stock unit in API responses
type StockUnitResponse struct {
	ID           uint64    `json:"id"`
	ProductID    uint64    `json:"product_id"`
	SerialNumber *string   `json:"serial_number,omitempty"`
	Status       string    `json:"status"`
	OrderID      *uint64   `json:"order_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func toStockUnitResponses(units []stock.StockUnit) []StockUnitResponse {
	responses := make([]StockUnitResponse, 0, len(units))
	for _, u := range units {
		responses = append(responses, StockUnitResponse{
			ID:           u.ID,
			ProductID:    u.ProductID,
			SerialNumber: u.SerialNumber,
			Status:       u.Status.String(),
			OrderID:      u.OrderID,
			CreatedAt:    u.CreatedAt,
		})
	}
	return responses
}

// RecordReceipt handles POST /stock/receipts
func (h *StockHandler) RecordReceipt(c *gin.Context) {
	callerID := middleware.GetCallerID(c)
	if callerID == 0 {
		h.Unauthorized(c, "Missing caller identity")
		return
	}

	var req RecordReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	units, err := h.intakeService.RecordReceipt(c.Request.Context(), apporder.ReceiptRequest{
		ProductID:     req.ProductID,
		Quantity:      req.Quantity,
		SerialNumbers: req.SerialNumbers,
		Note:          req.Note,
	}, callerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, toStockUnitResponses(units))
}

// RegisterRoutes registers stock routes on the given router group
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stockGroup := rg.Group("/stock")
	{
		stockGroup.POST("/receipts", h.RecordReceipt)
	}
}
