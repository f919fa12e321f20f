package controller

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cafedash/internal/domain"
	"cafedash/internal/dto"
	apperrors "cafedash/internal/errors"
)

type UpdateStatusUseCase interface {
	UpdateStatus(ctx context.Context, orderID string, status domain.Status) error
}

type ListOrdersUseCase interface {
	ListRecent(ctx context.Context) ([]domain.Order, error)
}

type OrderController struct {
	updateStatus UpdateStatusUseCase
	listOrders   ListOrdersUseCase
	logger       *zap.Logger
}

func NewOrderController(updateStatus UpdateStatusUseCase, listOrders ListOrdersUseCase, logger *zap.Logger) *OrderController {
	return &OrderController{
		updateStatus: updateStatus,
		listOrders:   listOrders,
		logger:       logger,
	}
}

// UpdateStatus handles POST /api/orders.
func (c *OrderController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.OrderID == "" || req.Status == "" {
		c.writeError(w, http.StatusBadRequest, "Missing orderId or status")
		return
	}

	if !domain.ValidOrderID(req.OrderID) {
		logger.Warn("invalid orderId", zap.String("orderId", req.OrderID))
		c.writeError(w, http.StatusBadRequest, "Invalid orderId")
		return
	}

	status, ok := domain.ParseStatus(req.Status)
	if !ok {
		logger.Warn("invalid status value", zap.String("orderId", req.OrderID), zap.String("status", req.Status))
		c.writeError(w, http.StatusBadRequest, "Invalid status value")
		return
	}

	if err := c.updateStatus.UpdateStatus(r.Context(), req.OrderID, status); err != nil {
		c.handleUseCaseError(w, req.OrderID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.UpdateStatusResponse{
		Success: true,
		Message: dto.UpdateStatusSuccessMessage,
	})
}

// ListOrders handles GET /api/orders.
func (c *OrderController) ListOrders(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	orders, err := c.listOrders.ListRecent(r.Context())
	if err != nil {
		logger.Error("listing orders", zap.Error(err))
		c.writeError(w, http.StatusInternalServerError, "Failed to load orders")
		return
	}

	c.writeJSON(w, http.StatusOK, dto.ListOrdersResponse{Orders: orders})
}

func (c *OrderController) handleUseCaseError(w http.ResponseWriter, orderID string, err error, logger *zap.Logger) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		c.writeError(w, http.StatusBadRequest, ve.Message)
		return
	}

	if _, ok := apperrors.IsNotFoundError(err); ok {
		logger.Warn("order not found", zap.String("orderId", orderID))
		c.writeError(w, http.StatusNotFound, "Order not found")
		return
	}

	logger.Error("updating order status", zap.String("orderId", orderID), zap.Error(err))
	c.writeError(w, http.StatusInternalServerError, "Failed to update order status: "+err.Error())
}

func (c *OrderController) writeError(w http.ResponseWriter, status int, message string) {
	c.writeJSON(w, status, dto.ErrorResponse{Error: message})
}

func (c *OrderController) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
