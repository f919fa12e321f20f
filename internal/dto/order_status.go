package dto

import "cafedash/internal/domain"

// UpdateStatusRequest is the relay's POST /api/orders body.
type UpdateStatusRequest struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

type UpdateStatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type ListOrdersResponse struct {
	Orders []domain.Order `json:"orders"`
}

const UpdateStatusSuccessMessage = "Order status updated successfully"
