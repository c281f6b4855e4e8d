package handlers

import (
	"context"
	"fmt"
	"net/http"

	"tesatiki/internal/models"
	"tesatiki/internal/service"
)

type CreateProductRequest struct {
	Listing map[string]any `json:"listing" validate:"required"`
}

type UpdateProductRequest struct {
	ProductID string         `json:"productId" validate:"required"`
	Updates   map[string]any `json:"updates" validate:"required"`
}

type ProductIDRequest struct {
	ProductID string `json:"productId" validate:"required"`
}

type DeleteImagesRequest struct {
	Images    []string `json:"images" validate:"required"`
	ProductID string   `json:"productId"`
}

type ProductResponse struct {
	Success bool            `json:"success"`
	Product *models.Product `json:"product"`
}

// decodeValid decodes the body and runs the struct validator. message is
// sent as a 400 when validation fails.
func (h *Handlers) decodeValid(w http.ResponseWriter, r *http.Request, dst any, message string) bool {
	if !decodeJSON(w, r, dst) {
		return false
	}
	if err := h.Validate.Struct(dst); err != nil {
		WriteError(w, message, http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handlers) GetProducts(w http.ResponseWriter, r *http.Request) {
	body, cached, err := h.FeedService.Products(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", int(h.Cfg.Cache.ProductTTL.Seconds())))
	w.Header().Set("X-Cache", cacheStatus(cached))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if !h.decodeValid(w, r, &req, "listing object required") {
		return
	}

	product, err := h.ProductService.Create(r.Context(), ClaimsFromContext(r.Context()), req.Listing)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, ProductResponse{Success: true, Product: product}, http.StatusOK)
}

func (h *Handlers) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if !h.decodeValid(w, r, &req, "productId and updates required") {
		return
	}

	product, err := h.ProductService.Update(r.Context(), ClaimsFromContext(r.Context()), req.ProductID, req.Updates)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, ProductResponse{Success: true, Product: product}, http.StatusOK)
}

func (h *Handlers) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductIDRequest
	if !h.decodeValid(w, r, &req, "productId required") {
		return
	}

	report, err := h.ProductService.Delete(r.Context(), ClaimsFromContext(r.Context()), req.ProductID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeDeleteReport(w, report)
}

func (h *Handlers) DeleteImages(w http.ResponseWriter, r *http.Request) {
	var req DeleteImagesRequest
	if !h.decodeValid(w, r, &req, "images array required") {
		return
	}

	result, err := h.ProductService.DeleteImages(r.Context(), ClaimsFromContext(r.Context()), req.ProductID, req.Images)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, result, http.StatusOK)
}

func (h *Handlers) ApproveProduct(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.ProductService.Approve)
}

func (h *Handlers) ApproveEdit(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.ProductService.ApproveEdit)
}

func (h *Handlers) RejectEdit(w http.ResponseWriter, r *http.Request) {
	h.moderate(w, r, h.ProductService.RejectEdit)
}

func (h *Handlers) moderate(w http.ResponseWriter, r *http.Request, action func(ctx context.Context, productID string) (*models.Product, error)) {
	var req ProductIDRequest
	if !h.decodeValid(w, r, &req, "productId required") {
		return
	}

	product, err := action(r.Context(), req.ProductID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeSuccess(w, ProductResponse{Success: true, Product: product}, http.StatusOK)
}

func (h *Handlers) RejectProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductIDRequest
	if !h.decodeValid(w, r, &req, "productId required") {
		return
	}

	report, err := h.ProductService.Reject(r.Context(), req.ProductID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeDeleteReport(w, report)
}

func (h *Handlers) RunScheduledTask(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, h.MaintenanceService.Sweep(r.Context()), http.StatusOK)
}

func writeDeleteReport(w http.ResponseWriter, report *service.DeleteReport) {
	status := http.StatusOK
	if !report.Success {
		status = http.StatusInternalServerError
	}
	writeSuccess(w, report, status)
}

func cacheStatus(hit bool) string {
	if hit {
		return "HIT"
	}
	return "MISS"
}
