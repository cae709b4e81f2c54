package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sreerambrahmagnani/self-order-backend/internal/models"
	"github.com/sreerambrahmagnani/self-order-backend/internal/service"
)

// maxUploadSize caps in-memory parsing of multipart product forms (32MB)
const maxUploadSize = 32 << 20

// ImageStore stores uploaded product images and returns their public
// reference path.
type ImageStore interface {
	Save(r io.Reader, originalName string) (string, error)
}

// ProductHandler handles product-related HTTP requests
type ProductHandler struct {
	service *service.ProductService
	assets  ImageStore
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *service.ProductService, assets ImageStore, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		assets:  assets,
		logger:  logger,
	}
}

// ListProducts handles GET /api/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to read products file", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, products, h.logger)
}

// CreateProduct handles POST /api/products.
// Expects a multipart form with a "product" JSON field and an "image"
// file field.
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	draft, ok := h.parseDraft(w, r)
	if !ok {
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		h.logger.Warn("missing image upload", "error", err)
		WriteError(w, http.StatusBadRequest, "Image file is required", h.logger)
		return
	}
	defer file.Close()

	assetRef, err := h.assets.Save(file, header.Filename)
	if err != nil {
		h.logger.Error("failed to store product image", "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to store image file", h.logger)
		return
	}

	product, err := h.service.Create(r.Context(), draft, assetRef)
	if err != nil {
		h.logger.Error("failed to create product", "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to write to products file", h.logger)
		return
	}

	WriteJSON(w, http.StatusCreated, product, h.logger)
}

// UpdateProduct handles PUT /api/products/{id}. The "image" file field
// is optional; when present the old image is replaced.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	draft, ok := h.parseDraft(w, r)
	if !ok {
		return
	}

	var newAssetRef string
	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()

		ref, err := h.assets.Save(file, header.Filename)
		if err != nil {
			h.logger.Error("failed to store product image", "error", err)
			WriteError(w, http.StatusInternalServerError, "Failed to store image file", h.logger)
			return
		}
		newAssetRef = ref
	} else if !errors.Is(err, http.ErrMissingFile) {
		h.logger.Warn("failed to read image upload", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid image upload", h.logger)
		return
	}

	product, err := h.service.Update(r.Context(), id, draft, newAssetRef)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			WriteError(w, http.StatusNotFound, "Product not found", h.logger)
			return
		}
		h.logger.Error("failed to update product", "product_id", id, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to write to products file", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, product, h.logger)
}

// ToggleProduct handles PATCH /api/products/{id}
func (h *ProductHandler) ToggleProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	product, err := h.service.ToggleEnabled(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			WriteError(w, http.StatusNotFound, "Product not found", h.logger)
			return
		}
		h.logger.Error("failed to toggle product", "product_id", id, "error", err)
		WriteError(w, http.StatusInternalServerError, "Failed to write to products file", h.logger)
		return
	}

	WriteJSON(w, http.StatusOK, product, h.logger)
}

// DeleteProduct handles DELETE /api/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			WriteError(w, http.StatusNotFound, "Product not found", h.logger)
		case errors.Is(err, service.ErrAssetCleanup):
			WriteError(w, http.StatusInternalServerError, "Failed to delete image file", h.logger)
		default:
			h.logger.Error("failed to delete product", "product_id", id, "error", err)
			WriteError(w, http.StatusInternalServerError, "Failed to write to products file", h.logger)
		}
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"message": "Product deleted successfully"}, h.logger)
}

func (h *ProductHandler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		h.logger.Warn("invalid product ID format", "id", raw, "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid ID supplied", h.logger)
		return 0, false
	}
	return id, true
}

func (h *ProductHandler) parseDraft(w http.ResponseWriter, r *http.Request) (models.ProductDraft, bool) {
	var draft models.ProductDraft

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		h.logger.Warn("failed to parse multipart form", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid multipart form", h.logger)
		return draft, false
	}

	raw := r.FormValue("product")
	if raw == "" {
		WriteError(w, http.StatusBadRequest, "Product field is required", h.logger)
		return draft, false
	}

	if err := json.Unmarshal([]byte(raw), &draft); err != nil {
		h.logger.Warn("failed to decode product field", "error", err)
		WriteError(w, http.StatusBadRequest, "Invalid product JSON", h.logger)
		return draft, false
	}
	return draft, true
}
