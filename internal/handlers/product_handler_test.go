package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/sreerambrahmagnani/self-order-backend/internal/assets"
	"github.com/sreerambrahmagnani/self-order-backend/internal/models"
	"github.com/sreerambrahmagnani/self-order-backend/internal/service"
	"github.com/sreerambrahmagnani/self-order-backend/internal/storage"
	"github.com/sreerambrahmagnani/self-order-backend/pkg/logger"
)

// recordingNotifier counts events published by the services under test
type recordingNotifier struct {
	mu          sync.Mutex
	menuUpdates int
	orders      []models.Order
}

func (n *recordingNotifier) MenuUpdated() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.menuUpdates++
}

func (n *recordingNotifier) OrderCreated(o models.Order) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.orders = append(n.orders, o)
}

type productFixture struct {
	router   *chi.Mux
	assets   *assets.Store
	notifier *recordingNotifier
}

func newProductRouter(t *testing.T) *productFixture {
	t.Helper()

	dir := t.TempDir()
	products := storage.NewCollection[models.Product](filepath.Join(dir, "product.json"))
	if err := products.Init(); err != nil {
		t.Fatalf("init products collection: %v", err)
	}

	assetStore := assets.NewStore(filepath.Join(dir, "images"))
	if err := assetStore.Init(); err != nil {
		t.Fatalf("init asset store: %v", err)
	}

	log := logger.New("error")
	notifier := &recordingNotifier{}
	svc := service.NewProductService(products, assetStore, notifier, log)
	handler := NewProductHandler(svc, assetStore, log)

	r := chi.NewRouter()
	r.Get("/api/products", handler.ListProducts)
	r.Post("/api/products", handler.CreateProduct)
	r.Put("/api/products/{id}", handler.UpdateProduct)
	r.Patch("/api/products/{id}", handler.ToggleProduct)
	r.Delete("/api/products/{id}", handler.DeleteProduct)

	return &productFixture{router: r, assets: assetStore, notifier: notifier}
}

func productForm(t *testing.T, product string, withImage bool) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if product != "" {
		if err := w.WriteField("product", product); err != nil {
			t.Fatalf("write product field: %v", err)
		}
	}
	if withImage {
		fw, err := w.CreateFormFile("image", "item.png")
		if err != nil {
			t.Fatalf("create image part: %v", err)
		}
		if _, err := fw.Write([]byte("fake image bytes")); err != nil {
			t.Fatalf("write image part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func createProduct(t *testing.T, fx *productFixture, productJSON string) models.Product {
	t.Helper()

	body, contentType := productForm(t, productJSON, true)
	req := httptest.NewRequest(http.MethodPost, "/api/products", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	fx.router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var product models.Product
	if err := json.NewDecoder(w.Body).Decode(&product); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return product
}

func TestCreateProduct(t *testing.T) {
	fx := newProductRouter(t)

	product := createProduct(t, fx, `{"name":"Veg Thali","price":150,"category":"Meals"}`)

	if product.ID == 0 {
		t.Error("created product has no id")
	}
	if product.Name != "Veg Thali" {
		t.Errorf("expected name 'Veg Thali', got %s", product.Name)
	}
	if !product.Enabled {
		t.Error("created product must be enabled by default")
	}
	if !strings.HasPrefix(product.Image, "/images/") {
		t.Errorf("expected image reference under /images/, got %q", product.Image)
	}
	if fx.notifier.menuUpdates != 1 {
		t.Errorf("expected 1 menuUpdated event, got %d", fx.notifier.menuUpdates)
	}
}

func TestCreateProduct_MissingImage(t *testing.T) {
	fx := newProductRouter(t)

	body, contentType := productForm(t, `{"name":"Veg Thali","price":150}`, false)
	req := httptest.NewRequest(http.MethodPost, "/api/products", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	fx.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestCreateProduct_MissingProductField(t *testing.T) {
	fx := newProductRouter(t)

	body, contentType := productForm(t, "", true)
	req := httptest.NewRequest(http.MethodPost, "/api/products", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()

	fx.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}

func TestListProducts(t *testing.T) {
	fx := newProductRouter(t)
	createProduct(t, fx, `{"name":"Veg Thali","price":150,"category":"Meals"}`)
	createProduct(t, fx, `{"name":"Curd Rice","price":90,"category":"Meals"}`)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var products []models.Product
	if err := json.NewDecoder(w.Body).Decode(&products); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(products) != 2 {
		t.Errorf("expected 2 products, got %d", len(products))
	}
}

func TestUpdateProduct(t *testing.T) {
	fx := newProductRouter(t)
	created := createProduct(t, fx, `{"name":"Veg Thali","price":150,"category":"Meals"}`)

	body, contentType := productForm(t, `{"name":"Special Thali","price":180,"category":"Meals"}`, false)
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/products/%d", created.ID), body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var updated models.Product
	if err := json.NewDecoder(w.Body).Decode(&updated); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if updated.ID != created.ID {
		t.Errorf("update must preserve id: got %d, want %d", updated.ID, created.ID)
	}
	if updated.Name != "Special Thali" || updated.Price != 180 {
		t.Errorf("draft fields not applied: %+v", updated)
	}
	if updated.Image != created.Image {
		t.Errorf("update without new image must keep %q, got %q", created.Image, updated.Image)
	}
}

func TestUpdateProduct_NewImageReplacesOld(t *testing.T) {
	fx := newProductRouter(t)
	created := createProduct(t, fx, `{"name":"Veg Thali","price":150}`)

	body, contentType := productForm(t, `{"name":"Veg Thali","price":150}`, true)
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/products/%d", created.ID), body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var updated models.Product
	if err := json.NewDecoder(w.Body).Decode(&updated); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if updated.Image == created.Image {
		t.Error("new upload must replace the image reference")
	}

	oldName := strings.TrimPrefix(created.Image, "/images/")
	if _, err := os.Stat(filepath.Join(fx.assets.Dir(), oldName)); !os.IsNotExist(err) {
		t.Error("old image file must be removed after replacement")
	}
}

func TestUpdateProduct_NotFound(t *testing.T) {
	fx := newProductRouter(t)

	body, contentType := productForm(t, `{"name":"Ghost","price":1}`, false)
	req := httptest.NewRequest(http.MethodPut, "/api/products/12345", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestToggleProduct(t *testing.T) {
	fx := newProductRouter(t)
	created := createProduct(t, fx, `{"name":"Veg Thali","price":150}`)

	req := httptest.NewRequest(http.MethodPatch, fmt.Sprintf("/api/products/%d", created.ID), nil)
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var toggled models.Product
	if err := json.NewDecoder(w.Body).Decode(&toggled); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if toggled.Enabled {
		t.Error("expected enabled flipped to false")
	}
}

func TestToggleProduct_NotFound(t *testing.T) {
	fx := newProductRouter(t)

	req := httptest.NewRequest(http.MethodPatch, "/api/products/999", nil)
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestToggleProduct_InvalidID(t *testing.T) {
	fx := newProductRouter(t)

	req := httptest.NewRequest(http.MethodPatch, "/api/products/not-a-number", nil)
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}

	var response map[string]string
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if response["error"] != "Invalid ID supplied" {
		t.Errorf("expected error message 'Invalid ID supplied', got %s", response["error"])
	}
}

func TestDeleteProduct(t *testing.T) {
	fx := newProductRouter(t)
	created := createProduct(t, fx, `{"name":"Veg Thali","price":150}`)

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/products/%d", created.ID), nil)
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var response map[string]string
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response["message"] != "Product deleted successfully" {
		t.Errorf("unexpected message %q", response["message"])
	}

	// The image file is gone too
	name := strings.TrimPrefix(created.Image, "/images/")
	if _, err := os.Stat(filepath.Join(fx.assets.Dir(), name)); !os.IsNotExist(err) {
		t.Error("deleted product's image must no longer be retrievable")
	}

	// And the product no longer shows up in the list
	req = httptest.NewRequest(http.MethodGet, "/api/products", nil)
	w = httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)

	var products []models.Product
	if err := json.NewDecoder(w.Body).Decode(&products); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	for _, p := range products {
		if p.ID == created.ID {
			t.Error("deleted product still listed")
		}
	}
}

func TestDeleteProduct_NotFound(t *testing.T) {
	fx := newProductRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/products/999", nil)
	w := httptest.NewRecorder()
	fx.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}
