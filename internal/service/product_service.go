package service

import (
	"context"
	"log/slog"

	"github.com/sreerambrahmagnani/self-order-backend/internal/models"
	"github.com/sreerambrahmagnani/self-order-backend/internal/storage"
)

// AssetStore removes stored image files by their reference path
type AssetStore interface {
	Remove(ref string) error
}

// Notifier publishes change events to connected observers
type Notifier interface {
	MenuUpdated()
	OrderCreated(order models.Order)
}

// ProductService handles business logic for the product catalog.
// Every mutation runs as one exclusive cycle on the products
// collection and publishes a menuUpdated event after a successful
// persist.
type ProductService struct {
	products *storage.Collection[models.Product]
	assets   AssetStore
	notifier Notifier
	log      *slog.Logger
}

// NewProductService creates a new product service
func NewProductService(products *storage.Collection[models.Product], assets AssetStore, notifier Notifier, log *slog.Logger) *ProductService {
	return &ProductService{
		products: products,
		assets:   assets,
		notifier: notifier,
		log:      log,
	}
}

// List returns all products in the catalog
func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	return s.products.All()
}

// Create appends a new product with a fresh id and the given image
// reference, then notifies observers.
func (s *ProductService) Create(ctx context.Context, draft models.ProductDraft, assetRef string) (models.Product, error) {
	var created models.Product

	err := s.products.Update(func(records []models.Product) ([]models.Product, error) {
		id := storage.NextID(func(id int64) bool {
			for _, p := range records {
				if p.ID == id {
					return true
				}
			}
			return false
		})

		enabled := true
		if draft.Enabled != nil {
			enabled = *draft.Enabled
		}

		created = models.Product{
			ID:       id,
			Name:     draft.Name,
			Price:    draft.Price,
			Category: draft.Category,
			Image:    assetRef,
			Enabled:  enabled,
		}
		return append(records, created), nil
	})
	if err != nil {
		// The image was already written; drop it so a failed create
		// leaves no orphaned asset behind.
		if rmErr := s.assets.Remove(assetRef); rmErr != nil {
			s.log.Warn("failed to remove image after aborted create",
				"image", assetRef, "error", rmErr)
		}
		return models.Product{}, err
	}

	s.notifier.MenuUpdated()
	return created, nil
}

// Update replaces the draft fields of an existing product, keeping its
// id. If newAssetRef is non-empty the previous image is replaced and
// its file removed best-effort: a failed removal is logged, never
// propagated.
func (s *ProductService) Update(ctx context.Context, id int64, draft models.ProductDraft, newAssetRef string) (models.Product, error) {
	var updated models.Product

	err := s.products.Update(func(records []models.Product) ([]models.Product, error) {
		for i, p := range records {
			if p.ID != id {
				continue
			}

			if newAssetRef != "" {
				if err := s.assets.Remove(p.Image); err != nil {
					s.log.Warn("failed to remove replaced product image",
						"product_id", id, "image", p.Image, "error", err)
				}
				p.Image = newAssetRef
			}

			p.Name = draft.Name
			p.Price = draft.Price
			p.Category = draft.Category
			if draft.Enabled != nil {
				p.Enabled = *draft.Enabled
			}

			records[i] = p
			updated = p
			return records, nil
		}
		return nil, ErrProductNotFound
	})
	if err != nil {
		return models.Product{}, err
	}

	s.notifier.MenuUpdated()
	return updated, nil
}

// ToggleEnabled flips a product's availability flag
func (s *ProductService) ToggleEnabled(ctx context.Context, id int64) (models.Product, error) {
	var updated models.Product

	err := s.products.Update(func(records []models.Product) ([]models.Product, error) {
		for i, p := range records {
			if p.ID != id {
				continue
			}
			records[i].Enabled = !p.Enabled
			updated = records[i]
			return records, nil
		}
		return nil, ErrProductNotFound
	})
	if err != nil {
		return models.Product{}, err
	}

	s.notifier.MenuUpdated()
	return updated, nil
}

// Delete removes a product and its image file. The image is removed
// inside the exclusive cycle; if that fails the delete is aborted with
// ErrAssetCleanup and the record stays in the catalog.
func (s *ProductService) Delete(ctx context.Context, id int64) error {
	err := s.products.Update(func(records []models.Product) ([]models.Product, error) {
		for i, p := range records {
			if p.ID != id {
				continue
			}

			if err := s.assets.Remove(p.Image); err != nil {
				s.log.Error("failed to remove product image",
					"product_id", id, "image", p.Image, "error", err)
				return nil, ErrAssetCleanup
			}

			return append(records[:i], records[i+1:]...), nil
		}
		return nil, ErrProductNotFound
	})
	if err != nil {
		return err
	}

	s.notifier.MenuUpdated()
	return nil
}
