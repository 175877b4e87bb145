package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"storefront/internal/cache"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/storage"
	"storefront/internal/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	images      storage.ImageStore
	cache       cache.ProductCache
	now         func() time.Time
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(
	productRepo repository.ProductRepository,
	images storage.ImageStore,
	productCache cache.ProductCache,
	logger zerolog.Logger,
) ProductService {
	return &productService{
		productRepo: productRepo,
		images:      images,
		cache:       productCache,
		now:         time.Now,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

func (s *productService) Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	product := req.ToProduct(uuid.New(), s.now().UTC())
	if err := s.productRepo.Create(ctx, &product); err != nil {
		s.logger.Error().Err(err).Str("product_id", product.ID.String()).Msg("failed to create product")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	s.invalidate(ctx)

	s.logger.Info().Str("product_id", product.ID.String()).Str("name", product.Name).Msg("product created")
	return &product, nil
}

func (s *productService) UploadImages(ctx context.Context, files []ImageFile) ([]string, error) {
	if len(files) > MaxProductImages {
		return nil, model.ErrTooManyImages
	}

	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := s.images.Upload(ctx, f.Filename, f.ContentType, f.Body)
		if err != nil {
			if errors.Is(err, storage.ErrUnsupportedImage) {
				return nil, model.NewValidationError(err.Error())
			}
			s.logger.Error().Err(err).Str("filename", f.Filename).Msg("failed to upload image")
			return nil, fmt.Errorf("failed to upload image: %w", err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (s *productService) GetAll(ctx context.Context) ([]model.Product, error) {
	cached, generation, ok, cacheErr := s.cache.GetAll(ctx)
	if cacheErr != nil {
		s.logger.Warn().Err(cacheErr).Msg("product cache read failed, using database")
	}
	if ok {
		return cached, nil
	}

	products, err := s.productRepo.GetAll(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to get all products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	// The generation was read before the database, so a write that
	// invalidated in between leaves this fill unreachable.
	if cacheErr == nil {
		if err := s.cache.SetAll(ctx, generation, products); err != nil {
			s.logger.Warn().Err(err).Msg("failed to populate product cache")
		}
	}

	s.logger.Debug().Int("count", len(products)).Msg("retrieved products")
	return products, nil
}

func (s *productService) GetByID(ctx context.Context, id string) (*model.Product, error) {
	productID, err := parseID(id, "product")
	if err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		s.logger.Debug().Str("product_id", id).Msg("product not found")
		return nil, model.ErrProductNotFound
	}
	return product, nil
}

// Filter lower-cases category and subcategory so they match stored values,
// then sorts by price in process.
func (s *productService) Filter(ctx context.Context, f model.ProductFilter) ([]model.Product, error) {
	f.Category = strings.ToLower(strings.TrimSpace(f.Category))
	f.Subcategory = strings.ToLower(strings.TrimSpace(f.Subcategory))
	f.Search = strings.TrimSpace(f.Search)

	products, err := s.productRepo.Filter(ctx, f)
	if err != nil {
		s.logger.Error().Err(err).
			Str("category", f.Category).
			Str("subcategory", f.Subcategory).
			Msg("failed to filter products")
		return nil, fmt.Errorf("failed to filter products: %w", err)
	}

	switch f.Sort {
	case model.SortPriceAsc:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price.LessThan(products[j].Price) })
	case model.SortPriceDesc:
		sort.SliceStable(products, func(i, j int) bool { return products[i].Price.GreaterThan(products[j].Price) })
	}
	return products, nil
}

func (s *productService) Update(ctx context.Context, id string, upd *model.ProductUpdate) (*model.Product, error) {
	productID, err := parseID(id, "product")
	if err != nil {
		return nil, err
	}
	if upd == nil || upd.IsEmpty() {
		return nil, model.ErrEmptyProductUpdate
	}
	if err := validation.Struct(upd); err != nil {
		return nil, err
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to load product for update")
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}

	upd.Apply(product)
	product.UpdatedAt = s.now().UTC()

	if err := s.productRepo.Update(ctx, product); err != nil {
		if model.KindOf(err) == model.KindNotFound {
			return nil, err
		}
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to update product")
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	s.invalidate(ctx)

	s.logger.Info().Str("product_id", id).Msg("product updated")
	return product, nil
}

func (s *productService) Delete(ctx context.Context, id string) error {
	productID, err := parseID(id, "product")
	if err != nil {
		return err
	}

	deleted, err := s.productRepo.Delete(ctx, productID)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id).Msg("failed to delete product")
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if !deleted {
		return model.ErrProductNotFound
	}
	s.invalidate(ctx)

	s.logger.Info().Str("product_id", id).Msg("product deleted")
	return nil
}

func (s *productService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("failed to invalidate product cache")
	}
}
