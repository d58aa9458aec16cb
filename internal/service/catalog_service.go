package service

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"shopcore/internal/cache"
	"shopcore/internal/errors"
	"shopcore/internal/mail"
	"shopcore/internal/model"
	"shopcore/internal/repository"
	"shopcore/internal/sync"
)

const productCacheTTL = 5 * time.Minute

// CatalogService owns product and category writes. Every committed write
// notifies the sync engine so the document mirror converges without waiting
// for the periodic full pass.
type CatalogService interface {
	CreateProduct(ctx context.Context, product *model.Product) error
	UpdateProduct(ctx context.Context, product *model.Product) error
	DeleteProduct(ctx context.Context, id uint) error
	GetProduct(ctx context.Context, id uint) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)

	CreateCategory(ctx context.Context, category *model.Category) error
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id uint) error
	ListCategories(ctx context.Context) ([]model.Category, error)
}

type catalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	userRepo     repository.UserRepository
	notifier     SyncNotifier
	mailer       *mail.Dispatcher
	cache        *cache.Client
	logger       *zap.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	productRepo repository.ProductRepository,
	categoryRepo repository.CategoryRepository,
	userRepo repository.UserRepository,
	notifier SyncNotifier,
	mailer *mail.Dispatcher,
	cacheClient *cache.Client,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
		notifier:     notifier,
		mailer:       mailer,
		cache:        cacheClient,
		logger:       logger,
	}
}

// CreateProduct persists the product, notifies the mirror and alerts active
// customers about the new listing.
func (s *catalogService) CreateProduct(ctx context.Context, product *model.Product) error {
	if product.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *product.CategoryID); err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.ErrCategoryNotFound
			}
			return err
		}
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return err
	}
	s.notifier.Notify(sync.Change{Kind: sync.ProductChanged, ID: product.ID})

	if product.Status == model.ProductStatusActive && product.IsActive {
		s.alertCustomers(ctx, product)
	}
	return nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, product *model.Product) error {
	if _, err := s.productRepo.FindByID(ctx, product.ID); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrProductNotFound
		}
		return err
	}
	if err := s.productRepo.Update(ctx, product); err != nil {
		return err
	}
	s.cache.Delete(ctx, productCacheKey(product.ID))
	s.notifier.Notify(sync.Change{Kind: sync.ProductChanged, ID: product.ID})
	return nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id uint) error {
	if _, err := s.productRepo.FindByID(ctx, id); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrProductNotFound
		}
		return err
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Delete(ctx, productCacheKey(id))
	s.notifier.Notify(sync.Change{Kind: sync.ProductDeleted, ID: id})
	return nil
}

// GetProduct serves reads through the cache. Cache failures fall back to
// the database transparently.
func (s *catalogService) GetProduct(ctx context.Context, id uint) (*model.Product, error) {
	key := productCacheKey(id)
	if data, err := s.cache.Get(ctx, key); err == nil && data != nil {
		var product model.Product
		if err := json.Unmarshal(data, &product); err == nil {
			return &product, nil
		}
		s.cache.Delete(ctx, key)
	}

	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrProductNotFound
		}
		return nil, err
	}

	if data, err := json.Marshal(product); err == nil {
		s.cache.Set(ctx, key, data, productCacheTTL)
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.productRepo.FindAll(ctx)
}

func (s *catalogService) CreateCategory(ctx context.Context, category *model.Category) error {
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return err
	}
	s.notifier.Notify(sync.Change{Kind: sync.CategoryChanged, ID: category.ID})
	return nil
}

// UpdateCategory propagates name/slug changes to every mirrored product that
// embeds the category.
func (s *catalogService) UpdateCategory(ctx context.Context, category *model.Category) error {
	if _, err := s.categoryRepo.FindByID(ctx, category.ID); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrCategoryNotFound
		}
		return err
	}
	if err := s.categoryRepo.Update(ctx, category); err != nil {
		return err
	}
	s.notifier.Notify(sync.Change{Kind: sync.CategoryChanged, ID: category.ID})
	return nil
}

func (s *catalogService) DeleteCategory(ctx context.Context, id uint) error {
	if _, err := s.categoryRepo.FindByID(ctx, id); err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrCategoryNotFound
		}
		return err
	}
	if err := s.categoryRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.notifier.Notify(sync.Change{Kind: sync.CategoryChanged, ID: id})
	return nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.categoryRepo.FindAll(ctx)
}

// alertCustomers queues a new-product mail to every active customer. Lookup
// failure only costs the alert, never the product write.
func (s *catalogService) alertCustomers(ctx context.Context, product *model.Product) {
	users, err := s.userRepo.FindActiveByRole(ctx, model.RoleUser)
	if err != nil {
		s.logger.Error("new product alert skipped", zap.Uint("product_id", product.ID), zap.Error(err))
		return
	}
	for i := range users {
		s.mailer.Enqueue(mail.NewProductAlert(users[i].Email, product))
	}
	s.logger.Info("new product alert queued",
		zap.Uint("product_id", product.ID), zap.Int("recipients", len(users)))
}

func productCacheKey(id uint) string {
	return fmt.Sprintf("product:%d", id)
}
