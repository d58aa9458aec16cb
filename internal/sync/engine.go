package sync

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shopcore/internal/model"
	"shopcore/internal/repository"
	"shopcore/internal/search"
)

// ChangeKind identifies what happened to a relational entity.
type ChangeKind int

const (
	ProductChanged ChangeKind = iota
	ProductDeleted
	UserChanged
	UserDeleted
	CategoryChanged
)

// Change is one entity mutation emitted by a write path after its commit.
type Change struct {
	Kind ChangeKind
	ID   uint
}

// Stats compares entity counts between the two stores.
type Stats struct {
	Relational struct {
		Users      int64 `json:"users"`
		Products   int64 `json:"products"`
		Categories int64 `json:"categories"`
	} `json:"relational"`
	Documents struct {
		Products int64 `json:"products"`
		Users    int64 `json:"users"`
	} `json:"documents"`
	Status struct {
		Products string `json:"products"`
		Users    string `json:"users"`
	} `json:"status"`
}

// Engine keeps the document store eventually consistent with the relational
// store. Write paths notify it after committing; it also runs a periodic
// full resync for drift correction. Document-store failures on the
// notification path are logged and swallowed — a sync failure must never
// fail the business operation that triggered it.
type Engine struct {
	products   repository.ProductRepository
	users      repository.UserRepository
	categories repository.CategoryRepository
	store      search.Store
	logger     *zap.Logger

	running atomic.Bool
	queue   chan Change
}

// NewEngine creates a sync engine. Run must be called for queued changes
// and the periodic resync to be processed.
func NewEngine(
	products repository.ProductRepository,
	users repository.UserRepository,
	categories repository.CategoryRepository,
	store search.Store,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		products:   products,
		users:      users,
		categories: categories,
		store:      store,
		logger:     logger,
		queue:      make(chan Change, 256),
	}
}

// Notify enqueues a single-entity sync. The call never blocks and never
// returns an error: when the queue is full the change is applied in the
// background, best-effort, with the same isolated error boundary, so a
// slow or failing document store never stalls the calling request.
func (e *Engine) Notify(change Change) {
	select {
	case e.queue <- change:
	default:
		go e.apply(context.Background(), change)
	}
}

// Run processes queued changes and fires a full resync once at startup and
// then on every interval tick, until the context is cancelled.
func (e *Engine) Run(ctx context.Context, interval time.Duration) {
	if err := e.FullSync(ctx); err != nil {
		e.logger.Error("initial full sync failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case change := <-e.queue:
			e.apply(ctx, change)
		case <-ticker.C:
			if err := e.FullSync(ctx); err != nil {
				e.logger.Error("periodic full sync failed", zap.Error(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

// apply performs one change with an isolated error boundary.
func (e *Engine) apply(ctx context.Context, change Change) {
	var err error
	switch change.Kind {
	case ProductChanged:
		err = e.SyncProduct(ctx, change.ID)
	case ProductDeleted:
		err = e.withRetry(ctx, func(ctx context.Context) error {
			return e.store.DeleteProduct(ctx, change.ID)
		})
	case UserChanged:
		err = e.SyncUser(ctx, change.ID)
	case UserDeleted:
		err = e.withRetry(ctx, func(ctx context.Context) error {
			return e.store.DeleteUser(ctx, change.ID)
		})
	case CategoryChanged:
		err = e.SyncCategories(ctx)
	}
	if err != nil {
		e.logger.Error("entity sync failed",
			zap.Int("kind", int(change.Kind)),
			zap.Uint("id", change.ID),
			zap.Error(err))
	}
}

// SyncProduct mirrors a single product into the document store. A product
// missing from the relational store is removed from the mirror instead.
// Repeated calls with unchanged source data produce an identical document.
func (e *Engine) SyncProduct(ctx context.Context, productID uint) error {
	product, err := e.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return e.withRetry(ctx, func(ctx context.Context) error {
				return e.store.DeleteProduct(ctx, productID)
			})
		}
		return fmt.Errorf("load product %d: %w", productID, err)
	}

	doc := BuildProductDocument(product)
	return e.withRetry(ctx, func(ctx context.Context) error {
		return e.store.UpsertProduct(ctx, doc)
	})
}

// SyncUser mirrors a single user into the document store.
func (e *Engine) SyncUser(ctx context.Context, userID uint) error {
	user, err := e.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return e.withRetry(ctx, func(ctx context.Context) error {
				return e.store.DeleteUser(ctx, userID)
			})
		}
		return fmt.Errorf("load user %d: %w", userID, err)
	}

	doc := BuildUserDocument(user)
	return e.withRetry(ctx, func(ctx context.Context) error {
		return e.store.UpsertUser(ctx, doc)
	})
}

// SyncCategories propagates category name and slug changes onto the
// denormalized category of every matching product document.
func (e *Engine) SyncCategories(ctx context.Context) error {
	categories, err := e.categories.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	for _, cat := range categories {
		doc := search.CategoryDoc{ID: cat.ID, Name: cat.Name, Slug: cat.Slug}
		if err := e.withRetry(ctx, func(ctx context.Context) error {
			return e.store.PropagateCategory(ctx, doc)
		}); err != nil {
			return err
		}
	}
	e.logger.Info("categories propagated", zap.Int("count", len(categories)))
	return nil
}

// FullSync regenerates both mirror collections from the relational store
// and then propagates categories. A call while another full sync is in
// flight is skipped with a warning instead of queueing or overlapping.
// Errors propagate so a manual force-sync surfaces them.
func (e *Engine) FullSync(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		e.logger.Warn("full sync already running, skipping")
		return nil
	}
	defer e.running.Store(false)

	started := time.Now()
	e.logger.Info("starting full sync")

	if err := e.syncAllProducts(ctx); err != nil {
		return fmt.Errorf("product sync: %w", err)
	}
	if err := e.syncAllUsers(ctx); err != nil {
		return fmt.Errorf("user sync: %w", err)
	}
	if err := e.SyncCategories(ctx); err != nil {
		return fmt.Errorf("category sync: %w", err)
	}

	e.logger.Info("full sync completed", zap.Duration("elapsed", time.Since(started)))
	return nil
}

func (e *Engine) syncAllProducts(ctx context.Context) error {
	products, err := e.products.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load products: %w", err)
	}
	docs := make([]search.ProductDocument, len(products))
	for i := range products {
		docs[i] = BuildProductDocument(&products[i])
	}
	if err := e.store.ReplaceAllProducts(ctx, docs); err != nil {
		return err
	}
	e.logger.Info("products synced", zap.Int("count", len(docs)))
	return nil
}

func (e *Engine) syncAllUsers(ctx context.Context) error {
	users, err := e.users.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	docs := make([]search.UserDocument, len(users))
	for i := range users {
		docs[i] = BuildUserDocument(&users[i])
	}
	if err := e.store.ReplaceAllUsers(ctx, docs); err != nil {
		return err
	}
	e.logger.Info("users synced", zap.Int("count", len(docs)))
	return nil
}

// Stats reports entity counts on both sides for the admin dashboard.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	var err error
	if stats.Relational.Users, err = e.users.Count(ctx); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if stats.Relational.Products, err = e.products.Count(ctx); err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	if stats.Relational.Categories, err = e.categories.Count(ctx); err != nil {
		return nil, fmt.Errorf("count categories: %w", err)
	}
	if stats.Documents.Products, stats.Documents.Users, err = e.store.Counts(ctx); err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}

	stats.Status.Products = syncStatus(stats.Relational.Products, stats.Documents.Products)
	stats.Status.Users = syncStatus(stats.Relational.Users, stats.Documents.Users)
	return stats, nil
}

func syncStatus(relational, documents int64) string {
	if relational == documents {
		return "synced"
	}
	return "out_of_sync"
}

// withRetry runs a document-store write with capped exponential backoff.
func (e *Engine) withRetry(ctx context.Context, fn func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(3, retry.NewExponential(100*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := fn(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

// BuildProductDocument maps a relational product (with its category) onto
// its mirror document. Only source timestamps are carried, so the mapping
// is deterministic for unchanged source data.
func BuildProductDocument(p *model.Product) search.ProductDocument {
	doc := search.ProductDocument{
		ProductID:     p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price.InexactFloat64(),
		IsOnSale:      p.IsOnSale,
		StockQuantity: p.StockQuantity,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}

	if p.SalePrice != nil {
		sale := p.SalePrice.InexactFloat64()
		doc.SalePrice = &sale
	}

	doc.Images = make([]search.ImageDoc, 0, len(p.Images))
	for _, img := range p.NormalizedImages() {
		doc.Images = append(doc.Images, search.ImageDoc{
			URL:       img.URL,
			Alt:       img.Alt,
			IsPrimary: img.IsPrimary,
		})
	}

	categoryName := ""
	if p.Category != nil {
		doc.Category = &search.CategoryDoc{
			ID:   p.Category.ID,
			Name: p.Category.Name,
			Slug: p.Category.Slug,
		}
		categoryName = p.Category.Name
	}

	doc.SearchTerms = ProductSearchTerms(p.Name, p.Description, categoryName)
	return doc
}

// BuildUserDocument maps a relational user onto its reduced mirror document.
// Password and token fields never cross this boundary.
func BuildUserDocument(u *model.User) search.UserDocument {
	return search.UserDocument{
		UserID:      u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Role:        string(u.Role),
		IsActive:    u.IsActive,
		SearchTerms: UserSearchTerms(u.FirstName, u.LastName, u.Email),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
