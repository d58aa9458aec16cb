package sync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"shopcore/internal/model"
	"shopcore/internal/search"
)

// fakeProductRepo serves canned products.
type fakeProductRepo struct {
	products map[uint]*model.Product
}

func (f *fakeProductRepo) Create(ctx context.Context, p *model.Product) error { return nil }
func (f *fakeProductRepo) Update(ctx context.Context, p *model.Product) error { return nil }
func (f *fakeProductRepo) Delete(ctx context.Context, id uint) error          { return nil }

func (f *fakeProductRepo) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) FindAll(ctx context.Context) ([]model.Product, error) {
	out := make([]model.Product, 0, len(f.products))
	for _, p := range f.products {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProductRepo) DecrementStock(ctx context.Context, id uint, quantity int) error {
	return nil
}

func (f *fakeProductRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.products)), nil
}

// fakeUserRepo serves canned users.
type fakeUserRepo struct {
	users map[uint]*model.User
}

func (f *fakeUserRepo) Create(ctx context.Context, u *model.User) error { return nil }
func (f *fakeUserRepo) Update(ctx context.Context, u *model.User) error { return nil }

func (f *fakeUserRepo) FindByID(ctx context.Context, id uint) (*model.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByVerificationToken(ctx context.Context, token string) (*model.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindByResetToken(ctx context.Context, token string) (*model.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) FindAll(ctx context.Context) ([]model.User, error) {
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserRepo) FindActiveByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) EraseWithOrders(ctx context.Context, id uint) error { return nil }

func (f *fakeUserRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.users)), nil
}

// fakeCategoryRepo serves canned categories.
type fakeCategoryRepo struct {
	categories []model.Category
}

func (f *fakeCategoryRepo) Create(ctx context.Context, c *model.Category) error { return nil }
func (f *fakeCategoryRepo) Update(ctx context.Context, c *model.Category) error { return nil }
func (f *fakeCategoryRepo) Delete(ctx context.Context, id uint) error           { return nil }

func (f *fakeCategoryRepo) FindByID(ctx context.Context, id uint) (*model.Category, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCategoryRepo) FindBySlug(ctx context.Context, slug string) (*model.Category, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeCategoryRepo) FindAll(ctx context.Context) ([]model.Category, error) {
	return f.categories, nil
}

func (f *fakeCategoryRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(f.categories)), nil
}

// fakeStore records every write; optional hooks let tests block or fail calls.
type fakeStore struct {
	mu sync.Mutex

	upsertedProducts []search.ProductDocument
	deletedProducts  []uint
	replaceAllCalls  int
	propagated       []search.CategoryDoc

	replaceAllStarted chan struct{}
	replaceAllRelease chan struct{}
	upsertErr         error
}

func newFakeStore() *fakeStore { return &fakeStore{} }

func (s *fakeStore) EnsureIndexes(ctx context.Context) error { return nil }

func (s *fakeStore) UpsertProduct(ctx context.Context, doc search.ProductDocument) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertedProducts = append(s.upsertedProducts, doc)
	return nil
}

func (s *fakeStore) DeleteProduct(ctx context.Context, productID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletedProducts = append(s.deletedProducts, productID)
	return nil
}

func (s *fakeStore) ReplaceAllProducts(ctx context.Context, docs []search.ProductDocument) error {
	if s.replaceAllStarted != nil {
		close(s.replaceAllStarted)
		s.replaceAllStarted = nil
		<-s.replaceAllRelease
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceAllCalls++
	return nil
}

func (s *fakeStore) UpsertUser(ctx context.Context, doc search.UserDocument) error { return nil }
func (s *fakeStore) DeleteUser(ctx context.Context, userID uint) error             { return nil }

func (s *fakeStore) ReplaceAllUsers(ctx context.Context, docs []search.UserDocument) error {
	return nil
}

func (s *fakeStore) PropagateCategory(ctx context.Context, cat search.CategoryDoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.propagated = append(s.propagated, cat)
	return nil
}

func (s *fakeStore) SearchProducts(ctx context.Context, q search.ProductQuery) ([]search.ProductDocument, error) {
	return nil, nil
}

func (s *fakeStore) SearchUsers(ctx context.Context, q search.UserQuery) ([]search.UserDocument, error) {
	return nil, nil
}

func (s *fakeStore) Counts(ctx context.Context) (int64, int64, error) { return 0, 0, nil }

func testProduct() *model.Product {
	sale := decimal.NewFromFloat(19.99)
	return &model.Product{
		ID:            42,
		Name:          "Trail Running Shoe",
		Description:   "Lightweight shoe for trails",
		Price:         decimal.NewFromFloat(24.99),
		SalePrice:     &sale,
		IsOnSale:      true,
		StockQuantity: 5,
		Images:        model.ImageList{{URL: "shoe.jpg", IsPrimary: true}},
		IsActive:      true,
		Category:      &model.Category{ID: 3, Name: "Shoes", Slug: "shoes"},
		CreatedAt:     time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC),
		UpdatedAt:     time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC),
	}
}

func newTestEngine(store search.Store, products *fakeProductRepo) *Engine {
	if products == nil {
		products = &fakeProductRepo{products: map[uint]*model.Product{}}
	}
	return NewEngine(
		products,
		&fakeUserRepo{users: map[uint]*model.User{}},
		&fakeCategoryRepo{},
		store,
		zap.NewNop(),
	)
}

func TestSyncProductIdempotent(t *testing.T) {
	store := newFakeStore()
	repo := &fakeProductRepo{products: map[uint]*model.Product{42: testProduct()}}
	engine := newTestEngine(store, repo)

	require.NoError(t, engine.SyncProduct(context.Background(), 42))
	require.NoError(t, engine.SyncProduct(context.Background(), 42))

	require.Len(t, store.upsertedProducts, 2)
	assert.Equal(t, store.upsertedProducts[0], store.upsertedProducts[1])
}

func TestSyncProductMissingDeletesMirror(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, nil)

	require.NoError(t, engine.SyncProduct(context.Background(), 99))
	assert.Equal(t, []uint{99}, store.deletedProducts)
	assert.Empty(t, store.upsertedProducts)
}

func TestBuildProductDocument(t *testing.T) {
	doc := BuildProductDocument(testProduct())

	assert.Equal(t, uint(42), doc.ProductID)
	assert.InDelta(t, 24.99, doc.Price, 0.001)
	require.NotNil(t, doc.SalePrice)
	assert.InDelta(t, 19.99, *doc.SalePrice, 0.001)
	assert.True(t, doc.IsOnSale)

	require.NotNil(t, doc.Category)
	assert.Equal(t, "Shoes", doc.Category.Name)

	require.Len(t, doc.Images, 1)
	assert.Equal(t, "Trail Running Shoe", doc.Images[0].Alt)
	assert.True(t, doc.Images[0].IsPrimary)

	assert.Contains(t, doc.SearchTerms, "trail")
	assert.Contains(t, doc.SearchTerms, "running")
	assert.Contains(t, doc.SearchTerms, "shoe")
	assert.Contains(t, doc.SearchTerms, "shoes")
}

func TestBuildUserDocumentOmitsSecrets(t *testing.T) {
	user := &model.User{
		ID:           7,
		FirstName:    "Jean",
		LastName:     "Dupont",
		Email:        "jean@example.com",
		PasswordHash: "$2a$10$secret",
		ResetToken:   "reset-token",
		Role:         model.RoleUser,
		IsActive:     true,
	}
	doc := BuildUserDocument(user)

	assert.Equal(t, uint(7), doc.UserID)
	assert.Equal(t, "jean@example.com", doc.Email)
	assert.NotContains(t, doc.SearchTerms, "$2a$10$secret")
	assert.NotContains(t, doc.SearchTerms, "reset-token")
}

func TestFullSyncReentrancySkips(t *testing.T) {
	store := newFakeStore()
	store.replaceAllStarted = make(chan struct{})
	store.replaceAllRelease = make(chan struct{})

	repo := &fakeProductRepo{products: map[uint]*model.Product{42: testProduct()}}
	engine := newTestEngine(store, repo)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- engine.FullSync(context.Background())
	}()

	// wait until the first sync is inside the store write
	<-store.replaceAllStarted

	// second call while the first is in flight: skipped no-op
	require.NoError(t, engine.FullSync(context.Background()))

	close(store.replaceAllRelease)
	require.NoError(t, <-firstDone)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, 1, store.replaceAllCalls)
}

func TestFullSyncRunsAgainAfterCompletion(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, nil)

	require.NoError(t, engine.FullSync(context.Background()))
	require.NoError(t, engine.FullSync(context.Background()))
	assert.Equal(t, 2, store.replaceAllCalls)
}

func TestApplySwallowsStoreFailures(t *testing.T) {
	store := newFakeStore()
	store.upsertErr = errors.New("mongo down")
	repo := &fakeProductRepo{products: map[uint]*model.Product{42: testProduct()}}
	engine := newTestEngine(store, repo)

	// must not panic or propagate; the triggering business operation
	// has already succeeded at this point
	engine.apply(context.Background(), Change{Kind: ProductChanged, ID: 42})
}

func TestNotifyNeverBlocks(t *testing.T) {
	store := newFakeStore()
	engine := newTestEngine(store, nil)

	// no worker running: fill the queue and overflow into background apply
	for i := 0; i < 300; i++ {
		engine.Notify(Change{Kind: ProductDeleted, ID: uint(i)})
	}
}

func TestNotifyOverflowWithFailingStoreReturnsPromptly(t *testing.T) {
	store := newFakeStore()
	store.upsertErr = errors.New("mongo down")
	repo := &fakeProductRepo{products: map[uint]*model.Product{42: testProduct()}}
	engine := newTestEngine(store, repo)

	for i := 0; i < cap(engine.queue); i++ {
		engine.Notify(Change{Kind: ProductChanged, ID: 42})
	}

	// the overflow path must not make the caller sit through the
	// document-store retry backoff
	done := make(chan struct{})
	go func() {
		engine.Notify(Change{Kind: ProductChanged, ID: 42})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(50 * time.Millisecond):
		t.Fatal("Notify blocked on queue overflow")
	}
}
