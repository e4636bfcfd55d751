package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"catalog/internal/cache"
	"catalog/internal/database"
	"catalog/internal/models"
	"catalog/internal/observability"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"
)

// MockPublisher is a mock implementation of services.EventPublisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, body []byte) error {
	args := m.Called(ctx, routingKey, body)
	return args.Error(0)
}

func eventFor(eventType string, id int64) interface{} {
	return mock.MatchedBy(func(body []byte) bool {
		var evt services.ProductEvent
		if err := json.Unmarshal(body, &evt); err != nil {
			return false
		}
		return evt.Type == eventType && evt.ProductID == id && !evt.OccurredAt.IsZero()
	})
}

type fixture struct {
	svc  *services.ProductService
	db   *gorm.DB
	mr   *miniredis.Miniredis
	pub  *MockPublisher
	logs *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	mr := miniredis.RunT(t)
	store := cache.NewRedisStore(cache.RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { _ = store.Close() })

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)
	pub := new(MockPublisher)

	svc := services.NewProductService(db, cache.NewAside(store, logger, time.Second),
		services.WithLogger(logger),
		services.WithSink(observability.NewZapSink(logger)),
		services.WithPublisher(pub),
	)
	return &fixture{svc: svc, db: db, mr: mr, pub: pub, logs: logs}
}

func (f *fixture) seed(t *testing.T, name, price string, quantities ...int) models.Product {
	t.Helper()
	p := models.Product{Name: name, Description: name + " description", Price: decimal.RequireFromString(price)}
	for _, q := range quantities {
		p.Inventories = append(p.Inventories, models.Inventory{Quantity: q})
	}
	uow := repositories.NewUnitOfWork(f.db)
	uow.Products.Add(&p)
	require.NoError(t, uow.Commit(context.Background()))
	return p
}

func TestListProducts_EmptyStore(t *testing.T) {
	f := newFixture(t)

	res := f.svc.ListProducts(context.Background(), models.ProductFilter{}, 1, 10)

	require.True(t, res.IsSuccess)
	require.NotNil(t, res.Data)
	assert.Empty(t, res.Data.Items)
	assert.Equal(t, 0, res.Data.TotalCount)
	assert.Equal(t, 1, res.Data.PageNumber)
	assert.Equal(t, 10, res.Data.PageSize)
	assert.Equal(t, 0, res.Data.TotalPages)
}

func TestListProducts_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		filter  models.ProductFilter
		page    int
		size    int
		wantErr string
	}{
		{"page below one", models.ProductFilter{}, 0, 10, "Page number must be greater than 0."},
		{"page size zero", models.ProductFilter{}, 1, 0, "Page size must be between 1 and 100."},
		{"page size too large", models.ProductFilter{}, 1, 101, "Page size must be between 1 and 100."},
		{"name filter too long", models.ProductFilter{Name: strings.Repeat("a", 101)}, 1, 10, "Name must not exceed 100 characters."},
		{"description filter too long", models.ProductFilter{Description: strings.Repeat("a", 501)}, 1, 10, "Description must not exceed 500 characters."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.svc.ListProducts(ctx, tt.filter, tt.page, tt.size)
			assert.False(t, res.IsSuccess)
			assert.Equal(t, models.KindValidation, res.Kind)
			assert.Equal(t, "Validation failed", res.Message)
			assert.Contains(t, res.Errors, tt.wantErr)
			assert.Nil(t, res.Data)
		})
	}
	assert.Empty(t, f.mr.Keys(), "rejected requests never reach the cache")
}

func TestListProducts_PagesFiltersAndCaches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "Blue Widget", "10.00", 2, 3)
	f.seed(t, "Gadget", "20.00")
	f.seed(t, "Red widget", "30.00", 1)

	res := f.svc.ListProducts(ctx, models.ProductFilter{Name: "WIDGET"}, 1, 1)
	require.True(t, res.IsSuccess)
	assert.Equal(t, 2, res.Data.TotalCount)
	assert.Equal(t, 2, res.Data.TotalPages)
	require.Len(t, res.Data.Items, 1)
	assert.Equal(t, "Blue Widget", res.Data.Items[0].Name)
	assert.Equal(t, 5, res.Data.Items[0].Quantity)
	assert.Equal(t, "10.00", res.Data.Items[0].Price.StringFixed(2))

	key := cache.PageKey(1, 1, models.ProductFilter{Name: "WIDGET"})
	assert.True(t, f.mr.Exists(key))
	assert.Equal(t, services.DefaultPageTTL, f.mr.TTL(key))

	res = f.svc.ListProducts(ctx, models.ProductFilter{}, 7, 2)
	require.True(t, res.IsSuccess)
	assert.Equal(t, 2, res.Data.PageNumber, "page clamps to the last page")
	require.Len(t, res.Data.Items, 1)
	assert.Equal(t, "Red widget", res.Data.Items[0].Name)
}

func TestListProducts_FiltersNonASCIINames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "Éclair", "3.50")
	f.seed(t, "Croissant", "2.00")

	for _, term := range []string{"Éclair", "ÉCLAIR", "clair"} {
		res := f.svc.ListProducts(ctx, models.ProductFilter{Name: term}, 1, 10)
		require.True(t, res.IsSuccess)
		require.Equal(t, 1, res.Data.TotalCount, "term %q", term)
		assert.Equal(t, "Éclair", res.Data.Items[0].Name)
	}
}

func TestGetProduct_InvalidAndMissing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.svc.GetProduct(ctx, 0)
	assert.False(t, res.IsSuccess)
	assert.Equal(t, models.KindValidation, res.Kind)
	assert.Equal(t, []string{"Invalid product ID"}, res.Errors)

	res = f.svc.GetProduct(ctx, 99)
	assert.False(t, res.IsSuccess)
	assert.Equal(t, models.KindNotFound, res.Kind)
	assert.Equal(t, "Product with id 99 not found", res.Message)
	assert.False(t, f.mr.Exists(cache.ProductKey(99)), "not found is never cached")
}

func TestGetProduct_ServesFromCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.seed(t, "Laptop", "1200", 6, 4)

	res := f.svc.GetProduct(ctx, p.ID)
	require.True(t, res.IsSuccess)
	assert.Equal(t, "Laptop", res.Data.Name)
	assert.Equal(t, 10, res.Data.Quantity)
	assert.Equal(t, services.DefaultProductTTL, f.mr.TTL(cache.ProductKey(p.ID)))

	raw, err := f.mr.Get(cache.ProductKey(p.ID))
	require.NoError(t, err)
	assert.Contains(t, raw, `"price":"1200.00"`)

	// A write behind the service's back is invisible until the entry expires.
	require.NoError(t, f.db.Model(&models.Product{}).Where("id = ?", p.ID).Update("name", "Changed").Error)
	res = f.svc.GetProduct(ctx, p.ID)
	require.True(t, res.IsSuccess)
	assert.Equal(t, "Laptop", res.Data.Name)

	f.mr.FastForward(services.DefaultProductTTL + time.Second)
	res = f.svc.GetProduct(ctx, p.ID)
	require.True(t, res.IsSuccess)
	assert.Equal(t, "Changed", res.Data.Name)
}

func TestGetProduct_CacheOutageFallsBackToStore(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, "Laptop", "1200")
	f.mr.SetError("ERR cache unavailable")

	res := f.svc.GetProduct(context.Background(), p.ID)
	require.True(t, res.IsSuccess)
	assert.Equal(t, "Laptop", res.Data.Name)
}

func TestGetProduct_EmptyCacheEntryIsReloaded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.seed(t, "Laptop", "1200")
	require.NoError(t, f.mr.Set(cache.ProductKey(p.ID), "null"))
	require.NoError(t, f.mr.Set(cache.PageKey(1, 10, models.ProductFilter{}), "{}"))

	res := f.svc.GetProduct(ctx, p.ID)
	require.True(t, res.IsSuccess)
	assert.Equal(t, p.ID, res.Data.ID)
	assert.Equal(t, "Laptop", res.Data.Name)

	list := f.svc.ListProducts(ctx, models.ProductFilter{}, 1, 10)
	require.True(t, list.IsSuccess)
	assert.Equal(t, 1, list.Data.TotalCount)
	require.Len(t, list.Data.Items, 1)
	assert.Equal(t, p.ID, list.Data.Items[0].ID)
}

func TestGetProduct_EscapesText(t *testing.T) {
	f := newFixture(t)
	p := f.seed(t, `<script>alert("x")</script>`, "1")

	res := f.svc.GetProduct(context.Background(), p.ID)
	require.True(t, res.IsSuccess)
	assert.Equal(t, "&lt;script&gt;alert(&#34;x&#34;)&lt;/script&gt;", res.Data.Name)
}

func TestCreateProduct_ValidationRejectsBeforeStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.svc.CreateProduct(ctx, models.CreateProductInput{
		Name:        "   ",
		Description: strings.Repeat("d", 501),
		Price:       decimal.RequireFromString("0.001"),
	})

	assert.False(t, res.IsSuccess)
	assert.Equal(t, models.KindValidation, res.Kind)
	assert.ElementsMatch(t, []string{
		"Product name is required.",
		"Product description must not exceed 500 characters.",
		"Price must be greater than zero.",
	}, res.Errors)

	var count int64
	require.NoError(t, f.db.Model(&models.Product{}).Count(&count).Error)
	assert.Zero(t, count)
	f.pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateProduct_InvalidatesDefaultViewAndPublishes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "Keyboard", "75")

	before := f.svc.ListProducts(ctx, models.ProductFilter{}, 1, 10)
	require.True(t, before.IsSuccess)
	require.Equal(t, 1, before.Data.TotalCount)

	f.pub.On("Publish", mock.Anything, services.EventProductCreated, eventFor(services.EventProductCreated, 2)).Return(nil).Once()

	res := f.svc.CreateProduct(ctx, models.CreateProductInput{
		Name:        "Mouse",
		Description: "Wireless",
		Price:       decimal.RequireFromString("24.999"),
	})
	require.True(t, res.IsSuccess)
	assert.Equal(t, "Product created successfully", res.Message)
	assert.Equal(t, int64(2), res.Data.ID)
	assert.Equal(t, "25.00", res.Data.Price.StringFixed(2))
	assert.Zero(t, res.Data.Quantity)

	after := f.svc.ListProducts(ctx, models.ProductFilter{}, 1, 10)
	require.True(t, after.IsSuccess)
	assert.Equal(t, 2, after.Data.TotalCount)
	f.pub.AssertExpectations(t)
}

func TestCreateProduct_NonDefaultViewsExpireByTTL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "Keyboard", "75")
	f.pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	stale := f.svc.ListProducts(ctx, models.ProductFilter{}, 1, 5)
	require.Equal(t, 1, stale.Data.TotalCount)

	require.True(t, f.svc.CreateProduct(ctx, models.CreateProductInput{Name: "Mouse", Price: decimal.NewFromInt(25)}).IsSuccess)

	stale = f.svc.ListProducts(ctx, models.ProductFilter{}, 1, 5)
	assert.Equal(t, 1, stale.Data.TotalCount, "non-default listing keys live until their TTL")

	f.mr.FastForward(services.DefaultPageTTL + time.Second)
	fresh := f.svc.ListProducts(ctx, models.ProductFilter{}, 1, 5)
	assert.Equal(t, 2, fresh.Data.TotalCount)
}

func TestCreateProduct_PublishFailureDoesNotFailWrite(t *testing.T) {
	f := newFixture(t)
	f.pub.On("Publish", mock.Anything, services.EventProductCreated, mock.Anything).Return(errors.New("broker gone")).Once()

	res := f.svc.CreateProduct(context.Background(), models.CreateProductInput{Name: "Mouse", Price: decimal.NewFromInt(25)})

	require.True(t, res.IsSuccess)
	assert.Equal(t, 1, f.logs.FilterMessage("failed to publish product event").Len())
	f.pub.AssertExpectations(t)
}

func TestUpdateProduct_Failures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	valid := models.UpdateProductInput{ID: 5, Name: "Name", Price: decimal.NewFromInt(1)}

	res := f.svc.UpdateProduct(ctx, 0, valid)
	assert.Equal(t, models.KindValidation, res.Kind)

	res = f.svc.UpdateProduct(ctx, 4, valid)
	assert.False(t, res.IsSuccess)
	assert.Equal(t, models.KindConflict, res.Kind)
	assert.Equal(t, "Product ID mismatch", res.Message)

	invalid := valid
	invalid.Name = strings.Repeat("n", 101)
	res = f.svc.UpdateProduct(ctx, 5, invalid)
	assert.Equal(t, models.KindValidation, res.Kind)
	assert.Equal(t, []string{"Product name must not exceed 100 characters."}, res.Errors)

	res = f.svc.UpdateProduct(ctx, 5, valid)
	assert.Equal(t, models.KindNotFound, res.Kind)
	assert.Equal(t, "Product with id 5 not found", res.Message)
	f.pub.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateProduct_GetNeverReturnsPreUpdateValues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.seed(t, "Laptop", "1200", 3)

	require.True(t, f.svc.GetProduct(ctx, p.ID).IsSuccess)
	require.True(t, f.svc.ListProducts(ctx, models.ProductFilter{}, 1, 10).IsSuccess)
	require.True(t, f.mr.Exists(cache.ProductKey(p.ID)))

	f.pub.On("Publish", mock.Anything, services.EventProductUpdated, eventFor(services.EventProductUpdated, p.ID)).Return(nil).Once()

	res := f.svc.UpdateProduct(ctx, p.ID, models.UpdateProductInput{
		ID:          p.ID,
		Name:        "Laptop Pro",
		Description: "Faster",
		Price:       decimal.RequireFromString("1500.50"),
	})
	require.True(t, res.IsSuccess)
	assert.Equal(t, "Product updated successfully", res.Message)
	assert.Equal(t, 3, res.Data.Quantity, "inventories are untouched")

	assert.False(t, f.mr.Exists(cache.ProductKey(p.ID)))
	assert.False(t, f.mr.Exists(cache.PageKey(1, 10, models.ProductFilter{})))

	got := f.svc.GetProduct(ctx, p.ID)
	require.True(t, got.IsSuccess)
	assert.Equal(t, "Laptop Pro", got.Data.Name)
	assert.Equal(t, "Faster", got.Data.Description)
	assert.Equal(t, "1500.50", got.Data.Price.StringFixed(2))

	list := f.svc.ListProducts(ctx, models.ProductFilter{}, 1, 10)
	require.True(t, list.IsSuccess)
	assert.Equal(t, "Laptop Pro", list.Data.Items[0].Name)
	f.pub.AssertExpectations(t)
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.seed(t, "Laptop", "1200", 6, 4)
	other := f.seed(t, "Mouse", "25", 50)

	res := f.svc.DeleteProduct(ctx, -1)
	assert.Equal(t, models.KindValidation, res.Kind)

	res = f.svc.DeleteProduct(ctx, 404)
	assert.Equal(t, models.KindNotFound, res.Kind)
	assert.Equal(t, "Product with id 404 not found", res.Message)

	require.True(t, f.svc.GetProduct(ctx, p.ID).IsSuccess)
	require.True(t, f.svc.ListProducts(ctx, models.ProductFilter{}, 1, 10).IsSuccess)
	f.pub.On("Publish", mock.Anything, services.EventProductDeleted, eventFor(services.EventProductDeleted, p.ID)).Return(nil).Once()

	res = f.svc.DeleteProduct(ctx, p.ID)
	require.True(t, res.IsSuccess)
	assert.Equal(t, "Product deleted successfully", res.Message)
	require.NotNil(t, res.Data)
	assert.True(t, *res.Data)

	got := f.svc.GetProduct(ctx, p.ID)
	assert.Equal(t, models.KindNotFound, got.Kind)

	list := f.svc.ListProducts(ctx, models.ProductFilter{}, 1, 10)
	require.True(t, list.IsSuccess)
	require.Len(t, list.Data.Items, 1)
	assert.Equal(t, other.ID, list.Data.Items[0].ID)

	var inventories int64
	require.NoError(t, f.db.Model(&models.Inventory{}).Where("product_id = ?", p.ID).Count(&inventories).Error)
	assert.Zero(t, inventories)
	f.pub.AssertExpectations(t)
}

func TestStoreFailureIsGeneric(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, database.Close(f.db))

	list := f.svc.ListProducts(ctx, models.ProductFilter{}, 1, 10)
	assert.False(t, list.IsSuccess)
	assert.Equal(t, models.KindStore, list.Kind)
	assert.Equal(t, []string{"An error occurred while retrieving products"}, list.Errors)

	get := f.svc.GetProduct(ctx, 1)
	assert.Equal(t, models.KindStore, get.Kind)
	assert.Equal(t, "An error occurred while retrieving the product", get.Message)

	created := f.svc.CreateProduct(ctx, models.CreateProductInput{Name: "Mouse", Price: decimal.NewFromInt(1)})
	assert.Equal(t, models.KindStore, created.Kind)
	assert.Equal(t, "An error occurred while creating the product", created.Message)

	failures := f.logs.FilterMessage("operation failed").FilterField(zap.String("kind", "store")).All()
	require.Len(t, failures, 3)
	assert.Equal(t, zapcore.ErrorLevel, failures[0].Level)
	assert.Contains(t, failures[0].ContextMap(), "error")
}

func TestHandleProductEvent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.mr.Set(cache.ProductKey(3), "{}"))
	require.NoError(t, f.mr.Set(cache.PageKey(1, 10, models.ProductFilter{}), "{}"))

	body, err := json.Marshal(services.ProductEvent{Type: services.EventProductUpdated, ProductID: 3, OccurredAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, f.svc.HandleProductEvent(ctx, body))

	assert.False(t, f.mr.Exists(cache.ProductKey(3)))
	assert.False(t, f.mr.Exists(cache.PageKey(1, 10, models.ProductFilter{})))

	assert.Error(t, f.svc.HandleProductEvent(ctx, []byte("not json")))
	assert.Error(t, f.svc.HandleProductEvent(ctx, []byte(`{"type":"product.renamed","productId":3}`)))
	assert.Error(t, f.svc.HandleProductEvent(ctx, []byte(`{"type":"product.deleted","productId":0}`)))
}
