package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"time"

	"catalog/internal/cache"
	"catalog/internal/models"
	"catalog/internal/observability"
	"catalog/internal/repositories"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	DefaultProductTTL = 10 * time.Minute
	DefaultPageTTL    = 5 * time.Minute
)

const (
	msgValidationFailed = "Validation failed"
	msgInvalidID        = "Invalid product ID"
	msgIDMismatch       = "Product ID mismatch"
	msgCreated          = "Product created successfully"
	msgUpdated          = "Product updated successfully"
	msgDeleted          = "Product deleted successfully"
)

// listRequest gathers listing parameters for validation.
type listRequest struct {
	Filter     models.ProductFilter
	PageNumber int `validate:"gte=1"`
	PageSize   int `validate:"gte=1,lte=100"`
}

// ProductService orchestrates product reads and writes over the store and
// the cache. Every operation returns a result envelope; no error escapes.
type ProductService struct {
	db         *gorm.DB
	cache      *cache.Aside
	validator  *Validator
	sink       observability.Sink
	publisher  EventPublisher
	logger     *zap.Logger
	productTTL time.Duration
	pageTTL    time.Duration
	now        func() time.Time
}

// Option customises a ProductService.
type Option func(*ProductService)

// WithSink sets the sink receiving operation events.
func WithSink(sink observability.Sink) Option {
	return func(s *ProductService) { s.sink = sink }
}

// WithPublisher sets where product change events are published.
func WithPublisher(p EventPublisher) Option {
	return func(s *ProductService) { s.publisher = p }
}

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *ProductService) { s.logger = logger }
}

// WithTTLs overrides the cache lifetimes of product and page entries.
func WithTTLs(product, page time.Duration) Option {
	return func(s *ProductService) {
		if product > 0 {
			s.productTTL = product
		}
		if page > 0 {
			s.pageTTL = page
		}
	}
}

// NewProductService creates a new ProductService.
func NewProductService(db *gorm.DB, aside *cache.Aside, opts ...Option) *ProductService {
	s := &ProductService{
		db:         db,
		cache:      aside,
		validator:  NewValidator(),
		sink:       observability.NopSink{},
		logger:     zap.NewNop(),
		productTTL: DefaultProductTTL,
		pageTTL:    DefaultPageTTL,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = cache.NewAside(nil, s.logger, 0)
	}
	s.logger = s.logger.Named("products")
	return s
}

// ListProducts returns one page of products matching the filter, ordered by id.
func (s *ProductService) ListProducts(ctx context.Context, filter models.ProductFilter, pageNumber, pageSize int) models.Result[models.PagedResult[models.ProductView]] {
	span := s.sink.Started(ctx, "ListProducts",
		zap.Int("page_number", pageNumber),
		zap.Int("page_size", pageSize),
		zap.String("name", filter.Name),
		zap.String("description", filter.Description),
	)

	if errs := s.validator.Check(listRequest{Filter: filter, PageNumber: pageNumber, PageSize: pageSize}); errs != nil {
		span.Failed(models.KindValidation, nil, zap.Strings("errors", errs))
		return models.Failure[models.PagedResult[models.ProductView]](models.KindValidation, msgValidationFailed, errs...)
	}

	key := cache.PageKey(pageNumber, pageSize, filter)
	page, _, err := cache.Fetch(ctx, s.cache, key, s.pageTTL, func(ctx context.Context) (models.PagedResult[models.ProductView], bool, error) {
		uow := repositories.NewUnitOfWork(s.db)
		query := uow.Products.Query(ctx, repositories.MatchProductFilter(filter), repositories.OrderByID)
		products, err := repositories.Paginate[models.Product](ctx, query, pageNumber, pageSize, repositories.PreloadInventories)
		if err != nil {
			return models.PagedResult[models.ProductView]{}, false, err
		}
		views := make([]models.ProductView, len(products.Items))
		for i := range products.Items {
			views[i] = toView(&products.Items[i])
		}
		return models.NewPagedResult(views, products.PageNumber, products.PageSize, products.TotalCount), true, nil
	})
	if err != nil {
		span.Failed(models.KindStore, err)
		return models.Failure[models.PagedResult[models.ProductView]](models.KindStore, "An error occurred while retrieving products")
	}

	span.Succeeded(zap.Int("count", len(page.Items)), zap.Int("total_count", page.TotalCount))
	return models.Success(page, "")
}

// GetProduct returns a single product.
func (s *ProductService) GetProduct(ctx context.Context, id int64) models.Result[models.ProductView] {
	span := s.sink.Started(ctx, "GetProduct", zap.Int64("product_id", id))

	if id <= 0 {
		span.Failed(models.KindValidation, nil)
		return models.Failure[models.ProductView](models.KindValidation, msgInvalidID)
	}

	view, found, err := cache.Fetch(ctx, s.cache, cache.ProductKey(id), s.productTTL, func(ctx context.Context) (models.ProductView, bool, error) {
		product, err := repositories.NewUnitOfWork(s.db).Products.SingleOrNone(ctx, repositories.WhereID(id), repositories.PreloadInventories)
		if err != nil || product == nil {
			return models.ProductView{}, false, err
		}
		return toView(product), true, nil
	})
	if err != nil {
		span.Failed(models.KindStore, err)
		return models.Failure[models.ProductView](models.KindStore, "An error occurred while retrieving the product")
	}
	if !found {
		span.Failed(models.KindNotFound, nil)
		return models.Failure[models.ProductView](models.KindNotFound, notFoundMessage(id))
	}

	span.Succeeded()
	return models.Success(view, "")
}

// CreateProduct validates and stores a new product.
func (s *ProductService) CreateProduct(ctx context.Context, input models.CreateProductInput) models.Result[models.ProductView] {
	span := s.sink.Started(ctx, "CreateProduct", zap.String("name", input.Name))

	input.Price = input.Price.Round(2)
	if errs := s.validator.Check(input); errs != nil {
		span.Failed(models.KindValidation, nil, zap.Strings("errors", errs))
		return models.Failure[models.ProductView](models.KindValidation, msgValidationFailed, errs...)
	}

	product := models.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
	}
	uow := repositories.NewUnitOfWork(s.db)
	uow.Products.Add(&product)
	if err := uow.Commit(ctx); err != nil {
		span.Failed(models.KindStore, err)
		return models.Failure[models.ProductView](models.KindStore, "An error occurred while creating the product")
	}

	s.cache.Invalidate(ctx, cache.DefaultViewKeys()...)
	s.publish(ctx, EventProductCreated, product.ID)

	span.Succeeded(zap.Int64("product_id", product.ID))
	return models.Success(toView(&product), msgCreated)
}

// UpdateProduct replaces the name, description and price of an existing product.
func (s *ProductService) UpdateProduct(ctx context.Context, id int64, input models.UpdateProductInput) models.Result[models.ProductView] {
	span := s.sink.Started(ctx, "UpdateProduct", zap.Int64("product_id", id))

	if id <= 0 {
		span.Failed(models.KindValidation, nil)
		return models.Failure[models.ProductView](models.KindValidation, msgInvalidID)
	}
	if id != input.ID {
		span.Failed(models.KindConflict, nil, zap.Int64("payload_id", input.ID))
		return models.Failure[models.ProductView](models.KindConflict, msgIDMismatch)
	}
	input.Price = input.Price.Round(2)
	if errs := s.validator.Check(input); errs != nil {
		span.Failed(models.KindValidation, nil, zap.Strings("errors", errs))
		return models.Failure[models.ProductView](models.KindValidation, msgValidationFailed, errs...)
	}

	const storeFailure = "An error occurred while updating the product"
	uow := repositories.NewUnitOfWork(s.db)
	product, err := uow.Products.SingleOrNone(ctx, repositories.WhereID(id), repositories.PreloadInventories)
	if err != nil {
		span.Failed(models.KindStore, err)
		return models.Failure[models.ProductView](models.KindStore, storeFailure)
	}
	if product == nil {
		span.Failed(models.KindNotFound, nil)
		return models.Failure[models.ProductView](models.KindNotFound, notFoundMessage(id))
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Price = input.Price
	uow.Products.Update(product)
	if err := uow.Commit(ctx); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			span.Failed(models.KindNotFound, err)
			return models.Failure[models.ProductView](models.KindNotFound, notFoundMessage(id))
		}
		span.Failed(models.KindStore, err)
		return models.Failure[models.ProductView](models.KindStore, storeFailure)
	}

	s.cache.Invalidate(ctx, append([]string{cache.ProductKey(id)}, cache.DefaultViewKeys()...)...)
	s.publish(ctx, EventProductUpdated, id)

	span.Succeeded()
	return models.Success(toView(product), msgUpdated)
}

// DeleteProduct removes a product and its inventory records.
func (s *ProductService) DeleteProduct(ctx context.Context, id int64) models.Result[bool] {
	span := s.sink.Started(ctx, "DeleteProduct", zap.Int64("product_id", id))

	if id <= 0 {
		span.Failed(models.KindValidation, nil)
		return models.Failure[bool](models.KindValidation, msgInvalidID)
	}

	const storeFailure = "An error occurred while deleting the product"
	uow := repositories.NewUnitOfWork(s.db)
	product, err := uow.Products.SingleOrNone(ctx, repositories.WhereID(id))
	if err != nil {
		span.Failed(models.KindStore, err)
		return models.Failure[bool](models.KindStore, storeFailure)
	}
	if product == nil {
		span.Failed(models.KindNotFound, nil)
		return models.Failure[bool](models.KindNotFound, notFoundMessage(id))
	}

	uow.Products.Delete(product)
	if err := uow.Commit(ctx); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			span.Failed(models.KindNotFound, err)
			return models.Failure[bool](models.KindNotFound, notFoundMessage(id))
		}
		span.Failed(models.KindStore, err)
		return models.Failure[bool](models.KindStore, storeFailure)
	}

	s.cache.Invalidate(ctx, append([]string{cache.ProductKey(id)}, cache.DefaultViewKeys()...)...)
	s.publish(ctx, EventProductDeleted, id)

	span.Succeeded()
	return models.Success(true, msgDeleted)
}

// HandleProductEvent evicts the cache entries touched by a change made on
// another instance.
func (s *ProductService) HandleProductEvent(ctx context.Context, body []byte) error {
	evt, err := decodeProductEvent(body)
	if err != nil {
		return err
	}
	keys := cache.DefaultViewKeys()
	if evt.Type != EventProductCreated {
		keys = append(keys, cache.ProductKey(evt.ProductID))
	}
	s.cache.Invalidate(ctx, keys...)
	s.logger.Debug("applied product event",
		zap.String("type", evt.Type),
		zap.Int64("product_id", evt.ProductID),
	)
	return nil
}

// publish announces a committed change. Delivery is best effort: the write
// has already succeeded, so failures are only logged.
func (s *ProductService) publish(ctx context.Context, eventType string, id int64) {
	if s.publisher == nil {
		return
	}
	body, err := json.Marshal(ProductEvent{Type: eventType, ProductID: id, OccurredAt: s.now().UTC()})
	if err != nil {
		s.logger.Warn("failed to encode product event", zap.String("type", eventType), zap.Error(err))
		return
	}
	if err := s.publisher.Publish(ctx, eventType, body); err != nil {
		s.logger.Warn("failed to publish product event",
			zap.String("type", eventType),
			zap.Int64("product_id", id),
			zap.Error(err),
		)
	}
}

func notFoundMessage(id int64) string {
	return fmt.Sprintf("Product with id %d not found", id)
}

// toView maps an entity to its transfer form. Text is HTML-escaped for
// safe rendering and the price is fixed to two decimal places.
func toView(p *models.Product) models.ProductView {
	return models.ProductView{
		ID:          p.ID,
		Name:        html.EscapeString(p.Name),
		Description: html.EscapeString(p.Description),
		Price:       models.NewMoney(p.Price),
		Quantity:    p.StockLevel(),
	}
}
