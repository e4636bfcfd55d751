package handlers

import (
	"catalog/internal/cache"
	"catalog/internal/models"
	"catalog/internal/services"

	"github.com/gofiber/fiber/v2"
)

const (
	msgInvalidBody = "Invalid request body"
	msgInvalidID   = "Invalid product ID"
)

// ProductHandler handles HTTP requests for products.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/:id", h.HandleGetProduct)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

type listQuery struct {
	PageNumber  int    `query:"pageNumber"`
	PageSize    int    `query:"pageSize"`
	Name        string `query:"name"`
	Description string `query:"description"`
}

// HandleListProducts returns a page of products.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	q := listQuery{PageNumber: 1, PageSize: cache.DefaultPageSize}
	if err := c.QueryParser(&q); err != nil {
		return badRequest(c, "Validation failed", "Invalid query parameters")
	}

	filter := models.ProductFilter{Name: q.Name, Description: q.Description}
	res := h.service.ListProducts(c.UserContext(), filter, q.PageNumber, q.PageSize)
	return respond(c, res, fiber.StatusOK)
}

// HandleGetProduct returns a single product by its ID.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	id, ok := productID(c)
	if !ok {
		return badRequest(c, msgInvalidID)
	}
	return respond(c, h.service.GetProduct(c.UserContext(), id), fiber.StatusOK)
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var input models.CreateProductInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, msgInvalidBody)
	}
	return respond(c, h.service.CreateProduct(c.UserContext(), input), fiber.StatusCreated)
}

// HandleUpdateProduct replaces an existing product's fields.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, ok := productID(c)
	if !ok {
		return badRequest(c, msgInvalidID)
	}
	var input models.UpdateProductInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, msgInvalidBody)
	}
	return respond(c, h.service.UpdateProduct(c.UserContext(), id, input), fiber.StatusOK)
}

// HandleDeleteProduct deletes a product by its ID.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, ok := productID(c)
	if !ok {
		return badRequest(c, msgInvalidID)
	}
	return respond(c, h.service.DeleteProduct(c.UserContext(), id), fiber.StatusOK)
}

func productID(c *fiber.Ctx) (int64, bool) {
	id, err := c.ParamsInt("id")
	if err != nil {
		return 0, false
	}
	return int64(id), true
}
