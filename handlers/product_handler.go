package handlers

import (
	"strconv"

	"github.com/Zephyr-r/Zephyrus/models"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ProductHandler struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewProductHandler(db *gorm.DB, log *zap.Logger) *ProductHandler {
	return &ProductHandler{DB: db, Log: log}
}

// ProductRequest is the create/update payload.
type ProductRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Category    string   `json:"category"`
	Condition   string   `json:"condition"`
	Images      []string `json:"images"`
}

// CreateProduct - POST /api/products
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}
	if req.Title == "" || req.Description == "" || req.Category == "" || req.Condition == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "All fields are required"})
	}
	if req.Price < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Price must not be negative"})
	}
	if len(req.Images) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "At least one image is required"})
	}

	product := models.Product{
		SellerID:    userID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Condition:   req.Condition,
		Images:      req.Images,
		Status:      models.ProductAvailable,
	}

	if err := h.DB.Create(&product).Error; err != nil {
		return respondError(c, h.Log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Product created", "data": product})
}

// GetAllProducts - GET /api/products
func (h *ProductHandler) GetAllProducts(c *fiber.Ctx) error {
	query := h.DB.Preload("Seller", func(db *gorm.DB) *gorm.DB {
		return db.Select("id, username, avatar")
	}).Where("status = ?", models.ProductAvailable)

	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if condition := c.Query("condition"); condition != "" {
		query = query.Where("condition = ?", condition)
	}
	if minPrice := c.QueryFloat("minPrice", -1); minPrice >= 0 {
		query = query.Where("price >= ?", minPrice)
	}
	if maxPrice := c.QueryFloat("maxPrice", -1); maxPrice >= 0 {
		query = query.Where("price <= ?", maxPrice)
	}
	if q := c.Query("q"); q != "" {
		query = query.Where("title LIKE ? OR description LIKE ?", "%"+q+"%", "%"+q+"%")
	}

	sortBy := c.Query("sortBy", "created_at")
	switch sortBy {
	case "created_at", "price", "views":
	default:
		sortBy = "created_at"
	}
	direction := "DESC"
	if c.Query("order") == "asc" {
		direction = "ASC"
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Model(&models.Product{}).Count(&total).Error; err != nil {
		return respondError(c, h.Log, err)
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var products []models.Product
	if err := query.Session(&gorm.Session{}).Order(sortBy + " " + direction).Offset((page - 1) * limit).Limit(limit).Find(&products).Error; err != nil {
		return respondError(c, h.Log, err)
	}

	return c.JSON(fiber.Map{
		"data": products,
		"meta": models.NewPaginationMeta(page, limit, total),
	})
}

// SearchProducts - GET /api/products/search
func (h *ProductHandler) SearchProducts(c *fiber.Ctx) error {
	q := c.Query("q")
	if q == "" {
		return c.JSON(fiber.Map{"data": []models.Product{}})
	}

	var products []models.Product
	err := h.DB.Preload("Seller", func(db *gorm.DB) *gorm.DB {
		return db.Select("id, username, avatar")
	}).
		Where("(title LIKE ? OR description LIKE ?) AND status = ?", "%"+q+"%", "%"+q+"%", models.ProductAvailable).
		Limit(20).
		Find(&products).Error
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(fiber.Map{"data": products})
}

// GetProduct - GET /api/products/:id
func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id < 1 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
	}

	var product models.Product
	if err := h.DB.Preload("Seller", func(db *gorm.DB) *gorm.DB {
		return db.Select("id, username, avatar")
	}).First(&product, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
	}

	// View counter; failure here must not break the read.
	if err := h.DB.Model(&product).UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
		h.Log.Warn("view count update failed", zap.Uint("product_id", product.ID), zap.Error(err))
	} else {
		product.Views++
	}

	return c.JSON(fiber.Map{"data": product})
}

// GetMyProducts - GET /api/my-products
func (h *ProductHandler) GetMyProducts(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var products []models.Product
	if err := h.DB.Where("seller_id = ?", userID).Order("created_at desc").Find(&products).Error; err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(fiber.Map{"data": products})
}

// UpdateProduct - PUT /api/products/:id
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id < 1 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
	}
	if product.SellerID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not authorized"})
	}

	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}
	if req.Price < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Price must not be negative"})
	}
	if len(req.Images) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "At least one image is required"})
	}

	// Status is never edited here; only the order engine moves it.
	product.Title = req.Title
	product.Description = req.Description
	product.Price = req.Price
	product.Category = req.Category
	product.Condition = req.Condition
	product.Images = req.Images

	if err := h.DB.Save(&product).Error; err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(fiber.Map{"message": "Product updated", "data": product})
}

// DeleteProduct - DELETE /api/products/:id
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	id, err := strconv.Atoi(c.Params("id"))
	if err != nil || id < 1 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
	}

	var product models.Product
	if err := h.DB.First(&product, id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
	}
	if product.SellerID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Not authorized"})
	}

	// A product referenced by a live order must stay.
	var referencing int64
	err = h.DB.Model(&models.Order{}).
		Where("product_id = ? AND status != ?", product.ID, models.OrderCancelled).
		Count(&referencing).Error
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if referencing > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Product is referenced by an order"})
	}

	if err := h.DB.Delete(&product).Error; err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(fiber.Map{"message": "Product deleted"})
}
