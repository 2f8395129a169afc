package handlers

import (
	"strconv"

	"github.com/Zephyr-r/Zephyrus/models"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type FavoriteHandler struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewFavoriteHandler(db *gorm.DB, log *zap.Logger) *FavoriteHandler {
	return &FavoriteHandler{DB: db, Log: log}
}

// ToggleFavorite - POST /api/products/:id/favorite
func (h *FavoriteHandler) ToggleFavorite(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	productID, err := strconv.Atoi(c.Params("id"))
	if err != nil || productID < 1 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
	}

	var product models.Product
	if err := h.DB.First(&product, productID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Product not found"})
	}

	var existing models.Favorite
	err = h.DB.Where("user_id = ? AND product_id = ?", userID, product.ID).First(&existing).Error
	switch {
	case err == nil:
		if err := h.DB.Delete(&existing).Error; err != nil {
			return respondError(c, h.Log, err)
		}
		return c.JSON(fiber.Map{"favorited": false})
	case err == gorm.ErrRecordNotFound:
		favorite := models.Favorite{UserID: userID, ProductID: product.ID}
		if err := h.DB.Create(&favorite).Error; err != nil {
			return respondError(c, h.Log, err)
		}
		return c.JSON(fiber.Map{"favorited": true})
	default:
		return respondError(c, h.Log, err)
	}
}

// GetFavorites - GET /api/favorites
func (h *FavoriteHandler) GetFavorites(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return err
	}

	var favorites []models.Favorite
	err = h.DB.Preload("Product").Preload("Product.Seller", func(db *gorm.DB) *gorm.DB {
		return db.Select("id, username, avatar")
	}).Where("user_id = ?", userID).Order("created_at desc").Find(&favorites).Error
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(fiber.Map{"data": favorites})
}
