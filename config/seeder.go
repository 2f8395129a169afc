package config

import (
	"log"

	"github.com/Zephyr-r/Zephyrus/models"
	"github.com/Zephyr-r/Zephyrus/utils"
	"gorm.io/gorm"
)

func SeedCategories(db *gorm.DB) {
	categories := []models.Category{
		{Name: "Electronics", Slug: "electronics"},
		{Name: "Clothing", Slug: "clothing"},
		{Name: "Books", Slug: "books"},
		{Name: "Furniture", Slug: "furniture"},
		{Name: "Sports", Slug: "sports"},
		{Name: "Others", Slug: "others"},
	}

	for _, category := range categories {
		var existing models.Category
		if err := db.Where("slug = ?", category.Slug).First(&existing).Error; err == gorm.ErrRecordNotFound {
			if err := db.Create(&category).Error; err != nil {
				log.Printf("Failed to seed category %s: %v", category.Name, err)
			}
		}
	}
}

func SeedUsers(db *gorm.DB) {
	log.Println("Seeding users...")

	password, _ := utils.HashPassword("password123")

	users := []models.User{
		{
			Username: "user1",
			Email:    "user1@example.com",
			Password: password,
			Role:     "user",
		},
		{
			Username: "user2",
			Email:    "user2@example.com",
			Password: password,
			Role:     "user",
		},
	}

	for _, user := range users {
		var existingUser models.User
		if err := db.Where("email = ?", user.Email).First(&existingUser).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := db.Create(&user).Error; err != nil {
					log.Printf("Failed to seed user %s: %v", user.Username, err)
				} else {
					log.Printf("User seeded: %s (ID: %d)", user.Username, user.ID)
				}
			}
		} else {
			log.Printf("User already exists: %s", user.Username)
		}
	}

	log.Println("Seeding complete.")
}

func SeedProducts(db *gorm.DB) {
	log.Println("Seeding products...")

	var seller models.User
	if err := db.Where("username = ?", "user1").First(&seller).Error; err != nil {
		log.Printf("No seed seller found, skipping products: %v", err)
		return
	}

	products := []models.Product{
		{
			SellerID:    seller.ID,
			Title:       "Mechanical keyboard",
			Description: "87-key, brown switches, lightly used.",
			Price:       45,
			Category:    "electronics",
			Condition:   "good",
			Images:      []string{"/uploads/products/keyboard.jpg"},
			Status:      models.ProductAvailable,
		},
		{
			SellerID:    seller.ID,
			Title:       "City bike",
			Description: "Three-speed commuter bike, new tires.",
			Price:       120,
			Category:    "sports",
			Condition:   "fair",
			Images:      []string{"/uploads/products/bike-1.jpg", "/uploads/products/bike-2.jpg"},
			Status:      models.ProductAvailable,
		},
	}

	for _, product := range products {
		var existing models.Product
		if err := db.Where("seller_id = ? AND title = ?", product.SellerID, product.Title).First(&existing).Error; err == gorm.ErrRecordNotFound {
			if err := db.Create(&product).Error; err != nil {
				log.Printf("Failed to seed product %s: %v", product.Title, err)
			}
		}
	}

	log.Println("Seeding complete.")
}
