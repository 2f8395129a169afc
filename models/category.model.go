package models

// Category is the fixed set of product categories, seeded at migration.
// Product rows reference a category by its slug.
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:50;not null;unique" json:"name"`
	Slug string `gorm:"size:50;not null;unique" json:"slug"`
}
