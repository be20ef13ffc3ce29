package domain

import "time"

// Product is a catalog item. Category is filled by the gateway join at read time.
type Product struct {
	ID         int64        `gorm:"primaryKey;autoIncrement" json:"id"`
	Title      string       `gorm:"size:200;index" json:"title"`
	CategoryID int64        `gorm:"index" json:"category_id"`
	ImageURL   string       `gorm:"size:1024" json:"image_url"` // generated object name in the image bucket
	Category   *ProductType `gorm:"foreignKey:CategoryID" json:"categories,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// TableName Specify table name
func (Product) TableName() string {
	return "products"
}

func (p Product) RecordID() int64 {
	return p.ID
}
