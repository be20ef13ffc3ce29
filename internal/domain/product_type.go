package domain

import "time"

// ProductType is a product category. The backend schema names the display column "nome".
type ProductType struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:nome;size:200;index" json:"nome"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName Specify table name
func (ProductType) TableName() string {
	return "categories"
}

func (t ProductType) RecordID() int64 {
	return t.ID
}
