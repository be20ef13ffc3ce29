package domain

import "time"

// Carrier is a shipping company offered at checkout
type Carrier struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:200;index" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName Specify table name
func (Carrier) TableName() string {
	return "carriers"
}

func (c Carrier) RecordID() int64 {
	return c.ID
}
