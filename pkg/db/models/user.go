package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User anchors ownership of carts, orders, addresses and wishlists.
// Authentication itself lives outside this service; only the identity row
// is persisted here.
type User struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email     string    `gorm:"column:email;not null;uniqueIndex"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
