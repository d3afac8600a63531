package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"pocketbook/internal/uuid"
)

// Base holds the id and timestamps shared by every owned record. Rows are
// soft-deleted; the deletion stamp never leaves the API.
type Base struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a UUIDv7 to new records. A preset id must be a UUID
// and is stored in canonical lowercase so path lookups match it.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New()
		return nil
	}
	id, err := uuid.Parse(b.ID)
	if err != nil {
		return fmt.Errorf("invalid record id %q: %w", b.ID, err)
	}
	b.ID = id
	return nil
}
