package entities

import (
	"time"

	"gorm.io/gorm"
)

type Book struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Title     string         `gorm:"index;size:512" json:"title"`
	Author    string         `gorm:"index;size:256" json:"author"`
	CoverRef  string         `gorm:"size:2048" json:"cover_ref,omitempty"` // Storage ref or absolute URL
	Pages     []Page         `gorm:"foreignKey:BookID" json:"pages,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// Page is a single illustrated page of a book. Text holds the raw caption
// payload exactly as stored; it is decoded by the captions package.
type Page struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	BookID        uint      `gorm:"index;uniqueIndex:idx_book_page_no" json:"book_id"`
	PageNo        int       `gorm:"uniqueIndex:idx_book_page_no" json:"page_no"`
	Text          string    `gorm:"type:text" json:"text,omitempty"`
	ImageRef      string    `gorm:"size:2048" json:"image_ref,omitempty"`
	ImageCleanRef string    `gorm:"size:2048" json:"image_clean_ref,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DisplayImageRef returns the primary image ref, falling back to the clean variant.
func (p Page) DisplayImageRef() string {
	if p.ImageRef != "" {
		return p.ImageRef
	}
	return p.ImageCleanRef
}
