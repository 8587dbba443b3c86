package database

import (
	"errors"
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hanyong5/2025book/internal/entities"
)

var ErrBookNotFound = errors.New("book not found")

type Database struct {
	DB *gorm.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	return open(dbPath, logger.Warn)
}

// NewDebugDatabase opens the database with SQL statement logging enabled.
func NewDebugDatabase(dbPath string) (*Database, error) {
	return open(dbPath, logger.Info)
}

func open(dbPath string, level logger.LogLevel) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Book{},
		&entities.Page{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping verifies the underlying connection is usable.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// GetBook retrieves a book record without its pages.
func (d *Database) GetBook(id uint) (*entities.Book, error) {
	var book entities.Book
	err := d.DB.First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrBookNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// ListBooks returns all books, newest first.
func (d *Database) ListBooks() ([]entities.Book, error) {
	var books []entities.Book
	err := d.DB.Order("created_at DESC, id DESC").Find(&books).Error
	return books, err
}

// ListPages returns a book's pages ordered by page number.
func (d *Database) ListPages(bookID uint) ([]entities.Page, error) {
	var pages []entities.Page
	err := d.DB.Where("book_id = ?", bookID).Order("page_no ASC").Find(&pages).Error
	return pages, err
}

// SaveBook upserts a book by title + author. When the book already exists its
// pages are replaced by the ones carried on the given book.
func (d *Database) SaveBook(book *entities.Book) error {
	return d.DB.Transaction(func(tx *gorm.DB) error {
		var existing entities.Book
		result := tx.Where("title = ? AND author = ?", book.Title, book.Author).First(&existing)

		switch {
		case result.Error == nil:
			book.ID = existing.ID
			book.CreatedAt = existing.CreatedAt
			if err := tx.Where("book_id = ?", book.ID).Delete(&entities.Page{}).Error; err != nil {
				return fmt.Errorf("failed to clear pages of book %d: %w", book.ID, err)
			}
			pages := book.Pages
			book.Pages = nil
			if err := tx.Save(book).Error; err != nil {
				return err
			}
			book.Pages = pages
			return d.createPages(tx, book)
		case errors.Is(result.Error, gorm.ErrRecordNotFound):
			pages := book.Pages
			book.Pages = nil
			if err := tx.Create(book).Error; err != nil {
				return err
			}
			book.Pages = pages
			return d.createPages(tx, book)
		default:
			return result.Error
		}
	})
}

func (d *Database) createPages(tx *gorm.DB, book *entities.Book) error {
	if len(book.Pages) == 0 {
		return nil
	}
	for i := range book.Pages {
		book.Pages[i].ID = 0
		book.Pages[i].BookID = book.ID
	}
	if err := tx.Create(&book.Pages).Error; err != nil {
		return fmt.Errorf("failed to create pages of book %d: %w", book.ID, err)
	}
	return nil
}

// DeleteBook soft-deletes a book and removes its pages.
func (d *Database) DeleteBook(id uint) error {
	return d.DB.Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&entities.Book{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: %d", ErrBookNotFound, id)
		}
		return tx.Where("book_id = ?", id).Delete(&entities.Page{}).Error
	})
}
