// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/pkallio/photoguard-go/internal/conf"
	"github.com/pkallio/photoguard-go/internal/errors"
)

// Interface abstracts the underlying database implementation and defines the
// operations the engine needs.
type Interface interface {
	Open() error
	Close() error

	GetEntry(id uint) (*Entry, error)
	SaveEntry(entry *Entry) error
	GetUser(id uint) (*User, error)
	SaveUser(user *User) error
	GetEntriesByStatus(status string, limit, offset int) ([]Entry, int64, error)

	// Transaction runs fn inside a database transaction. The store passed to
	// fn is scoped to that transaction.
	Transaction(fn func(tx *DataStore) error) error
}

// DataStore implements the shared database operations using a GORM database.
type DataStore struct {
	DB *gorm.DB
}

// New creates a store instance based on the configured output.
func New(settings *conf.Settings) (Interface, error) {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{Settings: settings}, nil
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{Settings: settings}, nil
	default:
		return nil, errors.Newf("no database output enabled").
			Component("datastore").
			Category(errors.CategoryConfiguration).
			Build()
	}
}

// GetEntry retrieves an entry by id.
func (ds *DataStore) GetEntry(id uint) (*Entry, error) {
	var entry Entry
	if err := ds.DB.First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf("entry %d not found", id).
				Component("datastore").
				Category(errors.CategoryNotFound).
				Build()
		}
		return nil, errors.Newf("getting entry %d: %v", id, err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	if entry.Metadata == nil {
		entry.Metadata = EntryMetadata{}
	}
	return &entry, nil
}

// SaveEntry inserts or updates an entry.
func (ds *DataStore) SaveEntry(entry *Entry) error {
	if err := ds.DB.Save(entry).Error; err != nil {
		return errors.Newf("saving entry: %v", err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return nil
}

// GetUser retrieves a user by id.
func (ds *DataStore) GetUser(id uint) (*User, error) {
	var user User
	if err := ds.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf("user %d not found", id).
				Component("datastore").
				Category(errors.CategoryNotFound).
				Build()
		}
		return nil, errors.Newf("getting user %d: %v", id, err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return &user, nil
}

// SaveUser inserts or updates a user.
func (ds *DataStore) SaveUser(user *User) error {
	if err := ds.DB.Save(user).Error; err != nil {
		return errors.Newf("saving user: %v", err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return nil
}

// GetEntriesByStatus lists entries in a moderation status, newest first.
func (ds *DataStore) GetEntriesByStatus(status string, limit, offset int) ([]Entry, int64, error) {
	var entries []Entry
	var total int64

	query := ds.DB.Model(&Entry{}).Where("moderation_status = ?", status)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Newf("counting entries: %v", err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}

	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&entries).Error
	if err != nil {
		return nil, 0, errors.Newf("listing entries: %v", err).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Build()
	}
	return entries, total, nil
}

// Transaction runs fn inside a database transaction.
func (ds *DataStore) Transaction(fn func(tx *DataStore) error) error {
	return ds.DB.Transaction(func(tx *gorm.DB) error {
		return fn(&DataStore{DB: tx})
	})
}

// performAutoMigration runs GORM auto-migration for the model types.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&Entry{}, &User{}); err != nil {
		return fmt.Errorf("failed to auto-migrate %s database: %w", dbType, err)
	}
	if debug {
		fmt.Printf("%s database connection initialized: %s\n", dbType, connectionInfo)
	}
	return nil
}
