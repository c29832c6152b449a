// Package directory resolves doctor identifiers against the external
// doctors table. The pipeline only ever reads this data; schema ownership
// lives with the directory service.
package directory

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/medscribe/medscribe/internal/domain/entities"
)

// Directory is a read-only gorm-backed doctor lookup.
type Directory struct {
	db *gorm.DB
}

// New connects to the doctor database.
func New(dsn string) (*Directory, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect doctor directory: %w", err)
	}
	return &Directory{db: db}, nil
}

// NewWithDB wraps an existing connection; used by tests.
func NewWithDB(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// GetDoctor implements pipeline.DoctorDirectory.
func (d *Directory) GetDoctor(ctx context.Context, id string) (*entities.Doctor, error) {
	var doctor entities.Doctor
	err := d.db.WithContext(ctx).First(&doctor, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, entities.ErrDoctorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("doctor lookup: %w", err)
	}
	return &doctor, nil
}
