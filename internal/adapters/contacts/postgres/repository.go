package postgres

import (
	"context"
	"errors"
	"fmt"

	"chatblast/internal/domain"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// adminSettingID pins AdminSetting to a single row.
const adminSettingID = 1

// Repository implements ports.ContactRepository using PostgreSQL.
type Repository struct {
	db *gorm.DB
}

// New opens a PostgreSQL connection and returns a Repository.
func New(dsn string) (*Repository, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql db: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying connection pool.
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveList persists a list and its contacts in one transaction.
func (r *Repository) SaveList(ctx context.Context, list domain.ContactList) error {
	if err := r.db.WithContext(ctx).Create(&list).Error; err != nil {
		return fmt.Errorf("insert contact list: %w", err)
	}
	return nil
}

// Lists returns all saved lists without their contacts, newest first.
func (r *Repository) Lists(ctx context.Context) ([]domain.ContactList, error) {
	var lists []domain.ContactList
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&lists).Error
	if err != nil {
		return nil, fmt.Errorf("query contact lists: %w", err)
	}
	return lists, nil
}

// GetList retrieves one list with its contacts.
func (r *Repository) GetList(ctx context.Context, id uuid.UUID) (*domain.ContactList, error) {
	var list domain.ContactList
	err := r.db.WithContext(ctx).
		Preload("Contacts").
		First(&list, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrContactListNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query contact list: %w", err)
	}
	return &list, nil
}

// DeleteList removes a list; its contacts go with it via the FK constraint.
func (r *Repository) DeleteList(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&domain.ContactList{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete contact list: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrContactListNotFound
	}
	return nil
}

// AdminNumber returns the stored admin number, empty when unset.
func (r *Repository) AdminNumber(ctx context.Context) (string, error) {
	var setting domain.AdminSetting
	err := r.db.WithContext(ctx).First(&setting, "id = ?", adminSettingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query admin number: %w", err)
	}
	return setting.Number, nil
}

// SetAdminNumber upserts the single admin-number row.
func (r *Repository) SetAdminNumber(ctx context.Context, number string) error {
	setting := domain.AdminSetting{ID: adminSettingID, Number: number}
	if err := r.db.WithContext(ctx).Save(&setting).Error; err != nil {
		return fmt.Errorf("save admin number: %w", err)
	}
	return nil
}
