package ports

import (
	"context"

	"chatblast/internal/domain"

	"github.com/google/uuid"
)

// ContactRepository defines persistence for saved contact lists and the
// administrative recipient number.
type ContactRepository interface {
	// SaveList persists a contact list with its contacts.
	SaveList(ctx context.Context, list domain.ContactList) error

	// Lists returns all saved lists without their contacts, newest first.
	Lists(ctx context.Context) ([]domain.ContactList, error)

	// GetList retrieves one list with its contacts.
	GetList(ctx context.Context, id uuid.UUID) (*domain.ContactList, error)

	// DeleteList removes a list and its contacts.
	DeleteList(ctx context.Context, id uuid.UUID) error

	// AdminNumber returns the stored admin number, empty when unset.
	AdminNumber(ctx context.Context) (string, error)

	// SetAdminNumber stores the admin number.
	SetAdminNumber(ctx context.Context, number string) error
}
