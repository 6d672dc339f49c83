package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ContactList is a saved, named recipient list.
type ContactList struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"not null"`
	ContactCount int       `gorm:"not null"`
	Contacts     []Contact `gorm:"foreignKey:ListID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time
}

// Contact is a single saved entry within a contact list.
type Contact struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	ListID uuid.UUID `gorm:"type:uuid;index;not null"`
	Name   string
	Number string `gorm:"not null"`
}

// AdminSetting stores the administrative recipient number. Single row.
type AdminSetting struct {
	ID     uint `gorm:"primaryKey"`
	Number string
}

// NewContactList builds a list from raw entries, dropping duplicate numbers
// (first occurrence wins) and filling in placeholder names.
func NewContactList(name string, contacts []Contact) ContactList {
	listID := uuid.New()
	seen := make(map[string]struct{}, len(contacts))
	unique := make([]Contact, 0, len(contacts))
	for _, c := range contacts {
		if _, dup := seen[c.Number]; dup {
			continue
		}
		seen[c.Number] = struct{}{}
		if c.Name == "" {
			c.Name = fmt.Sprintf("Contact_%d", len(unique)+1)
		}
		c.ID = uuid.New()
		c.ListID = listID
		unique = append(unique, c)
	}

	return ContactList{
		ID:           listID,
		Name:         name,
		ContactCount: len(unique),
		Contacts:     unique,
		CreatedAt:    time.Now().UTC(),
	}
}
