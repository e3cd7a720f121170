package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is the on-platform record of a ticketed event.
type Event struct {
	ID               uuid.UUID    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	Name             string       `gorm:"column:name;not null" json:"name"`
	Description      *string      `gorm:"column:description" json:"description,omitempty"`
	Venue            string       `gorm:"column:venue;not null" json:"venue"`
	OrganizerAddress string       `gorm:"column:organizer_address;not null;index" json:"organizerAddress"`
	StartsAt         time.Time    `gorm:"column:starts_at;not null" json:"startsAt"`
	EndsAt           time.Time    `gorm:"column:ends_at;not null" json:"endsAt"`
	TicketTypes      []TicketType `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"ticketTypes,omitempty"`
	CreatedAt        time.Time    `gorm:"column:created_at;autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time    `gorm:"column:updated_at;autoUpdateTime" json:"updatedAt"`
}
