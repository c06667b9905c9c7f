package models

import (
	"strings"
	"time"
)

// Customer is a billed party.
type Customer struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`

	FirstName   string `gorm:"size:100;not null" json:"first_name"`
	LastName    string `gorm:"size:100;not null" json:"last_name"`
	Address     string `gorm:"size:500" json:"address"`
	ZipCode     string `gorm:"size:20" json:"zip_code"`
	City        string `gorm:"size:100" json:"city"`
	Country     string `gorm:"size:100" json:"country"`
	CountryCode string `gorm:"size:2" json:"country_code"`
}

// Name returns "First Last".
func (c *Customer) Name() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
