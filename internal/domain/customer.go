package domain

import (
	"time"

	"github.com/google/uuid"
)

type Address struct {
	ID         uuid.UUID `json:"id" db:"id"`
	Street     string    `json:"street" db:"street"`
	Number     string    `json:"number" db:"number"`
	Complement string    `json:"complement" db:"complement"`
	District   string    `json:"district" db:"district"`
	City       string    `json:"city" db:"city"`
	State      string    `json:"state" db:"state"`
	ZipCode    string    `json:"zip_code" db:"zip_code"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// CustomerProfile holds the subscriber's personal data. The address it points
// to is owned exclusively by this profile.
type CustomerProfile struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	Phone       *string    `json:"phone,omitempty" db:"phone"`
	BirthDate   *time.Time `json:"birth_date,omitempty" db:"birth_date"`
	Preferences *string    `json:"preferences,omitempty" db:"preferences"`
	AddressID   *uuid.UUID `json:"address_id,omitempty" db:"address_id"`
	Address     *Address   `json:"address,omitempty" db:"-"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}
