package patient

import (
	"encoding/json"
	"time"

	"github.com/opticlinic/clinic-flow/internal/journey"
)

type Address struct {
	Street     string `json:"street" bson:"street"`
	City       string `json:"city" bson:"city"`
	Region     string `json:"region" bson:"region"`
	PostalCode string `json:"postal_code" bson:"postal_code"`
	Country    string `json:"country" bson:"country"`
}

type Patient struct {
	ID          string    `json:"id" bson:"_id"`
	FirstName   string    `json:"first_name" bson:"first_name"`
	LastName    string    `json:"last_name" bson:"last_name"`
	DateOfBirth time.Time `json:"date_of_birth" bson:"date_of_birth"`
	Gender      string    `json:"gender" bson:"gender"`
	Address     Address   `json:"address" bson:"address"`

	// Email and Phone are stored encrypted at rest.
	Email string `json:"email" bson:"email"`
	Phone string `json:"phone" bson:"phone"`

	Status string `json:"status" bson:"status"`

	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" bson:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`

	CreatedBy      string `json:"created_by" bson:"created_by"`
	LastModifiedBy string `json:"last_modified_by" bson:"last_modified_by"`
}

// MarshalJSON renders the date of birth without a time component.
func (p *Patient) MarshalJSON() ([]byte, error) {
	type Alias Patient
	return json.Marshal(&struct {
		*Alias
		DateOfBirth string `json:"date_of_birth"`
	}{
		Alias:       (*Alias)(p),
		DateOfBirth: p.DateOfBirth.Format("2006-01-02"),
	})
}

// Profile returns the snapshot the journey engine captures at check-in.
func (p *Patient) Profile() journey.PatientProfile {
	return journey.PatientProfile{
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Email:     p.Email,
		Phone:     p.Phone,
	}
}

// Validate performs basic validation of patient data
func (p *Patient) Validate() error {
	if p.FirstName == "" || p.LastName == "" {
		return ErrInvalidPatientData
	}
	if p.DateOfBirth.IsZero() {
		return ErrInvalidDateOfBirth
	}
	return nil
}
