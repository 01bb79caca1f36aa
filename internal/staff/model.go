package staff

import (
	"time"
)

// Role is the station a staff member works. Journey step annotations
// (StepRecord.StaffID) reference members of this registry.
type Role string

const (
	RoleReceptionist Role = "RECEPTIONIST"
	RoleCashier      Role = "CASHIER"
	RoleAnalyst      Role = "ANALYST"
	RoleDoctor       Role = "DOCTOR"
	RolePharmacist   Role = "PHARMACIST"
	RoleAdmin        Role = "ADMIN"
)

var validRoles = map[Role]bool{
	RoleReceptionist: true,
	RoleCashier:      true,
	RoleAnalyst:      true,
	RoleDoctor:       true,
	RolePharmacist:   true,
	RoleAdmin:        true,
}

type Member struct {
	ID            string   `json:"id" bson:"_id"`
	FirstName     string   `json:"first_name" bson:"first_name"`
	LastName      string   `json:"last_name" bson:"last_name"`
	Role          Role     `json:"role" bson:"role"`
	LicenseNumber string   `json:"license_number,omitempty" bson:"license_number,omitempty"`
	Specialties   []string `json:"specialties,omitempty" bson:"specialties,omitempty"`
	Email         string   `json:"email" bson:"email"`
	Phone         string   `json:"phone" bson:"phone"`

	Status string `json:"status" bson:"status"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Validate performs basic validation of staff data
func (m *Member) Validate() error {
	if m.FirstName == "" || m.LastName == "" {
		return ErrInvalidStaffData
	}
	if !validRoles[m.Role] {
		return ErrInvalidRole
	}
	// Clinical roles must carry a license.
	if (m.Role == RoleDoctor || m.Role == RolePharmacist) && m.LicenseNumber == "" {
		return ErrMissingLicense
	}
	return nil
}

// IsActive reports whether the member may be assigned to journey steps.
func (m *Member) IsActive() bool {
	return m.Status == "ACTIVE"
}
