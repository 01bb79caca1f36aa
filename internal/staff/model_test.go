package staff

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRequiresName(t *testing.T) {
	m := &Member{Role: RoleReceptionist}
	assert.ErrorIs(t, m.Validate(), ErrInvalidStaffData)
}

func TestValidateRejectsUnknownRole(t *testing.T) {
	m := &Member{FirstName: "Ama", LastName: "Mensah", Role: Role("JANITOR")}
	assert.ErrorIs(t, m.Validate(), ErrInvalidRole)
}

func TestValidateClinicalRolesNeedLicense(t *testing.T) {
	for _, role := range []Role{RoleDoctor, RolePharmacist} {
		m := &Member{FirstName: "Kofi", LastName: "Asante", Role: role}
		assert.ErrorIs(t, m.Validate(), ErrMissingLicense, "role %s", role)

		m.LicenseNumber = "GH-2210"
		assert.NoError(t, m.Validate(), "role %s", role)
	}
}

func TestValidateNonClinicalRolesSkipLicense(t *testing.T) {
	m := &Member{FirstName: "Efua", LastName: "Owusu", Role: RoleCashier}
	assert.NoError(t, m.Validate())
}

func TestIsActive(t *testing.T) {
	m := &Member{Status: "ACTIVE"}
	assert.True(t, m.IsActive())

	m.Status = "INACTIVE"
	assert.False(t, m.IsActive())
}
