package patient

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	dob := time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)

	p := &Patient{FirstName: "Akosua", LastName: "Boateng", DateOfBirth: dob}
	assert.NoError(t, p.Validate())

	assert.ErrorIs(t, (&Patient{LastName: "Boateng", DateOfBirth: dob}).Validate(), ErrInvalidPatientData)
	assert.ErrorIs(t, (&Patient{FirstName: "Akosua", LastName: "Boateng"}).Validate(), ErrInvalidDateOfBirth)
}

func TestMarshalJSONDateOnlyBirthDate(t *testing.T) {
	p := &Patient{
		FirstName:   "Akosua",
		LastName:    "Boateng",
		DateOfBirth: time.Date(1990, 4, 12, 15, 30, 0, 0, time.UTC),
	}

	raw, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "1990-04-12", decoded["date_of_birth"])
}

func TestProfileSnapshot(t *testing.T) {
	p := &Patient{
		FirstName: "Akosua",
		LastName:  "Boateng",
		Email:     "akosua@example.com",
		Phone:     "+233201234567",
	}

	profile := p.Profile()
	assert.Equal(t, "Akosua", profile.FirstName)
	assert.Equal(t, "Boateng", profile.LastName)
	assert.Equal(t, "akosua@example.com", profile.Email)
	assert.Equal(t, "+233201234567", profile.Phone)
}
