package journey

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCostsCatalog(t *testing.T) {
	costs := DefaultCosts()

	assert.Equal(t, 0, costs.Registration)
	assert.Equal(t, 100, costs.Payment)
	assert.Equal(t, 50, costs.Analyst)
	assert.Equal(t, 150, costs.Doctor)
	assert.Equal(t, 75, costs.Pharmacy)

	sum := costs.Registration + costs.Payment + costs.Analyst + costs.Doctor + costs.Pharmacy
	assert.Equal(t, sum, costs.Total)
	assert.Equal(t, 375, costs.Total)
}

// Exhaustively check that nextPendingStep always returns the lowest-ordered
// pending step, for every subset of completed steps.
func TestNextPendingStepAllSubsets(t *testing.T) {
	for mask := 0; mask < 1<<5; mask++ {
		now := time.Now()
		steps := newSteps(now)
		// Registration is always completed by construction; apply the
		// mask to the remaining four.
		for i := 1; i < 5; i++ {
			if mask&(1<<i) != 0 {
				steps[i].Status = StatusCompleted
				steps[i].CompletedAt = &now
			}
		}

		want := StepCompleted
		for i := 1; i < 5; i++ {
			if steps[i].Status == StatusPending {
				want = stepOrder[i]
				break
			}
		}

		assert.Equal(t, want, nextPendingStep(steps), "mask %05b", mask)
	}
}

func TestNewStepsLayout(t *testing.T) {
	now := time.Now()
	steps := newSteps(now)

	require.Len(t, steps, 5)
	for i, s := range stepOrder {
		assert.Equal(t, s, steps[i].Step)
	}
	assert.Equal(t, StatusCompleted, steps[0].Status)
	require.NotNil(t, steps[0].CompletedAt)
	assert.True(t, steps[0].CompletedAt.Equal(now))
}

func TestStartOfDay(t *testing.T) {
	loc, err := time.LoadLocation("Africa/Accra")
	require.NoError(t, err)

	at := time.Date(2024, 5, 17, 15, 42, 9, 120, loc)
	midnight := startOfDay(at)

	assert.Equal(t, 2024, midnight.Year())
	assert.Equal(t, time.May, midnight.Month())
	assert.Equal(t, 17, midnight.Day())
	assert.Equal(t, 0, midnight.Hour())
	assert.Equal(t, 0, midnight.Minute())
	assert.Equal(t, 0, midnight.Second())
	assert.Equal(t, loc, midnight.Location())
}

func TestStepDisplayName(t *testing.T) {
	assert.Equal(t, "Eye Test & Analysis", StepAnalyst.DisplayName())
	assert.Equal(t, "Pharmacy", StepPharmacy.DisplayName())
	assert.Equal(t, "mystery", Step("mystery").DisplayName())
}
