package journey

import "context"

// Store is the persistence port for journeys. Implementations must support
// the day-scoped lookup: "today" means check_in_time at or after the
// server-local midnight of the current day.
type Store interface {
	// FindForPatientToday returns today's journey for the patient, or
	// ErrJourneyNotFound. If more than one exists (a check-in race), the
	// most recently checked-in journey wins.
	FindForPatientToday(ctx context.Context, patientID string) (*Journey, error)

	// FindAllActiveToday returns today's journeys that are not yet
	// completed, most recently checked-in first.
	FindAllActiveToday(ctx context.Context) ([]*Journey, error)

	// Save persists the journey, inserting or replacing by ID.
	Save(ctx context.Context, j *Journey) error
}
