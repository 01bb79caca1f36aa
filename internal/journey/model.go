package journey

import (
	"time"
)

// Step identifies one station of the patient visit. The set is closed:
// journeys are always created with exactly these five steps, in this order.
type Step string

const (
	StepRegistration Step = "registration"
	StepPayment      Step = "payment"
	StepAnalyst      Step = "analyst"
	StepDoctor       Step = "doctor"
	StepPharmacy     Step = "pharmacy"

	// StepCompleted is a terminal marker used for CurrentStep once every
	// step is done. It never appears as a StepRecord.
	StepCompleted Step = "completed"
)

// stepOrder fixes both creation order and the scan order used to recompute
// CurrentStep after a mutation.
var stepOrder = []Step{
	StepRegistration,
	StepPayment,
	StepAnalyst,
	StepDoctor,
	StepPharmacy,
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// StepRecord is one station's completion state, embedded in a Journey.
type StepRecord struct {
	Step        Step       `json:"step" bson:"step"`
	Status      Status     `json:"status" bson:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	StaffID     string     `json:"staff_id,omitempty" bson:"staff_id,omitempty"`
	Notes       string     `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Costs is the fixed price catalog assigned at check-in. It is never
// recomputed from the steps actually exercised.
type Costs struct {
	Registration int `json:"registration" bson:"registration"`
	Payment      int `json:"payment" bson:"payment"`
	Analyst      int `json:"analyst" bson:"analyst"`
	Doctor       int `json:"doctor" bson:"doctor"`
	Pharmacy     int `json:"pharmacy" bson:"pharmacy"`
	Total        int `json:"total" bson:"total"`
}

// DefaultCosts returns the static price catalog for a new journey.
func DefaultCosts() Costs {
	return Costs{
		Registration: 0,
		Payment:      100,
		Analyst:      50,
		Doctor:       150,
		Pharmacy:     75,
		Total:        375,
	}
}

// Journey tracks one patient's visit through the clinic for one calendar day.
type Journey struct {
	ID        string `json:"id" bson:"_id"`
	PatientID string `json:"patient_id" bson:"patient_id"`

	// Snapshot of the patient profile at check-in time; not re-synced if
	// the profile changes later.
	PatientName  string `json:"patient_name" bson:"patient_name"`
	PatientEmail string `json:"patient_email,omitempty" bson:"patient_email,omitempty"`
	PatientPhone string `json:"patient_phone,omitempty" bson:"patient_phone,omitempty"`

	CheckInTime  time.Time  `json:"check_in_time" bson:"check_in_time"`
	CheckOutTime *time.Time `json:"check_out_time,omitempty" bson:"check_out_time,omitempty"`

	Steps         []StepRecord `json:"steps" bson:"steps"`
	CurrentStep   Step         `json:"current_step" bson:"current_step"`
	OverallStatus Status       `json:"overall_status" bson:"overall_status"`

	Costs            Costs `json:"costs" bson:"costs"`
	ReceiptGenerated bool  `json:"receipt_generated" bson:"receipt_generated"`

	AppointmentID  string `json:"appointment_id,omitempty" bson:"appointment_id,omitempty"`
	PrescriptionID string `json:"prescription_id,omitempty" bson:"prescription_id,omitempty"`
}

// PatientProfile is the snapshot captured on check-in.
type PatientProfile struct {
	FirstName string `json:"first_name" bson:"first_name"`
	LastName  string `json:"last_name" bson:"last_name"`
	Email     string `json:"email" bson:"email"`
	Phone     string `json:"phone" bson:"phone"`
}

// ReceiptStep is one line of a receipt's step summary.
type ReceiptStep struct {
	Step        Step       `json:"step"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Receipt is a read-only projection of a completed journey.
type Receipt struct {
	PatientID    string        `json:"patient_id"`
	PatientName  string        `json:"patient_name"`
	CheckInTime  time.Time     `json:"check_in_time"`
	CheckOutTime *time.Time    `json:"check_out_time"`
	Costs        Costs         `json:"costs"`
	Steps        []ReceiptStep `json:"steps"`
	TotalCost    int           `json:"total_cost"`
	ReceiptDate  time.Time     `json:"receipt_date"`
}

// stepNames maps step tags to the names used in notification titles.
var stepNames = map[Step]string{
	StepRegistration: "Registration",
	StepPayment:      "Payment",
	StepAnalyst:      "Eye Test & Analysis",
	StepDoctor:       "Doctor Consultation",
	StepPharmacy:     "Pharmacy",
	StepCompleted:    "Completed",
}

// nextStepMessages tells the patient where to go after completing a step.
var nextStepMessages = map[Step]string{
	StepRegistration: "Please proceed to the Finance counter for payment.",
	StepPayment:      "Payment completed! Please proceed to the Analyst station for eye testing.",
	StepAnalyst:      "Eye test completed! Please proceed to see the Doctor.",
	StepDoctor:       "Consultation completed! Please proceed to the Pharmacy.",
	StepPharmacy:     "All steps completed! Please collect your receipt.",
	StepCompleted:    "",
}

// DisplayName returns the human readable name of a step.
func (s Step) DisplayName() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return string(s)
}

// findStep returns the index of the step record with the given tag, or -1.
func (j *Journey) findStep(step Step) int {
	for i := range j.Steps {
		if j.Steps[i].Step == step {
			return i
		}
	}
	return -1
}

// nextPendingStep scans the steps in fixed creation order and returns the
// first one still pending, or StepCompleted when none remain. Scanning
// instead of incrementing a pointer tolerates out-of-order completion: the
// pointer always reflects the earliest outstanding gap.
func nextPendingStep(steps []StepRecord) Step {
	for _, s := range stepOrder {
		for i := range steps {
			if steps[i].Step == s && steps[i].Status == StatusPending {
				return s
			}
		}
	}
	return StepCompleted
}

// newSteps builds the fixed five step records for a fresh journey.
// Registration is pre-completed: walking up to the desk is the registration.
func newSteps(now time.Time) []StepRecord {
	return []StepRecord{
		{Step: StepRegistration, Status: StatusCompleted, CompletedAt: &now},
		{Step: StepPayment, Status: StatusPending},
		{Step: StepAnalyst, Status: StatusPending},
		{Step: StepDoctor, Status: StatusPending},
		{Step: StepPharmacy, Status: StatusPending},
	}
}

// startOfDay returns local midnight for t. Journeys are scoped to the
// server-local calendar day.
func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
