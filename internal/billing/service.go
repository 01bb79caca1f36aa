package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/opticlinic/clinic-flow/internal/audit"
	"github.com/opticlinic/clinic-flow/internal/journey"
)

var (
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrInvalidAmount   = errors.New("payment amount must be positive")
)

// Invoice is one paid visit charge, kept in the relational ledger.
type Invoice struct {
	ID            string    `json:"id"`
	PatientID     string    `json:"patient_id"`
	TransactionID string    `json:"transaction_id"`
	Amount        int       `json:"amount"`
	Items         []string  `json:"items"`
	Status        string    `json:"status"`
	StaffID       string    `json:"staff_id,omitempty"`
	PaidAt        time.Time `json:"paid_at"`
	CreatedAt     time.Time `json:"created_at"`
}

// PaymentResult is returned to the cashier UI after a successful payment.
type PaymentResult struct {
	Success       bool      `json:"success"`
	TransactionID string    `json:"transaction_id"`
	Amount        int       `json:"amount"`
	PaidAt        time.Time `json:"paid_at"`
}

type Service interface {
	ProcessPayment(ctx context.Context, patientID string, amount int, staffID string, items []string) (*PaymentResult, error)
	Get(ctx context.Context, id string) (*Invoice, error)
	ListByPatient(ctx context.Context, patientID string) ([]*Invoice, error)
	Initialize(ctx context.Context) error
}

type service struct {
	db       *pgxpool.Pool
	journeys journey.Service
	audit    audit.Service
	logger   *zap.Logger
}

func NewService(db *pgxpool.Pool, journeys journey.Service, auditSvc audit.Service, logger *zap.Logger) Service {
	return &service{
		db:       db,
		journeys: journeys,
		audit:    auditSvc,
		logger:   logger,
	}
}

// Initialize creates the invoices table.
func (s *service) Initialize(ctx context.Context) error {
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS invoices (
		id UUID PRIMARY KEY,
		patient_id VARCHAR(255) NOT NULL,
		transaction_id VARCHAR(255) UNIQUE NOT NULL,
		amount INTEGER NOT NULL,
		items TEXT[] NOT NULL DEFAULT '{}',
		status VARCHAR(50) NOT NULL,
		staff_id VARCHAR(255),
		paid_at TIMESTAMP WITH TIME ZONE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS invoices_patient_idx ON invoices(patient_id);
	`
	_, err := s.db.Exec(ctx, createTableSQL)
	return err
}

// ProcessPayment records a paid invoice and marks the journey's payment step
// complete. A patient can pay before checking in, so a missing journey is
// tolerated as a no-op.
func (s *service) ProcessPayment(ctx context.Context, patientID string, amount int, staffID string, items []string) (*PaymentResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	now := time.Now()
	invoice := &Invoice{
		ID:            uuid.New().String(),
		PatientID:     patientID,
		TransactionID: fmt.Sprintf("TXN-%d", now.UnixMilli()),
		Amount:        amount,
		Items:         items,
		Status:        "PAID",
		StaffID:       staffID,
		PaidAt:        now,
		CreatedAt:     now,
	}

	_, err := s.db.Exec(ctx, `
		INSERT INTO invoices (
			id, patient_id, transaction_id, amount, items, status, staff_id, paid_at, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		)
	`,
		invoice.ID, invoice.PatientID, invoice.TransactionID, invoice.Amount,
		pq.Array(invoice.Items), invoice.Status, invoice.StaffID, invoice.PaidAt, invoice.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert invoice: %w", err)
	}

	s.audit.LogEvent(ctx, &audit.Event{
		EventType:  audit.EventPayment,
		UserID:     staffID,
		Action:     "PAYMENT",
		Resource:   "invoice",
		ResourceID: invoice.ID,
		Status:     "success",
	})

	if _, err := s.journeys.MarkPaymentComplete(ctx, patientID, staffID); err != nil {
		if !errors.Is(err, journey.ErrJourneyNotFound) {
			return nil, err
		}
		s.logger.Info("journey update skipped, no active journey",
			zap.String("patient_id", patientID),
		)
	}

	return &PaymentResult{
		Success:       true,
		TransactionID: invoice.TransactionID,
		Amount:        invoice.Amount,
		PaidAt:        invoice.PaidAt,
	}, nil
}

func (s *service) Get(ctx context.Context, id string) (*Invoice, error) {
	var invoice Invoice
	err := s.db.QueryRow(ctx, `
		SELECT id, patient_id, transaction_id, amount, items, status, staff_id, paid_at, created_at
		FROM invoices
		WHERE id = $1
	`, id).Scan(
		&invoice.ID,
		&invoice.PatientID,
		&invoice.TransactionID,
		&invoice.Amount,
		pq.Array(&invoice.Items),
		&invoice.Status,
		&invoice.StaffID,
		&invoice.PaidAt,
		&invoice.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}

	return &invoice, nil
}

func (s *service) ListByPatient(ctx context.Context, patientID string) ([]*Invoice, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, patient_id, transaction_id, amount, items, status, staff_id, paid_at, created_at
		FROM invoices
		WHERE patient_id = $1
		ORDER BY paid_at DESC
	`, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*Invoice
	for rows.Next() {
		var invoice Invoice
		if err := rows.Scan(
			&invoice.ID,
			&invoice.PatientID,
			&invoice.TransactionID,
			&invoice.Amount,
			pq.Array(&invoice.Items),
			&invoice.Status,
			&invoice.StaffID,
			&invoice.PaidAt,
			&invoice.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invoice row: %w", err)
		}
		invoices = append(invoices, &invoice)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over invoice rows: %w", err)
	}

	return invoices, nil
}
