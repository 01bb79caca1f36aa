package api

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opticlinic/clinic-flow/internal/appointment"
	"github.com/opticlinic/clinic-flow/internal/audit"
	"github.com/opticlinic/clinic-flow/internal/auth"
	"github.com/opticlinic/clinic-flow/internal/billing"
	"github.com/opticlinic/clinic-flow/internal/eyetest"
	"github.com/opticlinic/clinic-flow/internal/facerec"
	"github.com/opticlinic/clinic-flow/internal/journey"
	"github.com/opticlinic/clinic-flow/internal/notification"
	"github.com/opticlinic/clinic-flow/internal/patient"
	"github.com/opticlinic/clinic-flow/internal/prescription"
	"github.com/opticlinic/clinic-flow/internal/staff"
)

type Handler struct {
	authService         auth.Service
	patientService      patient.Service
	journeyService      journey.Service
	billingService      billing.Service
	eyeTestService      eyetest.Service
	appointmentService  appointment.Service
	prescriptionService prescription.Service
	staffService        staff.Service
	faceService         facerec.Service
	notificationService notification.Service
	auditService        audit.Service
}

func NewHandler(
	authService auth.Service,
	patientService patient.Service,
	journeyService journey.Service,
	billingService billing.Service,
	eyeTestService eyetest.Service,
	appointmentService appointment.Service,
	prescriptionService prescription.Service,
	staffService staff.Service,
	faceService facerec.Service,
	notificationService notification.Service,
	auditService audit.Service,
) *Handler {
	return &Handler{
		authService:         authService,
		patientService:      patientService,
		journeyService:      journeyService,
		billingService:      billingService,
		eyeTestService:      eyeTestService,
		appointmentService:  appointmentService,
		prescriptionService: prescriptionService,
		staffService:        staffService,
		faceService:         faceService,
		notificationService: notificationService,
		auditService:        auditService,
	}
}

// Authentication handlers

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	response, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) RefreshToken(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	token, err := h.authService.RefreshToken(c.Request.Context(), strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) GetProfile(c *gin.Context) {
	user, err := h.authService.GetUserByID(c.Request.Context(), auth.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}

type RegisterUserRequest struct {
	Username string   `json:"username" binding:"required"`
	Email    string   `json:"email" binding:"required,email"`
	Password string   `json:"password" binding:"required,min=8"`
	Roles    []string `json:"roles" binding:"required"`
	StaffID  string   `json:"staff_id"`
}

func (h *Handler) RegisterUser(c *gin.Context) {
	var req RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req.Username, req.Email, req.Password, req.Roles, req.StaffID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, user)
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.authService.ChangePassword(c.Request.Context(), auth.GetUserID(c), req.OldPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "password changed"})
}

// Patient handlers

func (h *Handler) RegisterPatient(c *gin.Context) {
	var p patient.Patient
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p.CreatedBy = auth.GetUserID(c)
	if err := h.patientService.Create(c.Request.Context(), &p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, &p)
}

func (h *Handler) GetPatient(c *gin.Context) {
	p, err := h.patientService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, patient.ErrPatientNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "patient not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	var p patient.Patient
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p.ID = c.Param("id")
	p.LastModifiedBy = auth.GetUserID(c)
	if err := h.patientService.Update(c.Request.Context(), &p); err != nil {
		if errors.Is(err, patient.ErrPatientNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "patient not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, &p)
}

func (h *Handler) DeletePatient(c *gin.Context) {
	if err := h.patientService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, patient.ErrPatientNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "patient not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "patient deleted"})
}

func (h *Handler) ListPatients(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	patients, err := h.patientService.List(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"patients": patients, "count": len(patients)})
}

// Journey handlers

func (h *Handler) CheckIn(c *gin.Context) {
	patientID := c.Param("id")

	p, err := h.patientService.Get(c.Request.Context(), patientID)
	if err != nil {
		if errors.Is(err, patient.ErrPatientNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "patient not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	j, err := h.journeyService.CheckIn(c.Request.Context(), patientID, p.Profile())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, j)
}

func (h *Handler) GetJourney(c *gin.Context) {
	j, err := h.journeyService.GetJourney(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, journey.ErrJourneyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, j)
}

type UpdateStepRequest struct {
	Step   journey.Step   `json:"step" binding:"required"`
	Status journey.Status `json:"status" binding:"required"`
	Notes  string         `json:"notes"`
}

func (h *Handler) UpdateJourneyStep(c *gin.Context) {
	var req UpdateStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	j, err := h.journeyService.UpdateStep(c.Request.Context(), c.Param("id"), req.Step, req.Status, auth.GetUserID(c), req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, journey.ErrJourneyNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, journey.ErrStepNotFound):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, j)
}

func (h *Handler) GetReceipt(c *gin.Context) {
	receipt, err := h.journeyService.GenerateReceipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, journey.ErrJourneyNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, journey.ErrJourneyNotCompleted):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, receipt)
}

func (h *Handler) GetActiveJourneys(c *gin.Context) {
	journeys, err := h.journeyService.GetAllActiveJourneys(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"journeys": journeys, "count": len(journeys)})
}

// Billing handlers

type PaymentRequest struct {
	PatientID string   `json:"patient_id" binding:"required"`
	Amount    int      `json:"amount" binding:"required"`
	Items     []string `json:"items"`
}

func (h *Handler) ProcessPayment(c *gin.Context) {
	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.billingService.ProcessPayment(c.Request.Context(), req.PatientID, req.Amount, auth.GetUserID(c), req.Items)
	if err != nil {
		if errors.Is(err, billing.ErrInvalidAmount) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) GetInvoice(c *gin.Context) {
	invoice, err := h.billingService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, billing.ErrInvoiceNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, invoice)
}

func (h *Handler) ListInvoices(c *gin.Context) {
	invoices, err := h.billingService.ListByPatient(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"invoices": invoices, "count": len(invoices)})
}

// Eye test handlers

func (h *Handler) RecordEyeTest(c *gin.Context) {
	var test eyetest.EyeTest
	if err := c.ShouldBindJSON(&test); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	test.AnalystID = auth.GetUserID(c)
	recorded, err := h.eyeTestService.Record(c.Request.Context(), &test)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, recorded)
}

func (h *Handler) GetEyeTest(c *gin.Context) {
	test, err := h.eyeTestService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, eyetest.ErrEyeTestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, test)
}

func (h *Handler) ListEyeTests(c *gin.Context) {
	tests, err := h.eyeTestService.ListByPatient(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"eye_tests": tests, "count": len(tests)})
}

// Appointment handlers

func (h *Handler) ScheduleAppointment(c *gin.Context) {
	var appt appointment.Appointment
	if err := c.ShouldBindJSON(&appt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	scheduled, err := h.appointmentService.Schedule(c.Request.Context(), &appt)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, scheduled)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	appt, err := h.appointmentService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, appointment.ErrAppointmentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, appt)
}

type CompleteAppointmentRequest struct {
	Diagnosis string `json:"diagnosis"`
	Notes     string `json:"notes"`
}

func (h *Handler) CompleteAppointment(c *gin.Context) {
	var req CompleteAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	appt, err := h.appointmentService.Complete(c.Request.Context(), c.Param("id"), req.Diagnosis, req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, appointment.ErrAppointmentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, appointment.ErrAlreadyCompleted):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, appt)
}

func (h *Handler) ListAppointments(c *gin.Context) {
	appts, err := h.appointmentService.ListByPatient(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"appointments": appts, "count": len(appts)})
}

// Prescription handlers

func (h *Handler) IssuePrescription(c *gin.Context) {
	var p prescription.Prescription
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p.DoctorID = auth.GetUserID(c)
	issued, err := h.prescriptionService.Issue(c.Request.Context(), &p)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, issued)
}

func (h *Handler) GetPrescription(c *gin.Context) {
	p, err := h.prescriptionService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, prescription.ErrPrescriptionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *Handler) DispensePrescription(c *gin.Context) {
	p, err := h.prescriptionService.Dispense(c.Request.Context(), c.Param("id"), auth.GetUserID(c))
	if err != nil {
		switch {
		case errors.Is(err, prescription.ErrPrescriptionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, prescription.ErrAlreadyDispensed):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPrescriptions(c *gin.Context) {
	prescriptions, err := h.prescriptionService.ListByPatient(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"prescriptions": prescriptions, "count": len(prescriptions)})
}

// Staff handlers

func (h *Handler) RegisterStaff(c *gin.Context) {
	var member staff.Member
	if err := c.ShouldBindJSON(&member); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.staffService.Register(c.Request.Context(), &member); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, &member)
}

func (h *Handler) GetStaff(c *gin.Context) {
	member, err := h.staffService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, staff.ErrStaffNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, member)
}

func (h *Handler) UpdateStaff(c *gin.Context) {
	var member staff.Member
	if err := c.ShouldBindJSON(&member); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	member.ID = c.Param("id")
	if err := h.staffService.Update(c.Request.Context(), &member); err != nil {
		if errors.Is(err, staff.ErrStaffNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, &member)
}

func (h *Handler) DeactivateStaff(c *gin.Context) {
	if err := h.staffService.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, staff.ErrStaffNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "staff member deactivated"})
}

func (h *Handler) ListStaff(c *gin.Context) {
	members, err := h.staffService.ListByRole(c.Request.Context(), staff.Role(c.Query("role")))
	if err != nil {
		if errors.Is(err, staff.ErrInvalidRole) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"staff": members, "count": len(members)})
}

// Face recognition handlers

type FaceImageRequest struct {
	Image string `json:"image" binding:"required"`
}

func (h *Handler) EnrollFace(c *gin.Context) {
	var req FaceImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image must be base64 encoded"})
		return
	}

	record, err := h.faceService.Enroll(c.Request.Context(), c.Param("id"), image)
	if err != nil {
		switch {
		case errors.Is(err, facerec.ErrEmptyImage):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, facerec.ErrAlreadyEnrolled):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, record)
}

func (h *Handler) RecognizeFace(c *gin.Context) {
	var req FaceImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image must be base64 encoded"})
		return
	}

	match, err := h.faceService.Recognize(c.Request.Context(), image)
	if err != nil {
		if errors.Is(err, facerec.ErrNoMatch) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, match)
}

func (h *Handler) UnenrollFace(c *gin.Context) {
	if err := h.faceService.Unenroll(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, facerec.ErrFaceRecNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "face record removed"})
}

// Notification handlers

func (h *Handler) ListNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	notifications, err := h.notificationService.ListByUser(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications, "count": len(notifications)})
}

func (h *Handler) MarkNotificationRead(c *gin.Context) {
	if err := h.notificationService.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, notification.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "notification marked read"})
}

// Audit handlers

func (h *Handler) GetAuditLogs(c *gin.Context) {
	filters := make(map[string]interface{})
	if userID := c.Query("user_id"); userID != "" {
		filters["user_id"] = userID
	}
	if resource := c.Query("resource"); resource != "" {
		filters["resource"] = resource
	}
	if eventType := c.Query("event_type"); eventType != "" {
		filters["event_type"] = eventType
	}

	from, _ := strconv.Atoi(c.DefaultQuery("from", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "50"))

	events, err := h.auditService.QueryEvents(c.Request.Context(), filters, from, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

// Health check

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "time": time.Now().UTC()})
}
