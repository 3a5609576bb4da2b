package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medico-api/internal/apperr"
	"github.com/harentsoaR/medico-api/internal/middleware"
	"github.com/harentsoaR/medico-api/internal/models"
	"github.com/harentsoaR/medico-api/internal/response"
	"github.com/harentsoaR/medico-api/internal/store"
)

const dateLayout = "2006-01-02"

// CreateAppointment books an appointment for the logged-in user. Patient
// details default to the user's profile; naming a doctorId fills the doctor
// and organization from that doctor.
func (h *Handler) CreateAppointment(c *gin.Context) {
	user, ok := middleware.Actor[*models.User](c, middleware.KeyUser)
	if !ok {
		response.Error(c, apperr.Unauthenticated("No token provided"))
		return
	}

	var apt models.Appointment
	if err := c.ShouldBindJSON(&apt); err != nil {
		response.Error(c, apperr.ValidationWrap("Invalid request body", err))
		return
	}
	apt.ID = primitive.NilObjectID
	apt.Status = models.StatusPending
	apt.CreatedAt, apt.UpdatedAt = time.Time{}, time.Time{}

	patientID := user.ID
	apt.PatientID = &patientID
	if apt.Email == "" {
		apt.Email = user.Email
	}
	if apt.FirstName == "" {
		apt.FirstName = user.FirstName
	}
	if apt.LastName == "" {
		apt.LastName = user.LastName
	}
	if apt.Phone == "" {
		apt.Phone = user.Phone
	}
	if apt.DateOfBirth == "" {
		apt.DateOfBirth = user.DateOfBirth
	}
	if apt.Image == "" {
		apt.Image = user.Image
	}

	ctx := c.Request.Context()
	if apt.DoctorID != nil {
		doctor, err := h.repos.Doctors.FindByID(ctx, *apt.DoctorID)
		if err != nil {
			response.Error(c, err)
			return
		}
		apt.DoctorName, apt.DoctorEmail = doctor.Name, doctor.Email
		apt.OrganizationType = doctor.OrganizationType
		apt.OrganizationName, apt.OrganizationEmail = doctor.OrganizationName, doctor.OrganizationEmail
		if apt.Fees == 0 {
			apt.Fees = doctor.ConsultationFees
		}
	}

	if err := h.repos.Appointments.Create(ctx, &apt); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusCreated, "Appointment created successfully", apt)
}

// parseDateRange reads ?from=&to= as whole days; to is inclusive.
func parseDateRange(c *gin.Context, f *store.AppointmentFilter) error {
	if raw := c.Query("from"); raw != "" {
		from, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			return apperr.Validation("from must be a date in YYYY-MM-DD format")
		}
		f.From = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.ParseInLocation(dateLayout, raw, time.Local)
		if err != nil {
			return apperr.Validation("to must be a date in YYYY-MM-DD format")
		}
		to = to.AddDate(0, 0, 1)
		f.To = &to
	}
	return nil
}

// ListAppointments lists the calling organization's appointments, filtered
// by ?status= and the ?from=/&to= date range.
func (h *Handler) ListAppointments(c *gin.Context) {
	org, err := currentOrganization(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	filter := store.AppointmentFilter{OrganizationEmail: org.GetEmail()}
	if status := models.AppointmentStatus(c.Query("status")); status != "" {
		if !status.Valid() {
			response.Error(c, apperr.Validation("Status must be one of Pending, Confirmed, Cancelled, Completed"))
			return
		}
		filter.Status = status
	}
	if err := parseDateRange(c, &filter); err != nil {
		response.Error(c, err)
		return
	}

	appointments, err := h.repos.Appointments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	if appointments == nil {
		appointments = []models.Appointment{}
	}
	response.OK(c, http.StatusOK, appointments)
}

// isParticipant reports whether actor is the patient, organization or doctor
// of apt.
func isParticipant(actor models.Actor, role models.Role, apt *models.Appointment) bool {
	email := actor.GetEmail()
	switch role {
	case models.RoleUser:
		return (apt.PatientID != nil && *apt.PatientID == actor.GetID()) || email == apt.Email
	case models.RoleHospital, models.RoleClinic:
		return email == apt.OrganizationEmail && models.OrganizationTypeOf(actor) == apt.OrganizationType
	case models.RoleDoctor:
		return (apt.DoctorID != nil && *apt.DoctorID == actor.GetID()) || email == apt.DoctorEmail
	case models.RoleConsultant:
		return email == apt.DoctorEmail
	}
	return false
}

// participantAppointment loads the :id appointment and checks the resolved
// caller takes part in it.
func (h *Handler) participantAppointment(c *gin.Context) (*models.Appointment, error) {
	actor, role, ok := middleware.ResolvedActor(c)
	if !ok {
		return nil, apperr.Unauthenticated("No token provided")
	}
	id, err := objectIDParam(c, "id", "appointment")
	if err != nil {
		return nil, err
	}
	apt, err := h.repos.Appointments.FindByID(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if !isParticipant(actor, role, apt) {
		return nil, apperr.Forbidden("Not allowed to access this appointment")
	}
	return apt, nil
}

func (h *Handler) GetAppointment(c *gin.Context) {
	apt, err := h.participantAppointment(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, apt)
}

// UpdateAppointmentStatus changes the status and texts the patient when it
// actually changed.
func (h *Handler) UpdateAppointmentStatus(c *gin.Context) {
	apt, err := h.participantAppointment(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req struct {
		Status models.AppointmentStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperr.ValidationWrap("Invalid request body", err))
		return
	}
	if !req.Status.Valid() {
		response.Error(c, apperr.Validation("Status must be one of Pending, Confirmed, Cancelled, Completed"))
		return
	}

	updated, err := h.repos.Appointments.UpdateStatus(c.Request.Context(), apt.ID, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	if updated.Status != apt.Status && h.notifier != nil {
		h.notifier.NotifyStatusChange(updated)
	}
	response.Message(c, http.StatusOK, "Appointment updated successfully", updated)
}

// DeleteAppointment removes one of the calling organization's appointments.
func (h *Handler) DeleteAppointment(c *gin.Context) {
	org, err := currentOrganization(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := objectIDParam(c, "id", "appointment")
	if err != nil {
		response.Error(c, err)
		return
	}

	ctx := c.Request.Context()
	apt, err := h.repos.Appointments.FindByID(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if !isParticipant(org, org.Role(), apt) {
		response.Error(c, apperr.Forbidden("Not allowed to delete this appointment"))
		return
	}
	if err := h.repos.Appointments.Delete(ctx, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Appointment deleted successfully", nil)
}
