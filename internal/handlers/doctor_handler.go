package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medico-api/internal/apperr"
	"github.com/harentsoaR/medico-api/internal/middleware"
	"github.com/harentsoaR/medico-api/internal/models"
	"github.com/harentsoaR/medico-api/internal/response"
)

// freezeDoctor keeps a doctor's organization link and login out of reach of
// profile edits.
func freezeDoctor(d *models.Doctor) func(*models.Doctor) {
	orgID, orgType, orgName, orgEmail := d.OrganizationID, d.OrganizationType, d.OrganizationName, d.OrganizationEmail
	userID, status := d.UserID, d.Status
	return func(d *models.Doctor) {
		d.OrganizationID, d.OrganizationType = orgID, orgType
		d.OrganizationName, d.OrganizationEmail = orgName, orgEmail
		d.UserID, d.Status = userID, status
	}
}

func currentOrganization(c *gin.Context) (models.Actor, error) {
	org, ok := middleware.Organization(c)
	if !ok {
		return nil, apperr.Unauthenticated("Not authorized as hospital or clinic")
	}
	return org, nil
}

// AddDoctor registers a doctor under the calling organization. Address and
// location default to the organization's own.
func (h *Handler) AddDoctor(c *gin.Context) {
	org, err := currentOrganization(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	doctor := &models.Doctor{}
	var creds credentials
	if err := bindBody(c, doctor, &creds); err != nil {
		response.Error(c, err)
		return
	}
	if creds.Password != creds.ConfirmPassword {
		response.Error(c, apperr.Validation("Passwords do not match"))
		return
	}

	resetServerFields(&doctor.Base)
	doctor.OrganizationID = org.GetID()
	doctor.OrganizationType = models.OrganizationTypeOf(org)
	doctor.OrganizationName = models.OrganizationName(org)
	doctor.OrganizationEmail = org.GetEmail()
	if p := models.ProfileOf(org); p != nil {
		if doctor.State == "" {
			doctor.State = p.State
		}
		if doctor.City == "" {
			doctor.City = p.City
		}
		if doctor.Address == "" {
			doctor.Address = p.Address
		}
	}
	if doctor.Latitude == nil && doctor.Longitude == nil {
		doctor.Latitude, doctor.Longitude = org.Coordinates()
	}

	if err := h.attachImage(c, &doctor.Base, models.RoleDoctor); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.repos.Doctors.Create(c.Request.Context(), doctor, creds.Password); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusCreated, "Doctor added successfully", doctor)
}

// ListOwnDoctors lists the doctors of the calling organization.
func (h *Handler) ListOwnDoctors(c *gin.Context) {
	org, err := currentOrganization(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.listDoctors(c, org.GetID(), models.OrganizationTypeOf(org))
}

// ListOrganizationDoctors lists the doctors of any hospital or clinic by id.
func (h *Handler) ListOrganizationDoctors(c *gin.Context) {
	id, err := objectIDParam(c, "organizationId", "organization")
	if err != nil {
		response.Error(c, err)
		return
	}

	ctx := c.Request.Context()
	orgType := models.OrganizationHospital
	if _, err := h.repos.Hospitals.FindByID(ctx, id); err != nil {
		if !apperr.Is(err, apperr.TypeNotFound) {
			response.Error(c, err)
			return
		}
		if _, err := h.repos.Clinics.FindByID(ctx, id); err != nil {
			if apperr.Is(err, apperr.TypeNotFound) {
				err = apperr.NotFound("Organization not found")
			}
			response.Error(c, err)
			return
		}
		orgType = models.OrganizationClinic
	}
	h.listDoctors(c, id, orgType)
}

func (h *Handler) listDoctors(c *gin.Context, orgID primitive.ObjectID, orgType models.OrganizationType) {
	doctors, err := h.repos.Doctors.ListByOrganization(c.Request.Context(), orgID, orgType)
	if err != nil {
		response.Error(c, err)
		return
	}
	if doctors == nil {
		doctors = []*models.Doctor{}
	}
	response.OK(c, http.StatusOK, doctors)
}

// DeleteDoctor removes a doctor belonging to the calling organization.
// Appointments and reviews naming the doctor are left in place.
func (h *Handler) DeleteDoctor(c *gin.Context) {
	org, err := currentOrganization(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	id, err := objectIDParam(c, "id", "doctor")
	if err != nil {
		response.Error(c, err)
		return
	}

	ctx := c.Request.Context()
	doctor, err := h.repos.Doctors.FindByID(ctx, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	if doctor.OrganizationID != org.GetID() || doctor.OrganizationType != models.OrganizationTypeOf(org) {
		response.Error(c, apperr.Forbidden("Not allowed to delete this doctor"))
		return
	}
	if err := h.repos.Doctors.Delete(ctx, id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Doctor deleted successfully", nil)
}
