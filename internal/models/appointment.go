package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AppointmentStatus string

const (
	StatusPending   AppointmentStatus = "Pending"
	StatusConfirmed AppointmentStatus = "Confirmed"
	StatusCancelled AppointmentStatus = "Cancelled"
	StatusCompleted AppointmentStatus = "Completed"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

const (
	PatientNew      = "new"
	PatientRegular  = "regular"
	PatientFollowup = "followup"
)

// Appointment links a patient to a doctor of an organization. Organization and
// doctor are referenced by email and survive deletion of those actors.
type Appointment struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	PatientID         *primitive.ObjectID `bson:"patientId,omitempty" json:"patientId,omitempty"`
	FirstName         string              `bson:"firstName" json:"firstName" validate:"required"`
	LastName          string              `bson:"lastName" json:"lastName" validate:"required"`
	Email             string              `bson:"email" json:"email" validate:"required,email"`
	Phone             string              `bson:"phone" json:"phone" validate:"required"`
	DateOfBirth       string              `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Age               int                 `bson:"age" json:"age" validate:"gte=0,lte=150"`
	Image             string              `bson:"image,omitempty" json:"image,omitempty"`
	OrganizationType  OrganizationType    `bson:"organizationType" json:"organizationType" validate:"required,oneof=Hospital Clinic"`
	OrganizationName  string              `bson:"organizationName" json:"organizationName" validate:"required"`
	OrganizationEmail string              `bson:"organizationEmail" json:"organizationEmail" validate:"required,email"`
	DoctorID          *primitive.ObjectID `bson:"doctorId,omitempty" json:"doctorId,omitempty"`
	DoctorName        string              `bson:"doctorName" json:"doctorName" validate:"required"`
	DoctorEmail       string              `bson:"doctorEmail" json:"doctorEmail" validate:"required,email"`
	AppointmentDate   time.Time           `bson:"appointmentDate" json:"appointmentDate" validate:"required"`
	TimeSlot          string              `bson:"timeSlot,omitempty" json:"timeSlot,omitempty"`
	Fees              float64             `bson:"fees" json:"fees" validate:"gte=0"`
	PatientType       string              `bson:"patientType,omitempty" json:"patientType,omitempty" validate:"omitempty,oneof=new regular followup"`
	Status            AppointmentStatus   `bson:"status" json:"status"`
	CreatedAt         time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time           `bson:"updatedAt" json:"updatedAt"`
}

func (a *Appointment) Normalize() {
	a.Email = NormalizeEmail(a.Email)
	a.OrganizationEmail = NormalizeEmail(a.OrganizationEmail)
	a.DoctorEmail = NormalizeEmail(a.DoctorEmail)
	if a.Status == "" {
		a.Status = StatusPending
	}
}
