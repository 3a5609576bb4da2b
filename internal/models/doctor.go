package models

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	DoctorActive    = "active"
	DoctorInactive  = "inactive"
	DoctorPending   = "pending"
	DoctorSuspended = "suspended"
)

// TimeSlots binds from JSON as a nested object and from multipart forms as
// either a "timeSlots" JSON value or dotted "timeSlots.start"/"timeSlots.end" keys.
type TimeSlots struct {
	Start string `bson:"start" json:"start" form:"timeSlots.start" validate:"required,datetime=15:04"`
	End   string `bson:"end" json:"end" form:"timeSlots.end" validate:"required,datetime=15:04"`
}

// Doctor belongs to a hospital or clinic. OrganizationID is a weak reference:
// deleting the organization leaves its doctors in place.
type Doctor struct {
	Base              `bson:",inline"`
	OrganizationID    primitive.ObjectID `bson:"organizationId" json:"organizationId" form:"-" validate:"required"`
	OrganizationType  OrganizationType   `bson:"organizationType" json:"organizationType" form:"-" validate:"required,oneof=Hospital Clinic"`
	OrganizationName  string             `bson:"organizationName" json:"organizationName" form:"-" validate:"required"`
	OrganizationEmail string             `bson:"organizationEmail" json:"organizationEmail" form:"-" validate:"required,email"`
	State             string             `bson:"state" json:"state" form:"state" validate:"required"`
	City              string             `bson:"city" json:"city" form:"city" validate:"required"`
	Address           string             `bson:"address" json:"address" form:"address" validate:"required"`
	Name              string             `bson:"name" json:"name" form:"name" validate:"required"`
	Phone             string             `bson:"phone,omitempty" json:"phone,omitempty" form:"phone"`
	Degrees           []string           `bson:"degrees,omitempty" json:"degrees,omitempty" form:"degrees" validate:"dive,oneof=MBBS MD MS DNB DM MCh BDS MDS BHMS BAMS BUMS DHMS PhD"`
	Experience        int                `bson:"experience" json:"experience" form:"experience" validate:"gte=0,lte=50"`
	Specialties       []string           `bson:"specialties,omitempty" json:"specialties,omitempty" form:"specialties" validate:"dive,oneof=Cardiology Neurology Orthopedics Pediatrics Gynecology Dermatology ENT Ophthalmology Psychiatry Dental 'General Medicine'"`
	ConsultationFees  float64            `bson:"consultationFees" json:"consultationFees" form:"consultationFees" validate:"gte=0"`
	AvailableDays     []string           `bson:"availableDays,omitempty" json:"availableDays,omitempty" form:"availableDays" validate:"dive,oneof=Monday Tuesday Wednesday Thursday Friday Saturday Sunday"`
	TimeSlots         TimeSlots          `bson:"timeSlots" json:"timeSlots" form:"timeSlots"`
	UserID            string             `bson:"userId" json:"userId" form:"userId" validate:"required,min=4"`
	Status            string             `bson:"status" json:"status" form:"status" validate:"omitempty,oneof=active inactive pending suspended"`
}

func (*Doctor) Role() Role { return RoleDoctor }

// LoginKey is the userId: doctor emails are not unique.
func (d *Doctor) LoginKey() string { return d.UserID }

func (d *Doctor) Normalize() {
	d.Base.Normalize()
	d.OrganizationEmail = NormalizeEmail(d.OrganizationEmail)
	if d.Status == "" {
		d.Status = DoctorActive
	}
}
