package models

// OrganizationProfile holds the profile fields shared by hospitals and clinics.
type OrganizationProfile struct {
	Name         string   `bson:"name" json:"name" form:"name" validate:"required"`
	Phone        string   `bson:"phone" json:"phone" form:"phone" validate:"required"`
	State        string   `bson:"state" json:"state" form:"state" validate:"required"`
	City         string   `bson:"city" json:"city" form:"city" validate:"required"`
	Pincode      string   `bson:"pincode,omitempty" json:"pincode,omitempty" form:"pincode"`
	Address      string   `bson:"address" json:"address" form:"address" validate:"required"`
	Specialities []string `bson:"specialities,omitempty" json:"specialities,omitempty" form:"specialities"`
	Description  string   `bson:"description,omitempty" json:"description,omitempty" form:"description"`
}

type Hospital struct {
	Base                `bson:",inline"`
	OrganizationProfile `bson:",inline"`
}

func (*Hospital) Role() Role             { return RoleHospital }
func (*Hospital) RequiresLocation() bool { return true }

type Clinic struct {
	Base                `bson:",inline"`
	OrganizationProfile `bson:",inline"`
}

func (*Clinic) Role() Role             { return RoleClinic }
func (*Clinic) RequiresLocation() bool { return true }

// OrganizationType is the discriminator stored on doctors and appointments.
type OrganizationType string

const (
	OrganizationHospital OrganizationType = "Hospital"
	OrganizationClinic   OrganizationType = "Clinic"
)

// OrganizationTypeOf returns the discriminator for a hospital or clinic, or "".
func OrganizationTypeOf(a Actor) OrganizationType {
	switch a.Role() {
	case RoleHospital:
		return OrganizationHospital
	case RoleClinic:
		return OrganizationClinic
	}
	return ""
}

// OrganizationName returns the display name of a hospital or clinic.
func OrganizationName(a Actor) string {
	switch o := a.(type) {
	case *Hospital:
		return o.Name
	case *Clinic:
		return o.Name
	}
	return ""
}

// ProfileOf returns the shared profile of a hospital or clinic, or nil.
func ProfileOf(a Actor) *OrganizationProfile {
	switch o := a.(type) {
	case *Hospital:
		return &o.OrganizationProfile
	case *Clinic:
		return &o.OrganizationProfile
	}
	return nil
}
