package models

// Consultant is an independently practising doctor with its own login.
type Consultant struct {
	Base             `bson:",inline"`
	DoctorName       string  `bson:"doctorName" json:"doctorName" form:"doctorName" validate:"required"`
	Phone            string  `bson:"phone" json:"phone" form:"phone" validate:"required"`
	AlternatePhone   string  `bson:"alternatePhone,omitempty" json:"alternatePhone,omitempty" form:"alternatePhone"`
	State            string  `bson:"state" json:"state" form:"state" validate:"required"`
	City             string  `bson:"city" json:"city" form:"city" validate:"required"`
	Pincode          string  `bson:"pincode,omitempty" json:"pincode,omitempty" form:"pincode"`
	Address          string  `bson:"address" json:"address" form:"address" validate:"required"`
	Experience       int     `bson:"experience" json:"experience" form:"experience" validate:"gte=0,lte=70"`
	Specialities     string  `bson:"specialities,omitempty" json:"specialities,omitempty" form:"specialities"`
	ConsultationFees float64 `bson:"consultationFees" json:"consultationFees" form:"consultationFees" validate:"gte=0"`
	Description      string  `bson:"description" json:"description" form:"description" validate:"required"`
}

func (*Consultant) Role() Role             { return RoleConsultant }
func (*Consultant) RequiresLocation() bool { return true }
