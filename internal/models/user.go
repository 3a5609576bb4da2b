package models

// User is a patient account.
type User struct {
	Base        `bson:",inline"`
	FirstName   string `bson:"firstName" json:"firstName" form:"firstName" validate:"required"`
	LastName    string `bson:"lastName" json:"lastName" form:"lastName" validate:"required"`
	Phone       string `bson:"phone" json:"phone" form:"phone" validate:"required"`
	DateOfBirth string `bson:"dateOfBirth,omitempty" json:"dateOfBirth,omitempty" form:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Gender      string `bson:"gender,omitempty" json:"gender,omitempty" form:"gender" validate:"omitempty,oneof=male female other"`
	Address     string `bson:"address,omitempty" json:"address,omitempty" form:"address"`
}

func (*User) Role() Role { return RoleUser }
