package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const GuestEmail = "guest@guest.com"

// Review is feedback about one entity, keyed by (EntityEmail, EntityType).
type Review struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EntityEmail   string             `bson:"entityEmail" json:"entityEmail" validate:"required,email"`
	EntityType    string             `bson:"entityType" json:"entityType" validate:"required,oneof=Hospital Clinic Consultant Doctor"`
	ReviewerEmail string             `bson:"reviewerEmail" json:"reviewerEmail" validate:"required,email"`
	ReviewerName  string             `bson:"reviewerName,omitempty" json:"reviewerName,omitempty"`
	UserType      string             `bson:"userType" json:"userType" validate:"oneof=User Guest"`
	Rating        int                `bson:"rating" json:"rating" validate:"required,min=1,max=5"`
	Comment       string             `bson:"comment,omitempty" json:"comment,omitempty" validate:"max=2000"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Normalize fills the guest reviewer when no reviewer email was given.
func (r *Review) Normalize() {
	r.EntityEmail = NormalizeEmail(r.EntityEmail)
	r.ReviewerEmail = NormalizeEmail(r.ReviewerEmail)
	if r.ReviewerEmail == "" {
		r.ReviewerEmail = GuestEmail
		r.UserType = "Guest"
	} else if r.UserType == "" {
		r.UserType = "User"
	}
}
