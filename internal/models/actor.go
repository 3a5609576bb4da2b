package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medico-api/internal/geo"
)

// Role names an actor kind. It is carried in tokens and prefixes cookie names.
type Role string

const (
	RoleUser       Role = "user"
	RoleHospital   Role = "hospital"
	RoleClinic     Role = "clinic"
	RoleConsultant Role = "consultant"
	RoleDoctor     Role = "doctor"
)

// CookieName is the cookie holding this role's token, e.g. "hospitalToken".
func (r Role) CookieName() string {
	return string(r) + "Token"
}

// Actor is the capability set shared by every registered identity.
type Actor interface {
	GetID() primitive.ObjectID
	SetID(id primitive.ObjectID)
	Role() Role
	GetEmail() string
	// LoginKey is the per-collection unique identity used at login.
	LoginKey() string
	PasswordHash() string
	SetPasswordHash(hash string)
	Coordinates() (lat, lng *float64)
	GetLocation() *geo.Point
	SetLocation(p *geo.Point)
	RequiresLocation() bool
	Touch(now time.Time)
	Normalize()
	// Common exposes the shared fields for handlers that edit any kind.
	Common() *Base
}

// Base carries the fields every actor collection stores.
type Base struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id" form:"-"`
	Email     string             `bson:"email" json:"email" form:"email" validate:"required,email"`
	Password  string             `bson:"password" json:"-" form:"-"`
	Latitude  *float64           `bson:"latitude,omitempty" json:"latitude,omitempty" form:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64           `bson:"longitude,omitempty" json:"longitude,omitempty" form:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Location  *geo.Point         `bson:"location,omitempty" json:"-" form:"-"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty" form:"-"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt" form:"-"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt" form:"-"`
}

func (b *Base) GetID() primitive.ObjectID        { return b.ID }
func (b *Base) SetID(id primitive.ObjectID)      { b.ID = id }
func (b *Base) GetEmail() string                 { return b.Email }
func (b *Base) LoginKey() string                 { return b.Email }
func (b *Base) PasswordHash() string             { return b.Password }
func (b *Base) SetPasswordHash(hash string)      { b.Password = hash }
func (b *Base) Coordinates() (lat, lng *float64) { return b.Latitude, b.Longitude }
func (b *Base) GetLocation() *geo.Point          { return b.Location }
func (b *Base) RequiresLocation() bool           { return false }
func (b *Base) Common() *Base                    { return b }

// SetLocation stores the point and mirrors it into latitude/longitude.
func (b *Base) SetLocation(p *geo.Point) {
	b.Location = p
	if p == nil {
		b.Latitude, b.Longitude = nil, nil
		return
	}
	lat, lng := p.Latitude(), p.Longitude()
	b.Latitude, b.Longitude = &lat, &lng
}

func (b *Base) Touch(now time.Time) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	b.UpdatedAt = now
}

func (b *Base) Normalize() {
	b.Email = NormalizeEmail(b.Email)
}

// NormalizeEmail trims and lower-cases an address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
