// Package store persists actors, appointments and reviews. The MongoDB
// implementation lives here; memstore provides an in-process one with the
// same behaviour.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medico-api/internal/apperr"
	"github.com/harentsoaR/medico-api/internal/geo"
	"github.com/harentsoaR/medico-api/internal/models"
	"github.com/harentsoaR/medico-api/internal/utils"
)

const MinPasswordLength = 6

// ActorRepository is the credential store for one actor kind. Uniqueness of
// LoginKey is scoped to the repository, never across kinds.
type ActorRepository[T models.Actor] interface {
	Role() models.Role
	// Create validates the actor, hashes password and inserts it.
	Create(ctx context.Context, actor T, password string) error
	FindByID(ctx context.Context, id primitive.ObjectID) (T, error)
	FindByEmail(ctx context.Context, email string) (T, error)
	FindByLogin(ctx context.Context, key string) (T, error)
	// Update replaces the stored actor with the given one.
	Update(ctx context.Context, actor T) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	FindNearby(ctx context.Context, q geo.NearQuery) ([]T, error)
}

type DoctorRepository interface {
	ActorRepository[*models.Doctor]
	ListByOrganization(ctx context.Context, orgID primitive.ObjectID, orgType models.OrganizationType) ([]*models.Doctor, error)
}

type AppointmentFilter struct {
	OrganizationEmail string
	PatientEmail      string
	Status            models.AppointmentStatus
	From              *time.Time
	To                *time.Time
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *models.Appointment) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error)
	// List returns matching appointments ordered by appointment date.
	List(ctx context.Context, f AppointmentFilter) ([]models.Appointment, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.AppointmentStatus) (*models.Appointment, error)
	Delete(ctx context.Context, id primitive.ObjectID) error

	CountBetween(ctx context.Context, orgEmail string, from, to time.Time) (int64, error)
	Count(ctx context.Context, orgEmail string) (int64, error)
	CompletedRevenue(ctx context.Context, orgEmail string) (float64, error)
	DistinctPatients(ctx context.Context, orgEmail string) (int64, error)
	AppointmentDatesSince(ctx context.Context, orgEmail string, since time.Time) ([]time.Time, error)
	PatientTypeCounts(ctx context.Context, orgEmail string) (map[string]int64, error)
}

// ReviewPatch lists the review fields a caller may change.
type ReviewPatch struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

type ReviewRepository interface {
	Create(ctx context.Context, r *models.Review) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error)
	// List returns every review, newest first.
	List(ctx context.Context) ([]models.Review, error)
	ListByEntity(ctx context.Context, entityType, entityEmail string) ([]models.Review, error)
	Update(ctx context.Context, id primitive.ObjectID, patch ReviewPatch) (*models.Review, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Repositories bundles every repository a server needs.
type Repositories struct {
	Users        ActorRepository[*models.User]
	Hospitals    ActorRepository[*models.Hospital]
	Clinics      ActorRepository[*models.Clinic]
	Consultants  ActorRepository[*models.Consultant]
	Doctors      DoctorRepository
	Appointments AppointmentRepository
	Reviews      ReviewRepository
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the struct tags of v and turns failures into a ValidationError.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.ValidationWrap("Invalid input", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return apperr.ValidationWrap(strings.Join(msgs, ", "), err)
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must match %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// PrepareNew readies an actor for insertion: it normalizes and validates the
// fields, derives the GeoJSON location, hashes the password and assigns an id.
func PrepareNew(actor models.Actor, password string, now time.Time) error {
	if len(password) < MinPasswordLength {
		return apperr.Validation(fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	if err := PrepareUpdate(actor, now); err != nil {
		return err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return apperr.Internal("Failed to hash password", err)
	}
	actor.SetPasswordHash(hash)
	actor.SetID(primitive.NewObjectID())
	return nil
}

// PrepareUpdate normalizes and validates an edited actor and refreshes its location.
func PrepareUpdate(actor models.Actor, now time.Time) error {
	actor.Normalize()
	if err := Validate(actor); err != nil {
		return err
	}

	lat, lng := actor.Coordinates()
	switch {
	case lat != nil && lng != nil:
		p, err := geo.NewPoint(*lat, *lng)
		if err != nil {
			return err
		}
		actor.SetLocation(p)
	case lat != nil || lng != nil:
		return apperr.InvalidLocation("Latitude and longitude must be provided together")
	case actor.RequiresLocation():
		return apperr.InvalidLocation("Latitude and longitude are required")
	default:
		actor.SetLocation(nil)
	}

	actor.Touch(now)
	return nil
}

// VerifyPassword reports whether plaintext matches the actor's stored hash.
func VerifyPassword(actor models.Actor, plaintext string) bool {
	return utils.CheckPasswordHash(plaintext, actor.PasswordHash())
}

// DuplicateError is returned when the login key is already taken in a collection.
func DuplicateError(role models.Role) error {
	if role == models.RoleDoctor {
		return apperr.DuplicateIdentity("Doctor with this user ID already exists")
	}
	return apperr.DuplicateIdentity(fmt.Sprintf("%s already registered with this email", displayName(role)))
}

func NotFoundError(role models.Role) error {
	return apperr.NotFound(displayName(role) + " not found")
}

func displayName(role models.Role) string {
	s := string(role)
	if s == "" {
		return "Record"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// identityField is the document field holding the login key.
func identityField(role models.Role) string {
	if role == models.RoleDoctor {
		return "userId"
	}
	return "email"
}
