package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/harentsoaR/medico-api/internal/apperr"
	"github.com/harentsoaR/medico-api/internal/models"
)

type AppointmentCollection struct {
	coll *mongo.Collection
}

func NewAppointmentCollection(db *mongo.Database) *AppointmentCollection {
	return &AppointmentCollection{coll: db.Collection("appointments")}
}

func (s *AppointmentCollection) Create(ctx context.Context, a *models.Appointment) error {
	if err := PrepareAppointment(a, time.Now()); err != nil {
		return err
	}
	if _, err := s.coll.InsertOne(ctx, a); err != nil {
		return apperr.Internal("Failed to create appointment", err)
	}
	return nil
}

func (s *AppointmentCollection) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	var apt models.Appointment
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&apt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Appointment not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to load appointment", err)
	}
	return &apt, nil
}

func appointmentFilter(f AppointmentFilter) bson.M {
	filter := bson.M{}
	if f.OrganizationEmail != "" {
		filter["organizationEmail"] = models.NormalizeEmail(f.OrganizationEmail)
	}
	if f.PatientEmail != "" {
		filter["email"] = models.NormalizeEmail(f.PatientEmail)
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	dateRange := bson.M{}
	if f.From != nil {
		dateRange["$gte"] = *f.From
	}
	if f.To != nil {
		dateRange["$lt"] = *f.To
	}
	if len(dateRange) > 0 {
		filter["appointmentDate"] = dateRange
	}
	return filter
}

func (s *AppointmentCollection) List(ctx context.Context, f AppointmentFilter) ([]models.Appointment, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "appointmentDate", Value: 1}})
	cursor, err := s.coll.Find(ctx, appointmentFilter(f), findOptions)
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve appointments", err)
	}
	defer cursor.Close(ctx)

	appointments := make([]models.Appointment, 0)
	if err = cursor.All(ctx, &appointments); err != nil {
		return nil, apperr.Internal("Failed to decode appointments", err)
	}
	return appointments, nil
}

func (s *AppointmentCollection) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.AppointmentStatus) (*models.Appointment, error) {
	if !status.Valid() {
		return nil, apperr.Validation("Status must be one of Pending, Confirmed, Cancelled, Completed")
	}
	var apt models.Appointment
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&apt)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Appointment not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to update appointment", err)
	}
	return &apt, nil
}

func (s *AppointmentCollection) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Internal("Failed to delete appointment", err)
	}
	if result.DeletedCount == 0 {
		return apperr.NotFound("Appointment not found")
	}
	return nil
}

func (s *AppointmentCollection) CountBetween(ctx context.Context, orgEmail string, from, to time.Time) (int64, error) {
	return s.coll.CountDocuments(ctx, appointmentFilter(AppointmentFilter{OrganizationEmail: orgEmail, From: &from, To: &to}))
}

func (s *AppointmentCollection) Count(ctx context.Context, orgEmail string) (int64, error) {
	return s.coll.CountDocuments(ctx, appointmentFilter(AppointmentFilter{OrganizationEmail: orgEmail}))
}

func (s *AppointmentCollection) CompletedRevenue(ctx context.Context, orgEmail string) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: appointmentFilter(AppointmentFilter{OrganizationEmail: orgEmail, Status: models.StatusCompleted})}},
		{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$fees"}}}},
	}
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}
	var rows []struct {
		Total float64 `bson:"total"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return rows[0].Total, nil
}

func (s *AppointmentCollection) DistinctPatients(ctx context.Context, orgEmail string) (int64, error) {
	emails, err := s.coll.Distinct(ctx, "email", appointmentFilter(AppointmentFilter{OrganizationEmail: orgEmail}))
	if err != nil {
		return 0, err
	}
	return int64(len(emails)), nil
}

func (s *AppointmentCollection) AppointmentDatesSince(ctx context.Context, orgEmail string, since time.Time) ([]time.Time, error) {
	cursor, err := s.coll.Find(ctx,
		appointmentFilter(AppointmentFilter{OrganizationEmail: orgEmail, From: &since}),
		options.Find().SetProjection(bson.M{"appointmentDate": 1}),
	)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		AppointmentDate time.Time `bson:"appointmentDate"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	dates := make([]time.Time, len(rows))
	for i, r := range rows {
		dates[i] = r.AppointmentDate
	}
	return dates, nil
}

func (s *AppointmentCollection) PatientTypeCounts(ctx context.Context, orgEmail string) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: appointmentFilter(AppointmentFilter{OrganizationEmail: orgEmail})}},
		{{Key: "$group", Value: bson.M{"_id": "$patientType", "value": bson.M{"$sum": 1}}}},
	}
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Type  *string `bson:"_id"`
		Value int64   `bson:"value"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		key := ""
		if r.Type != nil {
			key = *r.Type
		}
		counts[key] += r.Value
	}
	return counts, nil
}

// PrepareAppointment normalizes, validates and stamps a new appointment.
func PrepareAppointment(a *models.Appointment, now time.Time) error {
	a.Normalize()
	if !a.Status.Valid() {
		return apperr.Validation("Status must be one of Pending, Confirmed, Cancelled, Completed")
	}
	if err := Validate(a); err != nil {
		return err
	}
	a.ID = primitive.NewObjectID()
	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}
