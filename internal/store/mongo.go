package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/harentsoaR/medico-api/internal/models"
)

// Connect opens a client and pings the primary.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}
	return client, nil
}

// NewMongoRepositories wires every repository to collections of db.
func NewMongoRepositories(db *mongo.Database) *Repositories {
	return &Repositories{
		Users:        NewActorCollection(db, "users", models.RoleUser, func() *models.User { return new(models.User) }),
		Hospitals:    NewActorCollection(db, "hospitals", models.RoleHospital, func() *models.Hospital { return new(models.Hospital) }),
		Clinics:      NewActorCollection(db, "clinics", models.RoleClinic, func() *models.Clinic { return new(models.Clinic) }),
		Consultants:  NewActorCollection(db, "consultants", models.RoleConsultant, func() *models.Consultant { return new(models.Consultant) }),
		Doctors:      NewDoctorCollection(db),
		Appointments: NewAppointmentCollection(db),
		Reviews:      NewReviewCollection(db),
	}
}

// EnsureIndexes creates the unique identity indexes and the 2dsphere indexes
// that nearby searches require.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := func(field string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		}
	}
	sphere := mongo.IndexModel{Keys: bson.D{{Key: "location", Value: "2dsphere"}}}

	indexes := map[string][]mongo.IndexModel{
		"users":       {unique("email")},
		"hospitals":   {unique("email"), sphere},
		"clinics":     {unique("email"), sphere},
		"consultants": {unique("email"), sphere},
		"doctors": {
			unique("userId"),
			sphere,
			{Keys: bson.D{{Key: "organizationId", Value: 1}, {Key: "organizationType", Value: 1}}},
		},
		"appointments": {
			{Keys: bson.D{{Key: "organizationEmail", Value: 1}, {Key: "appointmentDate", Value: 1}}},
			{Keys: bson.D{{Key: "email", Value: 1}}},
		},
		"reviews": {
			{Keys: bson.D{{Key: "entityType", Value: 1}, {Key: "entityEmail", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}

	for name, specs := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, specs); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}
