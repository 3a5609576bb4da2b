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
	"github.com/harentsoaR/medico-api/internal/geo"
	"github.com/harentsoaR/medico-api/internal/models"
)

// ActorCollection is the MongoDB credential store for one actor kind.
type ActorCollection[T models.Actor] struct {
	coll *mongo.Collection
	role models.Role
	newT func() T
}

func NewActorCollection[T models.Actor](db *mongo.Database, name string, role models.Role, newT func() T) *ActorCollection[T] {
	return &ActorCollection[T]{coll: db.Collection(name), role: role, newT: newT}
}

func (a *ActorCollection[T]) Role() models.Role { return a.role }

func (a *ActorCollection[T]) Create(ctx context.Context, actor T, password string) error {
	if err := PrepareNew(actor, password, time.Now()); err != nil {
		return err
	}

	err := a.coll.FindOne(ctx, bson.M{identityField(a.role): actor.LoginKey()}).Err()
	if err == nil {
		return DuplicateError(a.role)
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return apperr.Internal("Failed to check existing account", err)
	}

	if _, err := a.coll.InsertOne(ctx, actor); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return DuplicateError(a.role)
		}
		return apperr.Internal("Failed to create "+string(a.role), err)
	}
	return nil
}

func (a *ActorCollection[T]) findOne(ctx context.Context, filter bson.M) (T, error) {
	actor := a.newT()
	err := a.coll.FindOne(ctx, filter).Decode(actor)
	if errors.Is(err, mongo.ErrNoDocuments) {
		var zero T
		return zero, NotFoundError(a.role)
	}
	if err != nil {
		var zero T
		return zero, apperr.Internal("Failed to load "+string(a.role), err)
	}
	return actor, nil
}

func (a *ActorCollection[T]) FindByID(ctx context.Context, id primitive.ObjectID) (T, error) {
	return a.findOne(ctx, bson.M{"_id": id})
}

func (a *ActorCollection[T]) FindByEmail(ctx context.Context, email string) (T, error) {
	return a.findOne(ctx, bson.M{"email": models.NormalizeEmail(email)})
}

func (a *ActorCollection[T]) FindByLogin(ctx context.Context, key string) (T, error) {
	if a.role != models.RoleDoctor {
		key = models.NormalizeEmail(key)
	}
	return a.findOne(ctx, bson.M{identityField(a.role): key})
}

func (a *ActorCollection[T]) Update(ctx context.Context, actor T) error {
	if err := PrepareUpdate(actor, time.Now()); err != nil {
		return err
	}
	result, err := a.coll.ReplaceOne(ctx, bson.M{"_id": actor.GetID()}, actor)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return DuplicateError(a.role)
		}
		return apperr.Internal("Failed to update "+string(a.role), err)
	}
	if result.MatchedCount == 0 {
		return NotFoundError(a.role)
	}
	return nil
}

func (a *ActorCollection[T]) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := a.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Internal("Failed to delete "+string(a.role), err)
	}
	if result.DeletedCount == 0 {
		return NotFoundError(a.role)
	}
	return nil
}

// FindNearby runs a $near query against the 2dsphere index on location.
// $near already orders by distance; the haversine pass keeps the radius
// contract exact regardless of the server's spherical model.
func (a *ActorCollection[T]) FindNearby(ctx context.Context, q geo.NearQuery) ([]T, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	cursor, err := a.coll.Find(ctx, q.NearFilter("location"), options.Find().SetLimit(int64(q.Limit)))
	if err != nil {
		return nil, apperr.Internal("Failed to search nearby", err)
	}
	found, err := a.decodeAll(ctx, cursor)
	if err != nil {
		return nil, err
	}
	return geo.Nearest(found, q, func(t T) *geo.Point { return t.GetLocation() }), nil
}

func (a *ActorCollection[T]) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := a.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, apperr.Internal("Failed to list "+string(a.role), err)
	}
	return a.decodeAll(ctx, cursor)
}

func (a *ActorCollection[T]) decodeAll(ctx context.Context, cursor *mongo.Cursor) ([]T, error) {
	defer cursor.Close(ctx)

	out := make([]T, 0)
	for cursor.Next(ctx) {
		actor := a.newT()
		if err := cursor.Decode(actor); err != nil {
			return nil, apperr.Internal("Failed to decode "+string(a.role), err)
		}
		out = append(out, actor)
	}
	if err := cursor.Err(); err != nil {
		return nil, apperr.Internal("Failed to read "+string(a.role), err)
	}
	return out, nil
}

// DoctorCollection adds organization lookups to the doctor credential store.
type DoctorCollection struct {
	*ActorCollection[*models.Doctor]
}

func NewDoctorCollection(db *mongo.Database) *DoctorCollection {
	return &DoctorCollection{
		ActorCollection: NewActorCollection(db, "doctors", models.RoleDoctor, func() *models.Doctor { return new(models.Doctor) }),
	}
}

func (d *DoctorCollection) ListByOrganization(ctx context.Context, orgID primitive.ObjectID, orgType models.OrganizationType) ([]*models.Doctor, error) {
	return d.find(ctx,
		bson.M{"organizationId": orgID, "organizationType": orgType},
		options.Find().SetSort(bson.D{{Key: "name", Value: 1}}),
	)
}
