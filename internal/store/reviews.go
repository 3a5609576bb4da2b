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

type ReviewCollection struct {
	coll *mongo.Collection
}

func NewReviewCollection(db *mongo.Database) *ReviewCollection {
	return &ReviewCollection{coll: db.Collection("reviews")}
}

func (s *ReviewCollection) Create(ctx context.Context, r *models.Review) error {
	if err := PrepareReview(r, time.Now()); err != nil {
		return err
	}
	if _, err := s.coll.InsertOne(ctx, r); err != nil {
		return apperr.Internal("Failed to create review", err)
	}
	return nil
}

func (s *ReviewCollection) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	var r models.Review
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&r)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperr.NotFound("Review not found")
	}
	if err != nil {
		return nil, apperr.Internal("Failed to load review", err)
	}
	return &r, nil
}

func (s *ReviewCollection) list(ctx context.Context, filter bson.M) ([]models.Review, error) {
	cursor, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, apperr.Internal("Failed to retrieve reviews", err)
	}
	defer cursor.Close(ctx)

	reviews := make([]models.Review, 0)
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, apperr.Internal("Failed to decode reviews", err)
	}
	return reviews, nil
}

func (s *ReviewCollection) List(ctx context.Context) ([]models.Review, error) {
	return s.list(ctx, bson.M{})
}

func (s *ReviewCollection) ListByEntity(ctx context.Context, entityType, entityEmail string) ([]models.Review, error) {
	return s.list(ctx, bson.M{"entityType": entityType, "entityEmail": models.NormalizeEmail(entityEmail)})
}

func (s *ReviewCollection) Update(ctx context.Context, id primitive.ObjectID, patch ReviewPatch) (*models.Review, error) {
	current, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ApplyReviewPatch(current, patch, time.Now()); err != nil {
		return nil, err
	}
	if _, err := s.coll.ReplaceOne(ctx, bson.M{"_id": id}, current); err != nil {
		return nil, apperr.Internal("Failed to update review", err)
	}
	return current, nil
}

func (s *ReviewCollection) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return apperr.Internal("Failed to delete review", err)
	}
	if result.DeletedCount == 0 {
		return apperr.NotFound("Review not found")
	}
	return nil
}

func PrepareReview(r *models.Review, now time.Time) error {
	r.Normalize()
	if err := Validate(r); err != nil {
		return err
	}
	r.ID = primitive.NewObjectID()
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

// ApplyReviewPatch applies and re-validates the editable review fields.
func ApplyReviewPatch(r *models.Review, patch ReviewPatch, now time.Time) error {
	if patch.Rating == nil && patch.Comment == nil {
		return apperr.Validation("No update fields provided")
	}
	if patch.Rating != nil {
		r.Rating = *patch.Rating
	}
	if patch.Comment != nil {
		r.Comment = *patch.Comment
	}
	if err := Validate(r); err != nil {
		return err
	}
	r.UpdatedAt = now
	return nil
}
