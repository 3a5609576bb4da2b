package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medico-api/internal/apperr"
	"github.com/harentsoaR/medico-api/internal/models"
	"github.com/harentsoaR/medico-api/internal/store"
)

type Reviews struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]models.Review
	now   func() time.Time
}

func NewReviews() *Reviews {
	return &Reviews{items: make(map[primitive.ObjectID]models.Review), now: time.Now}
}

func (s *Reviews) Create(ctx context.Context, r *models.Review) error {
	if err := store.PrepareReview(r, s.now()); err != nil {
		return err
	}
	s.mu.Lock()
	s.items[r.ID] = *r
	s.mu.Unlock()
	return nil
}

func (s *Reviews) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.items[id]
	if !ok {
		return nil, apperr.NotFound("Review not found")
	}
	return &r, nil
}

func (s *Reviews) list(match func(models.Review) bool) []models.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Review, 0)
	for _, r := range s.items {
		if match(r) {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *Reviews) List(ctx context.Context) ([]models.Review, error) {
	return s.list(func(models.Review) bool { return true }), nil
}

func (s *Reviews) ListByEntity(ctx context.Context, entityType, entityEmail string) ([]models.Review, error) {
	entityEmail = models.NormalizeEmail(entityEmail)
	return s.list(func(r models.Review) bool {
		return r.EntityType == entityType && r.EntityEmail == entityEmail
	}), nil
}

func (s *Reviews) Update(ctx context.Context, id primitive.ObjectID, patch store.ReviewPatch) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.items[id]
	if !ok {
		return nil, apperr.NotFound("Review not found")
	}
	if err := store.ApplyReviewPatch(&r, patch, s.now()); err != nil {
		return nil, err
	}
	s.items[id] = r
	return &r, nil
}

func (s *Reviews) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return apperr.NotFound("Review not found")
	}
	delete(s.items, id)
	return nil
}
