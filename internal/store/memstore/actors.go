// Package memstore keeps every repository in process memory. It backs the
// "memory" store driver used for local runs and tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medico-api/internal/apperr"
	"github.com/harentsoaR/medico-api/internal/geo"
	"github.com/harentsoaR/medico-api/internal/models"
	"github.com/harentsoaR/medico-api/internal/store"
)

// Actors stores documents as BSON so callers never share memory with the store.
type Actors[T models.Actor] struct {
	mu    sync.RWMutex
	role  models.Role
	newT  func() T
	docs  map[primitive.ObjectID][]byte
	order []primitive.ObjectID
	now   func() time.Time
}

func NewActors[T models.Actor](role models.Role, newT func() T) *Actors[T] {
	return &Actors[T]{
		role: role,
		newT: newT,
		docs: make(map[primitive.ObjectID][]byte),
		now:  time.Now,
	}
}

func (a *Actors[T]) Role() models.Role { return a.role }

func (a *Actors[T]) decode(raw []byte) (T, error) {
	actor := a.newT()
	if err := bson.Unmarshal(raw, actor); err != nil {
		var zero T
		return zero, apperr.Internal("Failed to decode "+string(a.role), err)
	}
	return actor, nil
}

// scan calls fn for each stored actor in insertion order until fn returns false.
func (a *Actors[T]) scan(fn func(T) bool) error {
	for _, id := range a.order {
		actor, err := a.decode(a.docs[id])
		if err != nil {
			return err
		}
		if !fn(actor) {
			return nil
		}
	}
	return nil
}

func (a *Actors[T]) loginTaken(key string, except primitive.ObjectID) (bool, error) {
	taken := false
	err := a.scan(func(t T) bool {
		if t.LoginKey() == key && t.GetID() != except {
			taken = true
			return false
		}
		return true
	})
	return taken, err
}

func (a *Actors[T]) Create(ctx context.Context, actor T, password string) error {
	if err := store.PrepareNew(actor, password, a.now()); err != nil {
		return err
	}
	raw, err := bson.Marshal(actor)
	if err != nil {
		return apperr.Internal("Failed to encode "+string(a.role), err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	taken, err := a.loginTaken(actor.LoginKey(), primitive.NilObjectID)
	if err != nil {
		return err
	}
	if taken {
		return store.DuplicateError(a.role)
	}
	a.docs[actor.GetID()] = raw
	a.order = append(a.order, actor.GetID())
	return nil
}

func (a *Actors[T]) findFirst(match func(T) bool) (T, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var found T
	ok := false
	err := a.scan(func(t T) bool {
		if match(t) {
			found, ok = t, true
			return false
		}
		return true
	})
	if err != nil {
		return found, err
	}
	if !ok {
		return found, store.NotFoundError(a.role)
	}
	return found, nil
}

func (a *Actors[T]) FindByID(ctx context.Context, id primitive.ObjectID) (T, error) {
	a.mu.RLock()
	raw, ok := a.docs[id]
	a.mu.RUnlock()
	if !ok {
		var zero T
		return zero, store.NotFoundError(a.role)
	}
	return a.decode(raw)
}

func (a *Actors[T]) FindByEmail(ctx context.Context, email string) (T, error) {
	email = models.NormalizeEmail(email)
	return a.findFirst(func(t T) bool { return t.GetEmail() == email })
}

func (a *Actors[T]) FindByLogin(ctx context.Context, key string) (T, error) {
	if a.role != models.RoleDoctor {
		key = models.NormalizeEmail(key)
	}
	return a.findFirst(func(t T) bool { return t.LoginKey() == key })
}

func (a *Actors[T]) Update(ctx context.Context, actor T) error {
	if err := store.PrepareUpdate(actor, a.now()); err != nil {
		return err
	}
	raw, err := bson.Marshal(actor)
	if err != nil {
		return apperr.Internal("Failed to encode "+string(a.role), err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.docs[actor.GetID()]; !ok {
		return store.NotFoundError(a.role)
	}
	taken, err := a.loginTaken(actor.LoginKey(), actor.GetID())
	if err != nil {
		return err
	}
	if taken {
		return store.DuplicateError(a.role)
	}
	a.docs[actor.GetID()] = raw
	return nil
}

func (a *Actors[T]) Delete(ctx context.Context, id primitive.ObjectID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.docs[id]; !ok {
		return store.NotFoundError(a.role)
	}
	delete(a.docs, id)
	for i, existing := range a.order {
		if existing == id {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
	return nil
}

func (a *Actors[T]) FindNearby(ctx context.Context, q geo.NearQuery) ([]T, error) {
	q, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	all, err := a.filter(func(T) bool { return true })
	if err != nil {
		return nil, err
	}
	return geo.Nearest(all, q, func(t T) *geo.Point { return t.GetLocation() }), nil
}

func (a *Actors[T]) filter(match func(T) bool) ([]T, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]T, 0)
	err := a.scan(func(t T) bool {
		if match(t) {
			out = append(out, t)
		}
		return true
	})
	return out, err
}

type Doctors struct {
	*Actors[*models.Doctor]
}

func NewDoctors() *Doctors {
	return &Doctors{Actors: NewActors(models.RoleDoctor, func() *models.Doctor { return new(models.Doctor) })}
}

func (d *Doctors) ListByOrganization(ctx context.Context, orgID primitive.ObjectID, orgType models.OrganizationType) ([]*models.Doctor, error) {
	doctors, err := d.filter(func(doc *models.Doctor) bool {
		return doc.OrganizationID == orgID && doc.OrganizationType == orgType
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(doctors, func(i, j int) bool { return doctors[i].Name < doctors[j].Name })
	return doctors, nil
}

// NewRepositories returns an empty in-memory set of repositories.
func NewRepositories() *store.Repositories {
	return &store.Repositories{
		Users:        NewActors(models.RoleUser, func() *models.User { return new(models.User) }),
		Hospitals:    NewActors(models.RoleHospital, func() *models.Hospital { return new(models.Hospital) }),
		Clinics:      NewActors(models.RoleClinic, func() *models.Clinic { return new(models.Clinic) }),
		Consultants:  NewActors(models.RoleConsultant, func() *models.Consultant { return new(models.Consultant) }),
		Doctors:      NewDoctors(),
		Appointments: NewAppointments(),
		Reviews:      NewReviews(),
	}
}
