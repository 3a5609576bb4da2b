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

type Appointments struct {
	mu    sync.RWMutex
	items map[primitive.ObjectID]models.Appointment
	now   func() time.Time
}

func NewAppointments() *Appointments {
	return &Appointments{items: make(map[primitive.ObjectID]models.Appointment), now: time.Now}
}

func (s *Appointments) Create(ctx context.Context, a *models.Appointment) error {
	if err := store.PrepareAppointment(a, s.now()); err != nil {
		return err
	}
	s.mu.Lock()
	s.items[a.ID] = *a
	s.mu.Unlock()
	return nil
}

func (s *Appointments) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	apt, ok := s.items[id]
	if !ok {
		return nil, apperr.NotFound("Appointment not found")
	}
	return &apt, nil
}

func matches(a models.Appointment, f store.AppointmentFilter) bool {
	if f.OrganizationEmail != "" && a.OrganizationEmail != models.NormalizeEmail(f.OrganizationEmail) {
		return false
	}
	if f.PatientEmail != "" && a.Email != models.NormalizeEmail(f.PatientEmail) {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.From != nil && a.AppointmentDate.Before(*f.From) {
		return false
	}
	if f.To != nil && !a.AppointmentDate.Before(*f.To) {
		return false
	}
	return true
}

func (s *Appointments) list(f store.AppointmentFilter) []models.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Appointment, 0)
	for _, a := range s.items {
		if matches(a, f) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].AppointmentDate.Equal(out[j].AppointmentDate) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].AppointmentDate.Before(out[j].AppointmentDate)
	})
	return out
}

func (s *Appointments) List(ctx context.Context, f store.AppointmentFilter) ([]models.Appointment, error) {
	return s.list(f), nil
}

func (s *Appointments) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.AppointmentStatus) (*models.Appointment, error) {
	if !status.Valid() {
		return nil, apperr.Validation("Status must be one of Pending, Confirmed, Cancelled, Completed")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	apt, ok := s.items[id]
	if !ok {
		return nil, apperr.NotFound("Appointment not found")
	}
	apt.Status = status
	apt.UpdatedAt = s.now()
	s.items[id] = apt
	return &apt, nil
}

func (s *Appointments) Delete(ctx context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return apperr.NotFound("Appointment not found")
	}
	delete(s.items, id)
	return nil
}

func (s *Appointments) CountBetween(ctx context.Context, orgEmail string, from, to time.Time) (int64, error) {
	return int64(len(s.list(store.AppointmentFilter{OrganizationEmail: orgEmail, From: &from, To: &to}))), nil
}

func (s *Appointments) Count(ctx context.Context, orgEmail string) (int64, error) {
	return int64(len(s.list(store.AppointmentFilter{OrganizationEmail: orgEmail}))), nil
}

func (s *Appointments) CompletedRevenue(ctx context.Context, orgEmail string) (float64, error) {
	var total float64
	for _, a := range s.list(store.AppointmentFilter{OrganizationEmail: orgEmail, Status: models.StatusCompleted}) {
		total += a.Fees
	}
	return total, nil
}

func (s *Appointments) DistinctPatients(ctx context.Context, orgEmail string) (int64, error) {
	seen := make(map[string]struct{})
	for _, a := range s.list(store.AppointmentFilter{OrganizationEmail: orgEmail}) {
		seen[a.Email] = struct{}{}
	}
	return int64(len(seen)), nil
}

func (s *Appointments) AppointmentDatesSince(ctx context.Context, orgEmail string, since time.Time) ([]time.Time, error) {
	found := s.list(store.AppointmentFilter{OrganizationEmail: orgEmail, From: &since})
	dates := make([]time.Time, len(found))
	for i, a := range found {
		dates[i] = a.AppointmentDate
	}
	return dates, nil
}

func (s *Appointments) PatientTypeCounts(ctx context.Context, orgEmail string) (map[string]int64, error) {
	counts := make(map[string]int64)
	for _, a := range s.list(store.AppointmentFilter{OrganizationEmail: orgEmail}) {
		counts[a.PatientType]++
	}
	return counts, nil
}
