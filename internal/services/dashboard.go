package services

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harentsoaR/medico-api/internal/apperr"
	"github.com/harentsoaR/medico-api/internal/models"
)

// AppointmentStats is the slice of the appointment store the dashboard reads.
type AppointmentStats interface {
	CountBetween(ctx context.Context, orgEmail string, from, to time.Time) (int64, error)
	Count(ctx context.Context, orgEmail string) (int64, error)
	CompletedRevenue(ctx context.Context, orgEmail string) (float64, error)
	DistinctPatients(ctx context.Context, orgEmail string) (int64, error)
	AppointmentDatesSince(ctx context.Context, orgEmail string, since time.Time) ([]time.Time, error)
	PatientTypeCounts(ctx context.Context, orgEmail string) (map[string]int64, error)
}

var weekdayNames = [7]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

var patientTypeColors = []struct {
	name  string
	color string
}{
	{models.PatientNew, "#10B981"},
	{models.PatientRegular, "#3B82F6"},
	{models.PatientFollowup, "#F59E0B"},
}

type DayCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

type PatientTypeCount struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
	Color string `json:"color"`
}

type Dashboard struct {
	TodayPatients       int64              `json:"todayPatients"`
	Appointments        int64              `json:"appointments"`
	TotalPatients       int64              `json:"totalPatients"`
	Revenue             float64            `json:"revenue"`
	WeeklyAppointments  []DayCount         `json:"weeklyAppointments"`
	PatientDistribution []PatientTypeCount `json:"patientDistribution"`
}

type DashboardService struct {
	stats AppointmentStats
	now   func() time.Time
}

func NewDashboardService(stats AppointmentStats) *DashboardService {
	return &DashboardService{stats: stats, now: time.Now}
}

// WithClock replaces the time source; the location of the returned times
// decides where calendar days start.
func (s *DashboardService) WithClock(now func() time.Time) *DashboardService {
	s.now = now
	return s
}

// Build computes every statistic for the organization concurrently. Any
// failure discards the partial results.
func (s *DashboardService) Build(ctx context.Context, orgEmail string) (*Dashboard, error) {
	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tomorrow := startOfDay.AddDate(0, 0, 1)
	weekStart := startOfDay.AddDate(0, 0, -6)

	var (
		d     Dashboard
		dates []time.Time
		types map[string]int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.TodayPatients, err = s.stats.CountBetween(gctx, orgEmail, startOfDay, tomorrow)
		return err
	})
	g.Go(func() (err error) {
		d.Appointments, err = s.stats.Count(gctx, orgEmail)
		return err
	})
	g.Go(func() (err error) {
		d.Revenue, err = s.stats.CompletedRevenue(gctx, orgEmail)
		return err
	})
	g.Go(func() (err error) {
		d.TotalPatients, err = s.stats.DistinctPatients(gctx, orgEmail)
		return err
	})
	g.Go(func() (err error) {
		dates, err = s.stats.AppointmentDatesSince(gctx, orgEmail, weekStart)
		return err
	})
	g.Go(func() (err error) {
		types, err = s.stats.PatientTypeCounts(gctx, orgEmail)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apperr.Dashboard(err)
	}

	d.WeeklyAppointments = weeklyHistogram(dates, weekStart, tomorrow, now.Location())
	d.PatientDistribution = patientDistribution(types)
	return &d, nil
}

// weeklyHistogram buckets the dates in [from, to) by weekday, Sun..Sat.
func weeklyHistogram(dates []time.Time, from, to time.Time, loc *time.Location) []DayCount {
	var counts [7]int64
	for _, t := range dates {
		if t.Before(from) || !t.Before(to) {
			continue
		}
		counts[t.In(loc).Weekday()]++
	}
	out := make([]DayCount, len(weekdayNames))
	for i, name := range weekdayNames {
		out[i] = DayCount{Name: name, Count: counts[i]}
	}
	return out
}

// patientDistribution folds missing and unknown types into "new".
func patientDistribution(raw map[string]int64) []PatientTypeCount {
	folded := make(map[string]int64, len(patientTypeColors))
	for name, n := range raw {
		switch key := strings.ToLower(name); key {
		case models.PatientRegular, models.PatientFollowup:
			folded[key] += n
		default:
			folded[models.PatientNew] += n
		}
	}
	out := make([]PatientTypeCount, len(patientTypeColors))
	for i, pt := range patientTypeColors {
		out[i] = PatientTypeCount{Name: pt.name, Value: folded[pt.name], Color: pt.color}
	}
	return out
}
