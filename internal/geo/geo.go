// Package geo holds the point type stored on actors and the helpers behind
// nearby searches.
package geo

import (
	"math"
	"sort"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/harentsoaR/medico-api/internal/apperr"
)

const (
	earthRadiusKm   = 6371.0
	DefaultRadiusKm = 10.0
	DefaultLimit    = 20
	MaxLimit        = 100
)

// Point is a GeoJSON point. Coordinates are [longitude, latitude].
type Point struct {
	Type        string     `bson:"type" json:"type"`
	Coordinates [2]float64 `bson:"coordinates" json:"coordinates"`
}

// NewPoint validates the coordinate ranges and builds a GeoJSON point.
func NewPoint(lat, lng float64) (*Point, error) {
	if err := ValidateCoordinates(lat, lng); err != nil {
		return nil, err
	}
	return &Point{Type: "Point", Coordinates: [2]float64{lng, lat}}, nil
}

func (p *Point) Latitude() float64  { return p.Coordinates[1] }
func (p *Point) Longitude() float64 { return p.Coordinates[0] }

func ValidateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsNaN(lng) || math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return apperr.InvalidLocation("Invalid coordinates")
	}
	if lat < -90 || lat > 90 {
		return apperr.InvalidLocation("Latitude must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return apperr.InvalidLocation("Longitude must be between -180 and 180")
	}
	return nil
}

// DistanceKm is the great-circle (haversine) distance between two points.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLng := toRadians(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// KmToMeters converts the API radius unit to the store's native unit.
func KmToMeters(km float64) float64 {
	return km * 1000
}

// NearQuery describes a proximity search. Zero Radius and Limit take defaults;
// Limit is capped at MaxLimit.
type NearQuery struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
	Limit     int
}

// Normalize validates the query point and fills defaults.
func (q NearQuery) Normalize() (NearQuery, error) {
	if err := ValidateCoordinates(q.Latitude, q.Longitude); err != nil {
		return q, err
	}
	if q.RadiusKm <= 0 {
		q.RadiusKm = DefaultRadiusKm
	}
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q, nil
}

// NearFilter builds the $near filter for a field holding a 2dsphere-indexed point.
func (q NearQuery) NearFilter(field string) bson.M {
	return bson.M{
		field: bson.M{
			"$near": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": bson.A{q.Longitude, q.Latitude},
				},
				"$maxDistance": KmToMeters(q.RadiusKm),
			},
		},
	}
}

// Nearest keeps the items within the query radius, ordered by increasing
// distance and capped at the query limit. Items without a location are dropped.
func Nearest[T any](items []T, q NearQuery, locate func(T) *Point) []T {
	type ranked struct {
		item T
		dist float64
	}

	candidates := make([]ranked, 0, len(items))
	for _, item := range items {
		p := locate(item)
		if p == nil {
			continue
		}
		d := DistanceKm(q.Latitude, q.Longitude, p.Latitude(), p.Longitude())
		if d <= q.RadiusKm {
			candidates = append(candidates, ranked{item: item, dist: d})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return candidates[i].dist < candidates[j].dist })

	if q.Limit > 0 && len(candidates) > q.Limit {
		candidates = candidates[:q.Limit]
	}
	out := make([]T, len(candidates))
	for i, c := range candidates {
		out[i] = c.item
	}
	return out
}
