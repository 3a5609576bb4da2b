package handlers

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/medico-api/internal/apperr"
	"github.com/harentsoaR/medico-api/internal/geo"
	"github.com/harentsoaR/medico-api/internal/models"
	"github.com/harentsoaR/medico-api/internal/response"
	"github.com/harentsoaR/medico-api/internal/store"
)

// nearbyRequest accepts numbers or numeric strings, as browsers send both.
type nearbyRequest struct {
	Latitude  any `json:"latitude"`
	Longitude any `json:"longitude"`
	Radius    any `json:"radius"`
	Limit     any `json:"limit"`
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

func (r nearbyRequest) query() (geo.NearQuery, error) {
	if r.Latitude == nil || r.Longitude == nil {
		return geo.NearQuery{}, apperr.InvalidLocation("Latitude and longitude are required")
	}
	lat, okLat := number(r.Latitude)
	lng, okLng := number(r.Longitude)
	if !okLat || !okLng {
		return geo.NearQuery{}, apperr.InvalidLocation("Invalid coordinates")
	}

	q := geo.NearQuery{Latitude: lat, Longitude: lng}
	if r.Radius != nil {
		radius, ok := number(r.Radius)
		if !ok || radius < 0 {
			return geo.NearQuery{}, apperr.Validation("Radius must be a positive number of kilometres")
		}
		q.RadiusKm = radius
	}
	if r.Limit != nil {
		if limit, ok := number(r.Limit); ok && limit > 0 {
			q.Limit = int(math.Min(limit, geo.MaxLimit))
		}
	}
	return q.Normalize()
}

// nearby serves POST {latitude, longitude, radius?} for one actor kind and
// answers {success, results, count}.
func nearby[T models.Actor](repo store.ActorRepository[T]) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req nearbyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, apperr.ValidationWrap("Invalid request body", err))
			return
		}
		q, err := req.query()
		if err != nil {
			response.Error(c, err)
			return
		}

		results, err := repo.FindNearby(c.Request.Context(), q)
		if err != nil {
			response.Error(c, err)
			return
		}
		if results == nil {
			results = []T{}
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"results": results,
			"count":   len(results),
		})
	}
}
