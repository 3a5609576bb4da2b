package handlers

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medico-api/internal/apperr"
	"github.com/harentsoaR/medico-api/internal/middleware"
	"github.com/harentsoaR/medico-api/internal/models"
	"github.com/harentsoaR/medico-api/internal/services"
	"github.com/harentsoaR/medico-api/internal/store"
	"github.com/harentsoaR/medico-api/internal/utils"
)

// StatusNotifier is told about every appointment status change.
type StatusNotifier interface {
	NotifyStatusChange(apt *models.Appointment)
}

// Deps are the collaborators a Handler is built from. Uploader may be nil,
// in which case uploaded images are ignored.
type Deps struct {
	Repos        *store.Repositories
	Tokens       *utils.TokenIssuer
	Revocations  services.Revocations
	Dashboard    *services.DashboardService
	Nutrition    *services.NutritionClient
	Uploader     services.ImageUploader
	Notifier     StatusNotifier
	CookieSecure bool
}

type Handler struct {
	repos        *store.Repositories
	tokens       *utils.TokenIssuer
	revocations  services.Revocations
	gates        middleware.Gates
	auth         *middleware.Authenticator
	dashboard    *services.DashboardService
	nutrition    *services.NutritionClient
	uploader     services.ImageUploader
	notifier     StatusNotifier
	cookieSecure bool
}

func NewHandler(d Deps) *Handler {
	dashboard := d.Dashboard
	if dashboard == nil {
		dashboard = services.NewDashboardService(d.Repos.Appointments)
	}
	nutrition := d.Nutrition
	if nutrition == nil {
		nutrition = services.NewNutritionClient("", "", "")
	}
	return &Handler{
		repos:        d.Repos,
		tokens:       d.Tokens,
		revocations:  d.Revocations,
		gates:        middleware.NewGates(d.Repos),
		auth:         middleware.NewAuthenticator(d.Tokens, d.Revocations),
		dashboard:    dashboard,
		nutrition:    nutrition,
		uploader:     d.Uploader,
		notifier:     d.Notifier,
		cookieSecure: d.CookieSecure,
	}
}

func objectIDParam(c *gin.Context, name, what string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		return primitive.NilObjectID, apperr.Validation("Invalid " + what + " ID")
	}
	return id, nil
}
