package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/medico-api/internal/middleware"
	"github.com/harentsoaR/medico-api/internal/models"
)

// accountRoutes mounts login, logout and the profile routes of one actor
// kind, plus self-registration when register is set.
func accountRoutes[T models.Actor](rg *gin.RouterGroup, a *accounts[T], guard gin.HandlerFunc, register bool) {
	if register {
		rg.POST("/register", a.Register)
	}
	rg.POST("/login", a.Login)
	rg.POST("/logout", guard, a.Logout)
	rg.GET("/me", guard, a.Me)
	rg.PUT("/me", guard, a.UpdateMe)
}

// Router builds the gin engine with every route mounted.
func (h *Handler) Router(allowOrigins []string) *gin.Engine {
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:5173"}
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Medico API is running")
	})

	g := h.gates
	auth := h.auth
	orgOnly := auth.AuthenticateOrganization(g.Hospital, g.Clinic)
	anyone := auth.ResolveAny(g.All()...)
	participant := auth.ResolveAny(g.Participants()...)

	api := r.Group("/api")
	api.GET("/token/validate", anyone, h.ValidateToken)

	users := newAccounts(h, h.repos.Users, g.User, func() *models.User { return &models.User{} })
	accountRoutes(api.Group("/users"), users, auth.Authenticate(g.User), true)

	hospitals := newAccounts(h, h.repos.Hospitals, g.Hospital, func() *models.Hospital { return &models.Hospital{} })
	accountRoutes(api.Group("/hospitals"), hospitals, auth.Authenticate(g.Hospital), true)

	clinics := newAccounts(h, h.repos.Clinics, g.Clinic, func() *models.Clinic { return &models.Clinic{} })
	accountRoutes(api.Group("/clinics"), clinics, auth.Authenticate(g.Clinic), true)

	consultants := newAccounts(h, h.repos.Consultants, g.Consultant, func() *models.Consultant { return &models.Consultant{} })
	accountRoutes(api.Group("/consultants"), consultants, auth.Authenticate(g.Consultant), true)

	doctors := newAccounts[*models.Doctor](h, h.repos.Doctors, g.Doctor, func() *models.Doctor { return &models.Doctor{} })
	doctors.freeze = freezeDoctor
	doctorRoutes := api.Group("/doctors")
	accountRoutes(doctorRoutes, doctors, auth.Authenticate(g.Doctor), false)
	doctorRoutes.POST("/add", orgOnly, h.AddDoctor)
	doctorRoutes.GET("", orgOnly, h.ListOwnDoctors)
	doctorRoutes.GET("/organization/:organizationId", h.ListOrganizationDoctors)
	doctorRoutes.DELETE("/delete/:id", orgOnly, h.DeleteDoctor)

	search := api.Group("/search")
	search.POST("/doctors/nearby", nearby[*models.Doctor](h.repos.Doctors))
	search.POST("/hospitals/nearby", nearby(h.repos.Hospitals))
	search.POST("/clinics/nearby", nearby(h.repos.Clinics))
	search.POST("/consultants/nearby", nearby(h.repos.Consultants))

	appointments := api.Group("/appointments")
	appointments.POST("/create", auth.Authenticate(g.User), h.CreateAppointment)
	appointments.GET("/all", orgOnly, h.ListAppointments)
	appointments.GET("/:id", participant, h.GetAppointment)
	appointments.PATCH("/update/:id", participant, h.UpdateAppointmentStatus)
	appointments.DELETE("/delete/:id", orgOnly, h.DeleteAppointment)

	reviews := api.Group("/reviews")
	reviews.POST("/create", h.CreateReview)
	reviews.GET("/all", h.ListReviews)
	reviews.GET("/entity/:type/:email", h.ListEntityReviews)
	reviews.PATCH("/update/:id", anyone, h.UpdateReview)
	reviews.DELETE("/delete/:id", anyone, h.DeleteReview)

	api.GET("/dashboard", orgOnly, h.Dashboard)

	health := api.Group("/health")
	health.GET("/search", h.SearchFood)
	health.POST("/nutrients", h.FoodNutrients)
	health.POST("/exercise", h.ExerciseCalories)
	health.GET("/upc", h.FoodByUPC)
	health.POST("/calories", h.DailyCalories)

	return r
}
