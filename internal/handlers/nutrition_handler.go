package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/medico-api/internal/apperr"
	"github.com/harentsoaR/medico-api/internal/response"
	"github.com/harentsoaR/medico-api/internal/services"
)

type foodQuery struct {
	Query string `json:"query"`
}

// SearchFood relays ?query= to the instant food search.
func (h *Handler) SearchFood(c *gin.Context) {
	results, err := h.nutrition.SearchInstant(c.Request.Context(), c.Query("query"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, results)
}

func (h *Handler) FoodNutrients(c *gin.Context) {
	var req foodQuery
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperr.ValidationWrap("Invalid request body", err))
		return
	}
	foods, err := h.nutrition.Nutrients(c.Request.Context(), req.Query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"foods": foods})
}

func (h *Handler) ExerciseCalories(c *gin.Context) {
	var req services.ExerciseQuery
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperr.ValidationWrap("Invalid request body", err))
		return
	}
	exercises, err := h.nutrition.Exercise(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, gin.H{"exercises": exercises})
}

// FoodByUPC looks up a packaged food by barcode from ?upc=.
func (h *Handler) FoodByUPC(c *gin.Context) {
	item, err := h.nutrition.ItemByUPC(c.Request.Context(), c.Query("upc"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, item)
}

// DailyCalories is computed locally; it never calls out.
func (h *Handler) DailyCalories(c *gin.Context) {
	var in services.CalorieInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, apperr.ValidationWrap("Invalid request body", err))
		return
	}
	result, err := services.DailyCalories(in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, result)
}
