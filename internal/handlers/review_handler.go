package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medico-api/internal/apperr"
	"github.com/harentsoaR/medico-api/internal/middleware"
	"github.com/harentsoaR/medico-api/internal/models"
	"github.com/harentsoaR/medico-api/internal/response"
	"github.com/harentsoaR/medico-api/internal/store"
)

// CreateReview records a review. Without a reviewerEmail it is filed as a
// guest review.
func (h *Handler) CreateReview(c *gin.Context) {
	var review models.Review
	if err := c.ShouldBindJSON(&review); err != nil {
		response.Error(c, apperr.ValidationWrap("Invalid request body", err))
		return
	}
	review.ID = primitive.NilObjectID
	review.UserType = ""

	if err := h.repos.Reviews.Create(c.Request.Context(), &review); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusCreated, "Review created successfully", review)
}

func (h *Handler) ListReviews(c *gin.Context) {
	reviews, err := h.repos.Reviews.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, nonNilReviews(reviews))
}

func (h *Handler) ListEntityReviews(c *gin.Context) {
	reviews, err := h.repos.Reviews.ListByEntity(c.Request.Context(), c.Param("type"), models.NormalizeEmail(c.Param("email")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, nonNilReviews(reviews))
}

func nonNilReviews(reviews []models.Review) []models.Review {
	if reviews == nil {
		return []models.Review{}
	}
	return reviews
}

// ownReview loads the :id review and checks the resolved caller wrote it.
// Guest reviews have no owner and cannot be changed.
func (h *Handler) ownReview(c *gin.Context) (*models.Review, error) {
	actor, _, ok := middleware.ResolvedActor(c)
	if !ok {
		return nil, apperr.Unauthenticated("No token provided")
	}
	id, err := objectIDParam(c, "id", "review")
	if err != nil {
		return nil, err
	}
	review, err := h.repos.Reviews.FindByID(c.Request.Context(), id)
	if err != nil {
		return nil, err
	}
	if review.ReviewerEmail != actor.GetEmail() {
		return nil, apperr.Forbidden("Not allowed to modify this review")
	}
	return review, nil
}

func (h *Handler) UpdateReview(c *gin.Context) {
	review, err := h.ownReview(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var patch store.ReviewPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.Error(c, apperr.ValidationWrap("Invalid request body", err))
		return
	}
	updated, err := h.repos.Reviews.Update(c.Request.Context(), review.ID, patch)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Review updated successfully", updated)
}

func (h *Handler) DeleteReview(c *gin.Context) {
	review, err := h.ownReview(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.repos.Reviews.Delete(c.Request.Context(), review.ID); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, http.StatusOK, "Review deleted successfully", nil)
}
