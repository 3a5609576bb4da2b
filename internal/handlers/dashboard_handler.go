package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/harentsoaR/medico-api/internal/response"
)

// Dashboard returns the calling organization's appointment summary.
func (h *Handler) Dashboard(c *gin.Context) {
	org, err := currentOrganization(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	dashboard, err := h.dashboard.Build(c.Request.Context(), org.GetEmail())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, dashboard)
}
