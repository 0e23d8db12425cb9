package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-service/internal/services"
	"github.com/SAP-F-2025/exam-service/internal/utils"
)

type DashboardHandler struct {
	BaseHandler
	service services.DashboardService
}

func NewDashboardHandler(service services.DashboardService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetOverview returns totals, the question type distribution and recent imports
// @Summary Get dashboard overview
// @Tags dashboard
// @Produce json
// @Success 200 {object} services.DashboardOverview
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /admin/dashboard [get]
func (h *DashboardHandler) GetOverview(c *gin.Context) {
	h.LogRequest(c, "Getting dashboard overview")

	overview, err := h.service.Overview(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}
