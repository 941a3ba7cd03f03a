package dashboard

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/beauty-api/internal/middleware"
	"github.com/jwalitptl/beauty-api/internal/service/dashboard"
	"github.com/jwalitptl/beauty-api/pkg/auth"
	"github.com/jwalitptl/beauty-api/pkg/httputil"
)

type Handler struct {
	service dashboard.DashboardServicer
}

func NewHandler(service dashboard.DashboardServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(_, protected *gin.RouterGroup) {
	protected.GET("/dashboard", middleware.RequireKind(auth.SubjectUser), h.GetDashboard)
}

func (h *Handler) GetDashboard(c *gin.Context) {
	d, err := h.service.GetDashboard(c.Request.Context(), middleware.CurrentPrincipal(c).ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, d)
}
