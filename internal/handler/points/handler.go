package points

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/beauty-api/internal/middleware"
	"github.com/jwalitptl/beauty-api/internal/service/points"
	"github.com/jwalitptl/beauty-api/pkg/auth"
	"github.com/jwalitptl/beauty-api/pkg/httputil"
)

type Handler struct {
	service points.PointsServicer
}

func NewHandler(service points.PointsServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(_, protected *gin.RouterGroup) {
	protected.GET("/points", middleware.RequireKind(auth.SubjectUser), h.GetLedger)
}

func (h *Handler) GetLedger(c *gin.Context) {
	ledger, err := h.service.GetLedger(c.Request.Context(), middleware.CurrentPrincipal(c).ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, ledger)
}
