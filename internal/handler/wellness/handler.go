package wellness

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/beauty-api/internal/handler"
	"github.com/jwalitptl/beauty-api/internal/middleware"
	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/service/wellness"
	"github.com/jwalitptl/beauty-api/pkg/auth"
	apperrors "github.com/jwalitptl/beauty-api/pkg/errors"
	"github.com/jwalitptl/beauty-api/pkg/httputil"
)

type Handler struct {
	service wellness.WellnessServicer
}

func NewHandler(service wellness.WellnessServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(_, protected *gin.RouterGroup) {
	tips := protected.Group("/wellness-tips")
	{
		tips.GET("", h.ListTips)
		tips.GET("/latest", h.Latest)
		tips.POST("", middleware.RequireKind(auth.SubjectClinic), h.CreateTip)
	}
}

// Latest answers with null data when no tip is published
func (h *Handler) Latest(c *gin.Context) {
	tip, err := h.service.Latest(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, tip)
}

func (h *Handler) ListTips(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			_ = c.Error(apperrors.Validation("invalid limit", err))
			return
		}
		limit = n
	}

	tips, err := h.service.ListTips(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, tips)
}

func (h *Handler) CreateTip(c *gin.Context) {
	var req model.CreateWellnessTipRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	tip, err := h.service.CreateTip(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithCreated(c, tip)
}
