package vip

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/beauty-api/internal/handler"
	"github.com/jwalitptl/beauty-api/internal/middleware"
	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/service/vip"
	"github.com/jwalitptl/beauty-api/pkg/auth"
	"github.com/jwalitptl/beauty-api/pkg/httputil"
)

type Handler struct {
	service vip.VIPServicer
}

func NewHandler(service vip.VIPServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(_, protected *gin.RouterGroup) {
	subs := protected.Group("/vip/subscriptions", middleware.RequireKind(auth.SubjectUser))
	{
		subs.POST("", h.Subscribe)
		subs.GET("", h.ListSubscriptions)
		subs.POST("/:id/cancel", h.Cancel)
	}
}

func (h *Handler) Subscribe(c *gin.Context) {
	var req model.SubscribeVIPRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	sub, err := h.service.Subscribe(c.Request.Context(), middleware.CurrentPrincipal(c).ID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithCreated(c, sub)
}

func (h *Handler) ListSubscriptions(c *gin.Context) {
	subs, err := h.service.ListSubscriptions(c.Request.Context(), middleware.CurrentPrincipal(c).ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, subs)
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	sub, err := h.service.Cancel(c.Request.Context(), middleware.CurrentPrincipal(c).ID, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, sub)
}
