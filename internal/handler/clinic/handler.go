package clinic

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/beauty-api/internal/handler"
	"github.com/jwalitptl/beauty-api/internal/middleware"
	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/service/clinic"
	"github.com/jwalitptl/beauty-api/pkg/auth"
	"github.com/jwalitptl/beauty-api/pkg/httputil"
)

type Handler struct {
	service clinic.ClinicServicer
}

func NewHandler(service clinic.ClinicServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	clinics := public.Group("/clinics")
	{
		clinics.POST("", h.CreateClinic)
		clinics.GET("", h.ListClinics)
		clinics.GET("/slug/:slug", h.GetClinicBySlug)
		clinics.GET("/:id", h.GetClinic)
	}

	admin := protected.Group("/clinics/:id", middleware.RequireClinicAccess("id"))
	{
		admin.PUT("", h.UpdateClinic)
		admin.DELETE("", middleware.RequireKind(auth.SubjectClinic), h.DeactivateClinic)
	}
}

// CreateClinic is the clinic sign-up; the returned clinic logs in with kind "clinic"
func (h *Handler) CreateClinic(c *gin.Context) {
	var req model.CreateClinicRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	clinic, err := h.service.CreateClinic(c.Request.Context(), &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithCreated(c, clinic)
}

func (h *Handler) GetClinic(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	clinic, err := h.service.GetClinic(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, clinic)
}

func (h *Handler) GetClinicBySlug(c *gin.Context) {
	clinic, err := h.service.GetClinicBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, clinic)
}

func (h *Handler) ListClinics(c *gin.Context) {
	page, ok := handler.Pagination(c)
	if !ok {
		return
	}

	filters := &model.ClinicFilters{
		City:       strings.TrimSpace(c.Query("city")),
		ActiveOnly: true,
		Pagination: page,
	}
	clinics, total, err := h.service.ListClinics(c.Request.Context(), filters)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithPagination(c, clinics, page.Page, page.PageSize, total)
}

func (h *Handler) UpdateClinic(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.UpdateClinicRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	clinic, err := h.service.UpdateClinic(c.Request.Context(), id, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, clinic)
}

func (h *Handler) DeactivateClinic(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeactivateClinic(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"id": id, "is_active": false})
}
