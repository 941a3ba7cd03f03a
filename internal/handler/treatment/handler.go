package treatment

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/beauty-api/internal/handler"
	"github.com/jwalitptl/beauty-api/internal/middleware"
	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/service/treatment"
	"github.com/jwalitptl/beauty-api/pkg/httputil"
)

type Handler struct {
	service treatment.TreatmentServicer
}

func NewHandler(service treatment.TreatmentServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/treatments/:id", h.GetTreatment)
	public.GET("/clinics/:id/treatments", h.ListTreatments)

	admin := protected.Group("/clinics/:id/treatments", middleware.RequireClinicAccess("id"))
	{
		admin.POST("", h.CreateTreatment)
		admin.PUT("/:treatmentId", h.UpdateTreatment)
	}
}

func (h *Handler) GetTreatment(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	t, err := h.service.GetTreatment(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, t)
}

// ListTreatments is the public catalog of a clinic. VIP-only treatments are
// listed so customers can see what membership unlocks.
func (h *Handler) ListTreatments(c *gin.Context) {
	clinicID, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	featured, ok := handler.QueryBool(c, "featured", false)
	if !ok {
		return
	}

	filters := &model.TreatmentFilters{
		ClinicID:     &clinicID,
		Category:     strings.ToLower(strings.TrimSpace(c.Query("category"))),
		ActiveOnly:   true,
		FeaturedOnly: featured,
		IncludeVIP:   true,
	}
	treatments, err := h.service.ListTreatments(c.Request.Context(), filters)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, treatments)
}

func (h *Handler) CreateTreatment(c *gin.Context) {
	clinicID, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.CreateTreatmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	t, err := h.service.CreateTreatment(c.Request.Context(), clinicID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithCreated(c, t)
}

func (h *Handler) UpdateTreatment(c *gin.Context) {
	clinicID, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	id, ok := handler.ParamUUID(c, "treatmentId")
	if !ok {
		return
	}
	var req model.UpdateTreatmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	t, err := h.service.UpdateTreatment(c.Request.Context(), clinicID, id, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, t)
}
