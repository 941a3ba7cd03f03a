package professional

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/beauty-api/internal/handler"
	"github.com/jwalitptl/beauty-api/internal/middleware"
	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/service/professional"
	"github.com/jwalitptl/beauty-api/pkg/auth"
	apperrors "github.com/jwalitptl/beauty-api/pkg/errors"
	"github.com/jwalitptl/beauty-api/pkg/httputil"
)

type Handler struct {
	service professional.ProfessionalServicer
}

func NewHandler(service professional.ProfessionalServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/clinics/:id/professionals", h.ListProfessionals)

	admin := protected.Group("/clinics/:id/professionals", middleware.RequireClinicAccess("id"))
	{
		// only the clinic account hires staff
		admin.POST("", middleware.RequireKind(auth.SubjectClinic), h.CreateProfessional)
		admin.GET("/:professionalId", h.GetProfessional)
		admin.PUT("/:professionalId", h.UpdateProfessional)
	}
}

func (h *Handler) ListProfessionals(c *gin.Context) {
	clinicID, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	professionals, err := h.service.ListProfessionals(c.Request.Context(), clinicID, true)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, professionals)
}

func (h *Handler) CreateProfessional(c *gin.Context) {
	clinicID, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.CreateProfessionalRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	p, err := h.service.CreateProfessional(c.Request.Context(), clinicID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithCreated(c, p)
}

func (h *Handler) GetProfessional(c *gin.Context) {
	clinicID, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	id, ok := handler.ParamUUID(c, "professionalId")
	if !ok {
		return
	}

	p, err := h.service.GetProfessional(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if p.ClinicID != clinicID {
		_ = c.Error(apperrors.NotFound("professional", nil))
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) UpdateProfessional(c *gin.Context) {
	clinicID, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	id, ok := handler.ParamUUID(c, "professionalId")
	if !ok {
		return
	}
	var req model.UpdateProfessionalRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	p, err := h.service.UpdateProfessional(c.Request.Context(), clinicID, id, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}
