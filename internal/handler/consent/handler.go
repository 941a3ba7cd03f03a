package consent

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/beauty-api/internal/handler"
	"github.com/jwalitptl/beauty-api/internal/middleware"
	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/service/consent"
	"github.com/jwalitptl/beauty-api/pkg/auth"
	apperrors "github.com/jwalitptl/beauty-api/pkg/errors"
	"github.com/jwalitptl/beauty-api/pkg/httputil"
)

type Handler struct {
	service consent.ConsentServicer
}

func NewHandler(service consent.ConsentServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(_, protected *gin.RouterGroup) {
	protected.GET("/consent-templates/:id", h.GetTemplate)

	templates := protected.Group("/clinics/:id/consent-templates", middleware.RequireClinicAccess("id"))
	{
		templates.GET("", h.ListTemplates)
		templates.POST("", h.CreateTemplate)
		templates.PUT("/:templateId", h.UpdateTemplate)
	}
	protected.GET("/clinics/:id/consents", middleware.RequireClinicAccess("id"), h.ListClinicConsents)

	consents := protected.Group("/consents")
	{
		consents.POST("", middleware.RequireKind(auth.SubjectUser), h.Submit)
		consents.GET("", h.ListConsents)
		consents.GET("/:id", h.GetConsent)

		staff := consents.Group("", middleware.RequireKind(auth.SubjectClinic, auth.SubjectProfessional))
		staff.POST("/:id/approve", h.Approve)
		staff.POST("/:id/reject", h.Reject)
	}
}

func (h *Handler) GetTemplate(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	tpl, err := h.service.GetTemplate(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, tpl)
}

func (h *Handler) ListTemplates(c *gin.Context) {
	clinicID, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	templates, err := h.service.ListTemplates(c.Request.Context(), clinicID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, templates)
}

func (h *Handler) CreateTemplate(c *gin.Context) {
	clinicID, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.CreateConsentTemplateRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	tpl, err := h.service.CreateTemplate(c.Request.Context(), clinicID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithCreated(c, tpl)
}

func (h *Handler) UpdateTemplate(c *gin.Context) {
	clinicID, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	id, ok := handler.ParamUUID(c, "templateId")
	if !ok {
		return
	}
	var req model.UpdateConsentTemplateRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	tpl, err := h.service.UpdateTemplate(c.Request.Context(), clinicID, id, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, tpl)
}

func (h *Handler) Submit(c *gin.Context) {
	var req model.SubmitConsentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	pc, err := h.service.Submit(c.Request.Context(), middleware.CurrentPrincipal(c).ID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithCreated(c, pc)
}

func (h *Handler) GetConsent(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	pc, err := h.service.GetConsent(c.Request.Context(), middleware.CurrentPrincipal(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, pc)
}

// ListConsents scopes the listing to the caller: customers see their own
// consents, staff see their clinic's.
func (h *Handler) ListConsents(c *gin.Context) {
	filters, ok := consentFilters(c)
	if !ok {
		return
	}
	p := middleware.CurrentPrincipal(c)
	if p.Kind == auth.SubjectUser {
		filters.UserID = &p.ID
	} else {
		filters.ClinicID = p.ClinicID
	}
	h.list(c, filters)
}

func (h *Handler) ListClinicConsents(c *gin.Context) {
	clinicID, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	filters, ok := consentFilters(c)
	if !ok {
		return
	}
	filters.ClinicID = &clinicID
	h.list(c, filters)
}

func (h *Handler) list(c *gin.Context, filters *model.ConsentFilters) {
	consents, err := h.service.ListConsents(c.Request.Context(), filters)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, consents)
}

func (h *Handler) Approve(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	pc, err := h.service.Approve(c.Request.Context(), middleware.CurrentPrincipal(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, pc)
}

func (h *Handler) Reject(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.ReviewConsentRequest
	if c.Request.ContentLength != 0 && !handler.BindJSON(c, &req) {
		return
	}

	pc, err := h.service.Reject(c.Request.Context(), middleware.CurrentPrincipal(c), id, req.Reason)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, pc)
}

func consentFilters(c *gin.Context) (*model.ConsentFilters, bool) {
	treatmentID, ok := handler.QueryUUID(c, "treatment_id")
	if !ok {
		return nil, false
	}
	filters := &model.ConsentFilters{TreatmentID: treatmentID}

	if raw := c.Query("status"); raw != "" {
		status := model.ConsentStatus(strings.ToUpper(raw))
		switch status {
		case model.ConsentPending, model.ConsentSigned, model.ConsentApproved, model.ConsentRejected:
			filters.Status = status
		default:
			_ = c.Error(apperrors.Validation("invalid status", nil))
			return nil, false
		}
	}
	return filters, true
}
