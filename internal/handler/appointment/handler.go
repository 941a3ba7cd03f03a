package appointment

import (
	"context"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/beauty-api/internal/handler"
	"github.com/jwalitptl/beauty-api/internal/middleware"
	"github.com/jwalitptl/beauty-api/internal/model"
	"github.com/jwalitptl/beauty-api/internal/service/appointment"
	"github.com/jwalitptl/beauty-api/pkg/auth"
	apperrors "github.com/jwalitptl/beauty-api/pkg/errors"
	"github.com/jwalitptl/beauty-api/pkg/httputil"
)

const dateLayout = "2006-01-02"

type Handler struct {
	service appointment.AppointmentServicer
}

func NewHandler(service appointment.AppointmentServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(_, protected *gin.RouterGroup) {
	appointments := protected.Group("/appointments")
	{
		appointments.POST("", middleware.RequireKind(auth.SubjectUser), h.BookAppointment)
		appointments.GET("", h.ListAppointments)
		appointments.GET("/:id", h.GetAppointment)
		appointments.POST("/:id/cancel", h.CancelAppointment)

		staff := appointments.Group("", middleware.RequireKind(auth.SubjectClinic, auth.SubjectProfessional))
		staff.POST("/:id/confirm", h.transition(h.service.ConfirmAppointment))
		staff.POST("/:id/start", h.transition(h.service.StartAppointment))
		staff.POST("/:id/complete", h.transition(h.service.CompleteAppointment))
	}

	protected.GET("/clinics/:id/appointments", middleware.RequireClinicAccess("id"), h.ListClinicAppointments)
}

func (h *Handler) BookAppointment(c *gin.Context) {
	var req model.CreateAppointmentRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	a, err := h.service.BookAppointment(c.Request.Context(), middleware.CurrentPrincipal(c).ID, &req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithCreated(c, a)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}

	a, err := h.service.GetAppointment(c.Request.Context(), middleware.CurrentPrincipal(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, a)
}

// ListAppointments returns the caller's own bookings, or the clinic's
// schedule for staff.
func (h *Handler) ListAppointments(c *gin.Context) {
	filters, ok := appointmentFilters(c)
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

func (h *Handler) ListClinicAppointments(c *gin.Context) {
	clinicID, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	filters, ok := appointmentFilters(c)
	if !ok {
		return
	}
	filters.ClinicID = &clinicID
	h.list(c, filters)
}

func (h *Handler) list(c *gin.Context, filters *model.AppointmentFilters) {
	appointments, total, err := h.service.ListAppointments(c.Request.Context(), filters)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithPagination(c, appointments, filters.Page, filters.PageSize, total)
}

type transitionFunc func(ctx context.Context, principal *model.Principal, id uuid.UUID) (*model.Appointment, error)

func (h *Handler) transition(fn transitionFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := handler.ParamUUID(c, "id")
		if !ok {
			return
		}

		a, err := fn(c.Request.Context(), middleware.CurrentPrincipal(c), id)
		if err != nil {
			_ = c.Error(err)
			return
		}
		httputil.RespondWithSuccess(c, a)
	}
}

func (h *Handler) CancelAppointment(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req model.CancelAppointmentRequest
	if c.Request.ContentLength != 0 && !handler.BindJSON(c, &req) {
		return
	}

	a, err := h.service.CancelAppointment(c.Request.Context(), middleware.CurrentPrincipal(c), id, req.Reason)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, a)
}

func appointmentFilters(c *gin.Context) (*model.AppointmentFilters, bool) {
	page, ok := handler.Pagination(c)
	if !ok {
		return nil, false
	}
	professionalID, ok := handler.QueryUUID(c, "professional_id")
	if !ok {
		return nil, false
	}
	filters := &model.AppointmentFilters{
		ProfessionalID: professionalID,
		Pagination:     page,
	}

	if raw := c.Query("status"); raw != "" {
		status := model.AppointmentStatus(strings.ToUpper(raw))
		switch status {
		case model.AppointmentPending, model.AppointmentConfirmed, model.AppointmentInProgress,
			model.AppointmentCompleted, model.AppointmentCancelled:
			filters.Status = status
		default:
			_ = c.Error(apperrors.Validation("invalid status", nil))
			return nil, false
		}
	}
	if filters.From, ok = queryDate(c, "from"); !ok {
		return nil, false
	}
	if filters.To, ok = queryDate(c, "to"); !ok {
		return nil, false
	}
	if filters.From != nil && filters.To != nil && filters.To.Before(*filters.From) {
		_ = c.Error(apperrors.Validation("to must not be before from", nil))
		return nil, false
	}
	return filters, true
}

func queryDate(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		_ = c.Error(apperrors.Validation("invalid "+name+", expected YYYY-MM-DD", err))
		return nil, false
	}
	return &d, true
}
