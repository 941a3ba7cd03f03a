// Package mocks provides testify mocks of the repository interfaces.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/beauty-api/internal/model"
)

// ClinicRepository implements repository.ClinicRepository
type ClinicRepository struct {
	mock.Mock
}

func (m *ClinicRepository) Create(ctx context.Context, clinic *model.Clinic) error {
	return m.Called(ctx, clinic).Error(0)
}

func (m *ClinicRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	args := m.Called(ctx, id)
	return clinicArg(args, 0), args.Error(1)
}

func (m *ClinicRepository) GetBySlug(ctx context.Context, slug string) (*model.Clinic, error) {
	args := m.Called(ctx, slug)
	return clinicArg(args, 0), args.Error(1)
}

func (m *ClinicRepository) GetByEmail(ctx context.Context, email string) (*model.Clinic, error) {
	args := m.Called(ctx, email)
	return clinicArg(args, 0), args.Error(1)
}

func (m *ClinicRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *ClinicRepository) List(ctx context.Context, filters *model.ClinicFilters) ([]*model.Clinic, int, error) {
	args := m.Called(ctx, filters)
	clinics, _ := args.Get(0).([]*model.Clinic)
	return clinics, args.Int(1), args.Error(2)
}

func (m *ClinicRepository) Update(ctx context.Context, clinic *model.Clinic) error {
	return m.Called(ctx, clinic).Error(0)
}

func clinicArg(args mock.Arguments, i int) *model.Clinic {
	v, _ := args.Get(i).(*model.Clinic)
	return v
}

// UserRepository implements repository.UserRepository
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepository) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

// ProfessionalRepository implements repository.ProfessionalRepository
type ProfessionalRepository struct {
	mock.Mock
}

func (m *ProfessionalRepository) Create(ctx context.Context, p *model.Professional) error {
	return m.Called(ctx, p).Error(0)
}

func (m *ProfessionalRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Professional, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*model.Professional)
	return p, args.Error(1)
}

func (m *ProfessionalRepository) GetByEmail(ctx context.Context, email string) (*model.Professional, error) {
	args := m.Called(ctx, email)
	p, _ := args.Get(0).(*model.Professional)
	return p, args.Error(1)
}

func (m *ProfessionalRepository) ListByClinic(ctx context.Context, clinicID uuid.UUID, activeOnly bool) ([]*model.Professional, error) {
	args := m.Called(ctx, clinicID, activeOnly)
	out, _ := args.Get(0).([]*model.Professional)
	return out, args.Error(1)
}

func (m *ProfessionalRepository) Update(ctx context.Context, p *model.Professional) error {
	return m.Called(ctx, p).Error(0)
}

// TreatmentRepository implements repository.TreatmentRepository
type TreatmentRepository struct {
	mock.Mock
}

func (m *TreatmentRepository) Create(ctx context.Context, t *model.Treatment) error {
	return m.Called(ctx, t).Error(0)
}

func (m *TreatmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Treatment, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*model.Treatment)
	return t, args.Error(1)
}

func (m *TreatmentRepository) List(ctx context.Context, filters *model.TreatmentFilters) ([]*model.Treatment, error) {
	args := m.Called(ctx, filters)
	out, _ := args.Get(0).([]*model.Treatment)
	return out, args.Error(1)
}

func (m *TreatmentRepository) Update(ctx context.Context, t *model.Treatment) error {
	return m.Called(ctx, t).Error(0)
}

// ConsentRepository implements repository.ConsentRepository
type ConsentRepository struct {
	mock.Mock
}

func (m *ConsentRepository) CreateTemplate(ctx context.Context, tpl *model.ConsentFormTemplate) error {
	return m.Called(ctx, tpl).Error(0)
}

func (m *ConsentRepository) GetTemplate(ctx context.Context, id uuid.UUID) (*model.ConsentFormTemplate, error) {
	args := m.Called(ctx, id)
	tpl, _ := args.Get(0).(*model.ConsentFormTemplate)
	return tpl, args.Error(1)
}

func (m *ConsentRepository) ListTemplates(ctx context.Context, clinicID uuid.UUID) ([]*model.ConsentFormTemplate, error) {
	args := m.Called(ctx, clinicID)
	out, _ := args.Get(0).([]*model.ConsentFormTemplate)
	return out, args.Error(1)
}

func (m *ConsentRepository) UpdateTemplate(ctx context.Context, tpl *model.ConsentFormTemplate) error {
	return m.Called(ctx, tpl).Error(0)
}

func (m *ConsentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PatientConsent, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*model.PatientConsent)
	return c, args.Error(1)
}

func (m *ConsentRepository) Latest(ctx context.Context, userID, treatmentID uuid.UUID) (*model.PatientConsent, error) {
	args := m.Called(ctx, userID, treatmentID)
	c, _ := args.Get(0).(*model.PatientConsent)
	return c, args.Error(1)
}

func (m *ConsentRepository) ValidApproval(ctx context.Context, userID, treatmentID uuid.UUID, at time.Time) (*model.PatientConsent, error) {
	args := m.Called(ctx, userID, treatmentID, at)
	c, _ := args.Get(0).(*model.PatientConsent)
	return c, args.Error(1)
}

func (m *ConsentRepository) List(ctx context.Context, filters *model.ConsentFilters) ([]*model.PatientConsent, error) {
	args := m.Called(ctx, filters)
	out, _ := args.Get(0).([]*model.PatientConsent)
	return out, args.Error(1)
}

func (m *ConsentRepository) Submit(ctx context.Context, c *model.PatientConsent, cascade model.AppointmentConsentStatus) error {
	return m.Called(ctx, c, cascade).Error(0)
}

func (m *ConsentRepository) Review(ctx context.Context, c *model.PatientConsent, cascade model.AppointmentConsentStatus, event *model.OutboxEvent) error {
	return m.Called(ctx, c, cascade, event).Error(0)
}

// AppointmentRepository implements repository.AppointmentRepository
type AppointmentRepository struct {
	mock.Mock
}

func (m *AppointmentRepository) Create(ctx context.Context, a *model.Appointment, event *model.OutboxEvent) error {
	return m.Called(ctx, a, event).Error(0)
}

func (m *AppointmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*model.Appointment)
	return a, args.Error(1)
}

func (m *AppointmentRepository) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.AppointmentDetail, int, error) {
	args := m.Called(ctx, filters)
	out, _ := args.Get(0).([]*model.AppointmentDetail)
	return out, args.Int(1), args.Error(2)
}

func (m *AppointmentRepository) HasOverlap(ctx context.Context, professionalID uuid.UUID, date time.Time, start, end string, excludeID *uuid.UUID) (bool, error) {
	args := m.Called(ctx, professionalID, date, start, end, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *AppointmentRepository) NextUpcoming(ctx context.Context, userID uuid.UUID, at time.Time) (*model.AppointmentDetail, error) {
	args := m.Called(ctx, userID, at)
	a, _ := args.Get(0).(*model.AppointmentDetail)
	return a, args.Error(1)
}

func (m *AppointmentRepository) ApplyStatusChange(ctx context.Context, change *model.StatusChange, event *model.OutboxEvent) error {
	return m.Called(ctx, change, event).Error(0)
}

func (m *AppointmentRepository) PointsHistory(ctx context.Context, userID uuid.UUID, limit int) ([]model.PointsEntry, error) {
	args := m.Called(ctx, userID, limit)
	out, _ := args.Get(0).([]model.PointsEntry)
	return out, args.Error(1)
}

// VIPRepository implements repository.VIPRepository
type VIPRepository struct {
	mock.Mock
}

func (m *VIPRepository) Create(ctx context.Context, sub *model.VIPSubscription, event *model.OutboxEvent) error {
	return m.Called(ctx, sub, event).Error(0)
}

func (m *VIPRepository) Cancel(ctx context.Context, sub *model.VIPSubscription, event *model.OutboxEvent) error {
	return m.Called(ctx, sub, event).Error(0)
}

func (m *VIPRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.VIPSubscription, error) {
	args := m.Called(ctx, id)
	sub, _ := args.Get(0).(*model.VIPSubscription)
	return sub, args.Error(1)
}

func (m *VIPRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.VIPSubscription, error) {
	args := m.Called(ctx, userID)
	out, _ := args.Get(0).([]model.VIPSubscription)
	return out, args.Error(1)
}

func (m *VIPRepository) ActiveForUser(ctx context.Context, userID uuid.UUID, at time.Time) ([]model.VIPSubscription, error) {
	args := m.Called(ctx, userID, at)
	out, _ := args.Get(0).([]model.VIPSubscription)
	return out, args.Error(1)
}

func (m *VIPRepository) HasActive(ctx context.Context, userID, clinicID uuid.UUID, at time.Time) (bool, error) {
	args := m.Called(ctx, userID, clinicID, at)
	return args.Bool(0), args.Error(1)
}

func (m *VIPRepository) ExpireDue(ctx context.Context, at time.Time) (int64, error) {
	args := m.Called(ctx, at)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}

// WellnessRepository implements repository.WellnessRepository
type WellnessRepository struct {
	mock.Mock
}

func (m *WellnessRepository) Create(ctx context.Context, tip *model.WellnessTip) error {
	return m.Called(ctx, tip).Error(0)
}

func (m *WellnessRepository) Latest(ctx context.Context) (*model.WellnessTip, error) {
	args := m.Called(ctx)
	tip, _ := args.Get(0).(*model.WellnessTip)
	return tip, args.Error(1)
}

func (m *WellnessRepository) List(ctx context.Context, limit int) ([]*model.WellnessTip, error) {
	args := m.Called(ctx, limit)
	out, _ := args.Get(0).([]*model.WellnessTip)
	return out, args.Error(1)
}

// OutboxRepository implements repository.OutboxRepository
type OutboxRepository struct {
	mock.Mock
}

func (m *OutboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *OutboxRepository) GetPendingEvents(ctx context.Context, limit int, at time.Time) ([]*model.OutboxEvent, error) {
	args := m.Called(ctx, limit, at)
	out, _ := args.Get(0).([]*model.OutboxEvent)
	return out, args.Error(1)
}

func (m *OutboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryCount int, nextRetryAt *time.Time) error {
	return m.Called(ctx, id, errMsg, retryCount, nextRetryAt).Error(0)
}

func (m *OutboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	n, _ := args.Get(0).(int64)
	return n, args.Error(1)
}
