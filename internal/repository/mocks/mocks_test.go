package mocks

import (
	"github.com/jwalitptl/beauty-api/internal/repository"
)

var (
	_ repository.ClinicRepository       = (*ClinicRepository)(nil)
	_ repository.UserRepository         = (*UserRepository)(nil)
	_ repository.ProfessionalRepository = (*ProfessionalRepository)(nil)
	_ repository.TreatmentRepository    = (*TreatmentRepository)(nil)
	_ repository.ConsentRepository      = (*ConsentRepository)(nil)
	_ repository.AppointmentRepository  = (*AppointmentRepository)(nil)
	_ repository.VIPRepository          = (*VIPRepository)(nil)
	_ repository.WellnessRepository     = (*WellnessRepository)(nil)
	_ repository.OutboxRepository       = (*OutboxRepository)(nil)
)
