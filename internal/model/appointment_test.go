package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAppointmentLifecycle(t *testing.T) {
	tests := []struct {
		from AppointmentStatus
		to   AppointmentStatus
		ok   bool
	}{
		{AppointmentPending, AppointmentConfirmed, true},
		{AppointmentPending, AppointmentCancelled, true},
		{AppointmentPending, AppointmentInProgress, false},
		{AppointmentPending, AppointmentCompleted, false},
		{AppointmentConfirmed, AppointmentInProgress, true},
		{AppointmentConfirmed, AppointmentCancelled, true},
		{AppointmentConfirmed, AppointmentCompleted, false},
		{AppointmentInProgress, AppointmentCompleted, true},
		{AppointmentInProgress, AppointmentCancelled, true},
		{AppointmentInProgress, AppointmentPending, false},
		{AppointmentCompleted, AppointmentCancelled, false},
		{AppointmentCompleted, AppointmentPending, false},
		{AppointmentCancelled, AppointmentPending, false},
		{AppointmentCancelled, AppointmentConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to))
		})
	}

	assert.True(t, AppointmentCompleted.IsTerminal())
	assert.True(t, AppointmentCancelled.IsTerminal())
	assert.False(t, AppointmentPending.IsTerminal())
}

func TestConsentStatusFor(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Hour)

	required := &Treatment{ConsentFormRequired: true}

	assert.Equal(t, AppointmentConsentApproved, ConsentStatusFor(&Treatment{}, nil, now))
	assert.Equal(t, AppointmentConsentPending, ConsentStatusFor(required, nil, now))
	assert.Equal(t, AppointmentConsentCompleted,
		ConsentStatusFor(required, &PatientConsent{Status: ConsentSigned, ExpiresAt: &future}, now))
	assert.Equal(t, AppointmentConsentApproved,
		ConsentStatusFor(required, &PatientConsent{Status: ConsentApproved, ExpiresAt: &future}, now))
	assert.Equal(t, AppointmentConsentPending,
		ConsentStatusFor(required, &PatientConsent{Status: ConsentApproved, ExpiresAt: &past}, now))
	assert.Equal(t, AppointmentConsentPending,
		ConsentStatusFor(required, &PatientConsent{Status: ConsentRejected}, now))
}

func TestAppointmentStartsAt(t *testing.T) {
	a := &Appointment{
		Date:      time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		StartTime: "14:30",
	}
	assert.Equal(t, time.Date(2026, 5, 1, 14, 30, 0, 0, time.UTC), a.StartsAt(time.UTC))
}
