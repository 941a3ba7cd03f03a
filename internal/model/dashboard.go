package model

// DashboardTreatmentLimit caps the recommended treatments on the dashboard
const DashboardTreatmentLimit = 6

// Dashboard is the composed home screen for a user. NextAppointment and
// WellnessTip are null when nothing qualifies.
type Dashboard struct {
	User             *User              `json:"user"`
	VIPSubscriptions []VIPSubscription  `json:"vip_subscriptions"`
	NextAppointment  *AppointmentDetail `json:"next_appointment"`
	Treatments       []Treatment        `json:"treatments"`
	WellnessTip      *WellnessTip       `json:"wellness_tip"`
}
