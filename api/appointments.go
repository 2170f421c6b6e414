package api

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// AppointmentService covers /appointments
type AppointmentService struct {
	client *Client
}

// AvailableDoctors lists doctors that accept bookings
func (s *AppointmentService) AvailableDoctors(ctx context.Context) ([]Doctor, error) {
	var doctors []Doctor
	if err := s.client.Do(ctx, http.MethodGet, "/appointments/available-doctors", nil, &doctors); err != nil {
		return nil, err
	}
	return doctors, nil
}

// UserAppointments lists the appointments of one user
func (s *AppointmentService) UserAppointments(ctx context.Context, userID string) ([]Appointment, error) {
	var appts []Appointment
	path := "/appointments/appointment/" + url.PathEscape(userID)
	if err := s.client.Do(ctx, http.MethodGet, path, nil, &appts); err != nil {
		return nil, err
	}
	return appts, nil
}

// Schedule books doctor at the given instant
func (s *AppointmentService) Schedule(ctx context.Context, doctor string, at time.Time) (*Appointment, error) {
	req := ScheduleRequest{
		DoctorName:          doctor,
		AppointmentDatetime: at.UTC().Format(time.RFC3339),
	}
	var appt Appointment
	if err := s.client.Do(ctx, http.MethodPost, "/appointments/schedule", req, &appt); err != nil {
		return nil, err
	}
	return &appt, nil
}
