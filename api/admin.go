package api

import (
	"context"
	"net/http"
	"net/url"
)

// AdminService covers /admin
type AdminService struct {
	client *Client
}

// ListPatients returns every patient account
func (s *AdminService) ListPatients(ctx context.Context) ([]Patient, error) {
	var patients []Patient
	if err := s.client.Do(ctx, http.MethodGet, "/admin/patients", nil, &patients); err != nil {
		return nil, err
	}
	return patients, nil
}

// PatientChats returns the stored conversations of one patient
func (s *AdminService) PatientChats(ctx context.Context, patientID string) ([]PatientChat, error) {
	var chats []PatientChat
	path := "/admin/patients/" + url.PathEscape(patientID) + "/chats"
	if err := s.client.Do(ctx, http.MethodGet, path, nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}
