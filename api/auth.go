package api

import (
	"context"
	"net/http"
)

// AuthService covers /auth
type AuthService struct {
	client *Client
}

// Register creates an account. It does not sign in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) error {
	return s.client.Do(ctx, http.MethodPost, "/auth/register", req, nil)
}

// Login exchanges credentials for a bearer token
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var resp LoginResponse
	if err := s.client.Do(ctx, http.MethodPost, "/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ValidateToken asks the backend whether token is still accepted
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*ValidateResponse, error) {
	var resp ValidateResponse
	if err := s.client.doWithToken(ctx, http.MethodGet, "/auth/validate-token", token, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
