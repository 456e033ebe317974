// Package repository translates domain operations into API calls and
// collapses every outcome to a plain (value, error) pair: transport faults
// keep their message, server-side failures map to a fixed message per
// operation. Repositories are stateless and safe to call concurrently.
package repository

import (
	"context"
	"errors"

	"github.com/adiprasetyo/kalkulo/internal/api"
	"github.com/adiprasetyo/kalkulo/internal/models"
)

// AuthRepository wraps the register and login capabilities.
type AuthRepository struct {
	client *api.Client
}

// NewAuthRepository creates an AuthRepository.
func NewAuthRepository(client *api.Client) *AuthRepository {
	return &AuthRepository{client: client}
}

// Register creates an account. On a server-side failure the raw error body
// is surfaced when the server sent one.
func (r *AuthRepository) Register(ctx context.Context, username, password, fullName string) (*models.AuthResponse, error) {
	resp, err := r.client.Register(ctx, models.RegisterRequest{
		Username: username,
		Password: password,
		FullName: fullName,
	})
	if err != nil {
		return nil, err
	}

	if !resp.OK() {
		if resp.ErrorBody != "" {
			return nil, errors.New(resp.ErrorBody)
		}
		return nil, errors.New("Registration failed")
	}

	return resp.Body, nil
}

// Login exchanges credentials for a token and user identity.
func (r *AuthRepository) Login(ctx context.Context, username, password string) (*models.AuthResponse, error) {
	resp, err := r.client.Login(ctx, models.LoginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	if !resp.OK() {
		return nil, errors.New("Invalid credentials")
	}

	return resp.Body, nil
}
