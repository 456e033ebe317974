package repository

import (
	"context"
	"errors"

	"github.com/adiprasetyo/kalkulo/internal/api"
	"github.com/adiprasetyo/kalkulo/internal/models"
)

// CalculationRepository wraps the server-side projection capability.
type CalculationRepository struct {
	client *api.Client
}

// NewCalculationRepository creates a CalculationRepository.
func NewCalculationRepository(client *api.Client) *CalculationRepository {
	return &CalculationRepository{client: client}
}

// Calculate asks the server to project principal over years at rate.
func (r *CalculationRepository) Calculate(ctx context.Context, token string, principal, rate float64, years int) (*models.CalculationData, error) {
	resp, err := r.client.Calculate(ctx, api.Bearer(token), models.CalculationRequest{
		Principal: principal,
		Rate:      rate,
		Years:     years,
	})
	if err != nil {
		return nil, err
	}

	if !resp.OK() {
		return nil, errors.New("Calculation failed")
	}

	return &resp.Body.Data, nil
}
