package repository

import (
	"context"
	"errors"

	"github.com/adiprasetyo/kalkulo/internal/api"
	"github.com/adiprasetyo/kalkulo/internal/models"
)

// HistoryRepository wraps the history CRUD and investment-type capabilities.
type HistoryRepository struct {
	client *api.Client
}

// NewHistoryRepository creates a HistoryRepository.
func NewHistoryRepository(client *api.Client) *HistoryRepository {
	return &HistoryRepository{client: client}
}

// GetHistory lists the caller's saved calculations.
func (r *HistoryRepository) GetHistory(ctx context.Context, token string) ([]models.History, error) {
	resp, err := r.client.GetHistory(ctx, api.Bearer(token))
	if err != nil {
		return nil, err
	}

	if !resp.OK() {
		return nil, errors.New("Failed to load history")
	}

	return resp.Body.Data, nil
}

// SaveHistory persists a calculation tagged with an investment type. The
// payload carries no entity, so success is a fixed confirmation string.
func (r *HistoryRepository) SaveHistory(ctx context.Context, token string, req models.SaveHistoryRequest) (string, error) {
	resp, err := r.client.SaveHistory(ctx, api.Bearer(token), req)
	if err != nil {
		return "", err
	}

	if !resp.StatusOK() {
		return "", errors.New("Failed to save history")
	}

	return "History saved successfully", nil
}

// UpdateHistory replaces the editable fields of one record.
func (r *HistoryRepository) UpdateHistory(ctx context.Context, token string, id int, req models.SaveHistoryRequest) (string, error) {
	resp, err := r.client.UpdateHistory(ctx, api.Bearer(token), id, req)
	if err != nil {
		return "", err
	}

	if !resp.StatusOK() {
		return "", errors.New("Failed to update history")
	}

	return "History updated successfully", nil
}

// DeleteHistory removes one record.
func (r *HistoryRepository) DeleteHistory(ctx context.Context, token string, id int) (string, error) {
	resp, err := r.client.DeleteHistory(ctx, api.Bearer(token), id)
	if err != nil {
		return "", err
	}

	if !resp.StatusOK() {
		return "", errors.New("Failed to delete history")
	}

	return "History deleted successfully", nil
}

// GetInvestmentTypes lists the investment-type reference data.
func (r *HistoryRepository) GetInvestmentTypes(ctx context.Context, token string) ([]models.InvestmentType, error) {
	resp, err := r.client.GetInvestmentTypes(ctx, api.Bearer(token))
	if err != nil {
		return nil, err
	}

	if !resp.OK() {
		return nil, errors.New("Failed to load investment types")
	}

	return resp.Body.Data, nil
}
