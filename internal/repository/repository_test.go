package repository_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adiprasetyo/kalkulo/internal/api"
	"github.com/adiprasetyo/kalkulo/internal/logger"
	"github.com/adiprasetyo/kalkulo/internal/models"
	"github.com/adiprasetyo/kalkulo/internal/repository"
	"github.com/adiprasetyo/kalkulo/internal/testutil"
)

func setup(t *testing.T) (*testutil.Server, *api.Client) {
	server := testutil.NewServer()
	t.Cleanup(server.Close)

	client := api.NewClient(server.URL, 2*time.Second, logger.WithComponent(logger.New("error"), "api"))
	return server, client
}

func TestAuthRepositoryLogin(t *testing.T) {
	server, client := setup(t)
	server.SeedUser("alice", "correct", "Alice A")
	repo := repository.NewAuthRepository(client)
	ctx := context.Background()

	// Test case 1: valid credentials
	resp, err := repo.Login(ctx, "alice", "correct")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	require.NotNil(t, resp.User)
	assert.Equal(t, "alice", resp.User.Username)
	assert.Equal(t, "Alice A", resp.User.FullName)

	// Test case 2: wrong password collapses to the fixed message
	_, err = repo.Login(ctx, "alice", "wrong")
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", err.Error())
}

func TestAuthRepositoryRegister(t *testing.T) {
	_, client := setup(t)
	repo := repository.NewAuthRepository(client)
	ctx := context.Background()

	resp, err := repo.Register(ctx, "budi", "rahasia", "Budi Santoso")
	require.NoError(t, err)
	require.NotNil(t, resp.User)
	assert.Equal(t, "budi", resp.User.Username)

	// Duplicate registration surfaces the server's error body.
	_, err = repo.Register(ctx, "budi", "rahasia", "Budi Santoso")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already taken")
}

func TestAuthRepositoryTransportFault(t *testing.T) {
	server, client := setup(t)
	server.Close()

	repo := repository.NewAuthRepository(client)
	_, err := repo.Login(context.Background(), "alice", "correct")

	// Transport faults become failure values with their message preserved.
	require.Error(t, err)
	assert.NotEqual(t, "Invalid credentials", err.Error())
}

func TestCalculationRepository(t *testing.T) {
	server, client := setup(t)
	server.SeedUser("alice", "correct", "Alice A")
	token := server.TokenFor("alice")
	repo := repository.NewCalculationRepository(client)
	ctx := context.Background()

	data, err := repo.Calculate(ctx, token, 1000000, 0.1, 2)
	require.NoError(t, err)
	assert.InDelta(t, 1210000, data.FinalBalance, 1e-6)
	assert.InDelta(t, 210000, data.TotalInterest, 1e-6)

	// Server rejection maps to the fixed message.
	_, err = repo.Calculate(ctx, "bogus-token", 1000000, 0.1, 2)
	require.Error(t, err)
	assert.Equal(t, "Calculation failed", err.Error())
}

func TestHistoryRepositoryCRUD(t *testing.T) {
	server, client := setup(t)
	server.SeedUser("alice", "correct", "Alice A")
	token := server.TokenFor("alice")
	repo := repository.NewHistoryRepository(client)
	ctx := context.Background()

	histories, err := repo.GetHistory(ctx, token)
	require.NoError(t, err)
	assert.Empty(t, histories)

	note := "dana darurat"
	msg, err := repo.SaveHistory(ctx, token, models.SaveHistoryRequest{
		TypeID: 1, Note: &note, Principal: 1000000, Rate: 0.1, Years: 2, FinalBalance: 1210000,
	})
	require.NoError(t, err)
	assert.Equal(t, "History saved successfully", msg)

	histories, err = repo.GetHistory(ctx, token)
	require.NoError(t, err)
	require.Len(t, histories, 1)
	saved := histories[0]
	assert.Equal(t, "Deposito", saved.TypeName)
	assert.Equal(t, "alice", saved.Username)

	msg, err = repo.UpdateHistory(ctx, token, saved.ID, models.SaveHistoryRequest{
		TypeID: 2, Principal: 2000000, Rate: 0.05, Years: 3, FinalBalance: 2315250,
	})
	require.NoError(t, err)
	assert.Equal(t, "History updated successfully", msg)

	msg, err = repo.DeleteHistory(ctx, token, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "History deleted successfully", msg)

	histories, err = repo.GetHistory(ctx, token)
	require.NoError(t, err)
	assert.Empty(t, histories)
}

func TestHistoryRepositoryFixedMessages(t *testing.T) {
	server, client := setup(t)
	server.SeedUser("alice", "correct", "Alice A")
	token := server.TokenFor("alice")
	repo := repository.NewHistoryRepository(client)
	ctx := context.Background()

	// Delete of a missing record maps 404 to the fixed message.
	_, err := repo.DeleteHistory(ctx, token, 99)
	require.Error(t, err)
	assert.Equal(t, "Failed to delete history", err.Error())

	_, err = repo.UpdateHistory(ctx, token, 99, models.SaveHistoryRequest{
		TypeID: 1, Principal: 100, Rate: 0.1, Years: 1, FinalBalance: 110,
	})
	require.Error(t, err)
	assert.Equal(t, "Failed to update history", err.Error())

	server.Fail(http.MethodGet, "/api/history", http.StatusInternalServerError)
	_, err = repo.GetHistory(ctx, token)
	require.Error(t, err)
	assert.Equal(t, "Failed to load history", err.Error())
	server.ClearFail()

	_, err = repo.GetInvestmentTypes(ctx, "bogus")
	require.Error(t, err)
	assert.Equal(t, "Failed to load investment types", err.Error())
}

func TestInvestmentTypes(t *testing.T) {
	server, client := setup(t)
	server.SeedUser("alice", "correct", "Alice A")
	token := server.TokenFor("alice")
	repo := repository.NewHistoryRepository(client)

	types, err := repo.GetInvestmentTypes(context.Background(), token)
	require.NoError(t, err)
	require.NotEmpty(t, types)
	assert.Equal(t, "Deposito", types[0].Name)
}
