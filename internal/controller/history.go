package controller

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/adiprasetyo/kalkulo/internal/calc"
	"github.com/adiprasetyo/kalkulo/internal/models"
	"github.com/adiprasetyo/kalkulo/internal/repository"
	"github.com/adiprasetyo/kalkulo/internal/session"
)

var errNotAuthenticated = errors.New("Not authenticated")

// HistoryController drives three machines: the history list, the
// investment-type reference data, and a shared machine for the save, update
// and delete mutations. Successful mutations refresh the list as a side
// effect; the refresh outcome never changes the mutation's reported result.
type HistoryController struct {
	repo    *repository.HistoryRepository
	session *session.Store
	log     *logrus.Entry

	HistoryState *Machine[[]models.History]
	TypesState   *Machine[[]models.InvestmentType]
	SaveState    *Machine[string]
}

// NewHistoryController creates a HistoryController.
func NewHistoryController(repo *repository.HistoryRepository, store *session.Store, log *logrus.Entry) *HistoryController {
	return &HistoryController{
		repo:         repo,
		session:      store,
		log:          log,
		HistoryState: NewMachine[[]models.History](),
		TypesState:   NewMachine[[]models.InvestmentType](),
		SaveState:    NewMachine[string](),
	}
}

// Init loads the history list and the investment types concurrently. The two
// loads do not share a cancellable context: each machine settles on its own
// outcome even when the other load fails.
func (c *HistoryController) Init(ctx context.Context) {
	go func() {
		var g errgroup.Group
		g.Go(func() error { return c.loadHistory(ctx) })
		g.Go(func() error { return c.loadTypes(ctx) })
		if err := g.Wait(); err != nil {
			c.log.WithError(err).Debug("initial history load incomplete")
		}
	}()
}

// LoadHistory refreshes the history list.
func (c *HistoryController) LoadHistory(ctx context.Context) {
	go func() {
		if err := c.loadHistory(ctx); err != nil {
			c.log.WithError(err).Debug("history load failed")
		}
	}()
}

// LoadInvestmentTypes refreshes the investment-type reference data.
func (c *HistoryController) LoadInvestmentTypes(ctx context.Context) {
	go func() {
		if err := c.loadTypes(ctx); err != nil {
			c.log.WithError(err).Debug("investment types load failed")
		}
	}()
}

// SaveHistory persists a calculation. The final balance travels with the
// request because it was produced by an earlier calculate step.
func (c *HistoryController) SaveHistory(ctx context.Context, typeID int, note *string, principal, rate float64, years int, finalBalance float64) {
	if err := calc.Validate(principal, rate, years); err != nil {
		c.SaveState.Set(Errored[string](err.Error()))
		return
	}

	token, ok := c.session.Token()
	if !ok {
		c.SaveState.Set(Errored[string](errNotAuthenticated.Error()))
		return
	}

	epoch := c.SaveState.Begin()
	go func() {
		msg, err := c.repo.SaveHistory(ctx, token, models.SaveHistoryRequest{
			TypeID:       typeID,
			Note:         note,
			Principal:    principal,
			Rate:         rate,
			Years:        years,
			FinalBalance: finalBalance,
		})
		if err != nil {
			c.SaveState.Finish(epoch, Errored[string](errorMessage(err, "Save failed")))
			return
		}
		c.SaveState.Finish(epoch, Success(msg))
		c.refreshAfterMutation(ctx)
	}()
}

// UpdateHistory replaces the editable fields of one record. The final
// balance is recomputed locally from the edited inputs; the server
// re-validates on write.
func (c *HistoryController) UpdateHistory(ctx context.Context, id, typeID int, note *string, principal, rate float64, years int) {
	data, err := calc.CompoundInterest(principal, rate, years)
	if err != nil {
		c.SaveState.Set(Errored[string](err.Error()))
		return
	}

	token, ok := c.session.Token()
	if !ok {
		c.SaveState.Set(Errored[string](errNotAuthenticated.Error()))
		return
	}

	epoch := c.SaveState.Begin()
	go func() {
		msg, err := c.repo.UpdateHistory(ctx, token, id, models.SaveHistoryRequest{
			TypeID:       typeID,
			Note:         note,
			Principal:    principal,
			Rate:         rate,
			Years:        years,
			FinalBalance: data.FinalBalance,
		})
		if err != nil {
			c.SaveState.Finish(epoch, Errored[string](errorMessage(err, "Update failed")))
			return
		}
		c.SaveState.Finish(epoch, Success(msg))
		c.refreshAfterMutation(ctx)
	}()
}

// DeleteHistory removes one record. The list is refreshed whether or not the
// delete succeeded, so the view converges on whatever the server holds.
func (c *HistoryController) DeleteHistory(ctx context.Context, id int) {
	token, ok := c.session.Token()
	if !ok {
		c.SaveState.Set(Errored[string](errNotAuthenticated.Error()))
		return
	}

	epoch := c.SaveState.Begin()
	go func() {
		msg, err := c.repo.DeleteHistory(ctx, token, id)
		if err != nil {
			c.SaveState.Finish(epoch, Errored[string](errorMessage(err, "Delete failed")))
		} else {
			c.SaveState.Finish(epoch, Success(msg))
		}
		c.refreshAfterMutation(ctx)
	}()
}

// ResetSaveState returns the mutation machine to Idle.
func (c *HistoryController) ResetSaveState() {
	c.SaveState.Reset()
}

func (c *HistoryController) refreshAfterMutation(ctx context.Context) {
	if err := c.loadHistory(ctx); err != nil {
		c.log.WithError(err).Debug("post-mutation refresh failed")
	}
}

func (c *HistoryController) loadHistory(ctx context.Context) error {
	token, ok := c.session.Token()
	if !ok {
		c.HistoryState.Set(Errored[[]models.History](errNotAuthenticated.Error()))
		return errNotAuthenticated
	}

	epoch := c.HistoryState.Begin()
	histories, err := c.repo.GetHistory(ctx, token)
	if err != nil {
		c.HistoryState.Finish(epoch, Errored[[]models.History](errorMessage(err, "Failed to load")))
		return err
	}
	c.HistoryState.Finish(epoch, Success(histories))
	return nil
}

func (c *HistoryController) loadTypes(ctx context.Context) error {
	token, ok := c.session.Token()
	if !ok {
		c.TypesState.Set(Errored[[]models.InvestmentType](errNotAuthenticated.Error()))
		return errNotAuthenticated
	}

	epoch := c.TypesState.Begin()
	types, err := c.repo.GetInvestmentTypes(ctx, token)
	if err != nil {
		c.TypesState.Finish(epoch, Errored[[]models.InvestmentType](errorMessage(err, "Failed to load")))
		return err
	}
	c.TypesState.Finish(epoch, Success(types))
	return nil
}
