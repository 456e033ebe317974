package controller

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/adiprasetyo/kalkulo/internal/calc"
	"github.com/adiprasetyo/kalkulo/internal/models"
	"github.com/adiprasetyo/kalkulo/internal/repository"
	"github.com/adiprasetyo/kalkulo/internal/session"
)

// CalculatorController drives the projection state machine.
type CalculatorController struct {
	repo    *repository.CalculationRepository
	session *session.Store
	log     *logrus.Entry

	CalculationState *Machine[models.CalculationData]
}

// NewCalculatorController creates a CalculatorController.
func NewCalculatorController(repo *repository.CalculationRepository, store *session.Store, log *logrus.Entry) *CalculatorController {
	return &CalculatorController{
		repo:             repo,
		session:          store,
		log:              log,
		CalculationState: NewMachine[models.CalculationData](),
	}
}

// Calculate asks the server for a projection. Input validation and the token
// check both fail locally, before any network call.
func (c *CalculatorController) Calculate(ctx context.Context, principal, rate float64, years int) {
	if err := calc.Validate(principal, rate, years); err != nil {
		c.CalculationState.Set(Errored[models.CalculationData](err.Error()))
		return
	}

	token, ok := c.session.Token()
	if !ok {
		c.CalculationState.Set(Errored[models.CalculationData]("Not authenticated"))
		return
	}

	epoch := c.CalculationState.Begin()
	go func() {
		data, err := c.repo.Calculate(ctx, token, principal, rate, years)
		if err != nil {
			c.CalculationState.Finish(epoch, Errored[models.CalculationData](errorMessage(err, "Calculation failed")))
			return
		}
		c.CalculationState.Finish(epoch, Success(*data))
	}()
}

// Preview computes the projection locally, without touching the network or
// the session. The server stays the source of truth for saved records.
func (c *CalculatorController) Preview(principal, rate float64, years int) (models.CalculationData, error) {
	return calc.CompoundInterest(principal, rate, years)
}

// ResetState returns the machine to Idle.
func (c *CalculatorController) ResetState() {
	c.CalculationState.Reset()
}
