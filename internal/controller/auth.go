package controller

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/adiprasetyo/kalkulo/internal/models"
	"github.com/adiprasetyo/kalkulo/internal/repository"
	"github.com/adiprasetyo/kalkulo/internal/session"
)

// AuthController drives the login and register state machines and owns the
// session lifecycle around them.
type AuthController struct {
	repo    *repository.AuthRepository
	session *session.Store
	log     *logrus.Entry

	LoginState    *Machine[models.AuthResponse]
	RegisterState *Machine[models.AuthResponse]
}

// NewAuthController creates an AuthController over an injected session store.
func NewAuthController(repo *repository.AuthRepository, store *session.Store, log *logrus.Entry) *AuthController {
	return &AuthController{
		repo:          repo,
		session:       store,
		log:           log,
		LoginState:    NewMachine[models.AuthResponse](),
		RegisterState: NewMachine[models.AuthResponse](),
	}
}

// Login authenticates and, on success, persists the session before the
// machine reports Success. A 2xx response without a token or user is a
// failure, not a partial success.
func (c *AuthController) Login(ctx context.Context, username, password string) {
	epoch := c.LoginState.Begin()
	go func() {
		resp, err := c.repo.Login(ctx, username, password)
		if err != nil {
			c.LoginState.Finish(epoch, Errored[models.AuthResponse](errorMessage(err, "Login failed")))
			return
		}

		if resp.Token == "" || resp.User == nil {
			c.LoginState.Finish(epoch, Errored[models.AuthResponse]("Login failed"))
			return
		}

		if err := c.session.Save(ctx, resp.Token, *resp.User); err != nil {
			c.log.WithError(err).Error("failed to persist session")
			c.LoginState.Finish(epoch, Errored[models.AuthResponse]("Login failed"))
			return
		}

		c.LoginState.Finish(epoch, Success(*resp))
	}()
}

// Register creates an account. It does not log the user in.
func (c *AuthController) Register(ctx context.Context, username, password, fullName string) {
	epoch := c.RegisterState.Begin()
	go func() {
		resp, err := c.repo.Register(ctx, username, password, fullName)
		if err != nil {
			c.RegisterState.Finish(epoch, Errored[models.AuthResponse](errorMessage(err, "Registration failed")))
			return
		}
		c.RegisterState.Finish(epoch, Success(*resp))
	}()
}

// Logout clears the session store. Other controllers keep whatever state
// they had; their next authenticated action fails locally.
func (c *AuthController) Logout(ctx context.Context) {
	if err := c.session.Clear(ctx); err != nil {
		c.log.WithError(err).Error("failed to clear session")
	}
}

// ResetState returns both machines to Idle.
func (c *AuthController) ResetState() {
	c.LoginState.Reset()
	c.RegisterState.Reset()
}

// errorMessage collapses an error to its displayable string, with a fixed
// fallback for empty messages.
func errorMessage(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}
