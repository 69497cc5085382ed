package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/marq24/ebike-flow-api/internal/config"
	"github.com/marq24/ebike-flow-api/internal/services"
)

// AuthController drives the PKCE login dance. The vendor redirects into their
// native app, so the second leg takes the pasted redirect URL rather than a
// browser callback.
type AuthController struct {
	Settings *config.Settings
	log      *zerolog.Logger
	auth     *services.FlowAuthService
}

func NewAuthController(settings *config.Settings, logger *zerolog.Logger, auth *services.FlowAuthService) AuthController {
	return AuthController{
		Settings: settings,
		log:      logger,
		auth:     auth,
	}
}

// StartAuth godoc
// @Description starts a login, returning the vendor authorization url to open
// @Produce json
// @Success 200 {object} map[string]string
// @Router /v1/auth [get]
func (ac *AuthController) StartAuth(c *fiber.Ctx) error {
	authURL, state, err := ac.auth.BeginAuth(c.Context())
	if err != nil {
		return errors.Wrap(err, "failed to start authorization")
	}
	return c.JSON(fiber.Map{
		"authUrl": authURL,
		"state":   state,
	})
}

type completeAuthRequest struct {
	State string `json:"state"`
	// Code accepts the bare authorization code or the whole redirect url the
	// app landed on.
	Code string `json:"code"`
}

// CompleteAuth godoc
// @Description exchanges the pasted authorization code for tokens
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /v1/auth [post]
func (ac *AuthController) CompleteAuth(c *fiber.Ctx) error {
	req := new(completeAuthRequest)
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.State == "" || req.Code == "" {
		return fiber.NewError(fiber.StatusBadRequest, "state and code are required")
	}

	token, err := ac.auth.CompleteAuth(c.Context(), req.State, req.Code)
	if err != nil {
		ac.log.Err(err).Msg("Token exchange failed.")
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	subject := ac.auth.Subject(token)
	return c.JSON(fiber.Map{
		"status":  "authenticated",
		"subject": subject,
	})
}

// GetAuthStatus godoc
// @Description reports whether stored credentials exist and still refresh
// @Produce json
// @Success 200 {object} map[string]any
// @Router /v1/auth/status [get]
func (ac *AuthController) GetAuthStatus(c *fiber.Ctx) error {
	if _, err := ac.auth.AccessToken(c.Context()); err != nil {
		if errors.Is(err, services.ErrNoCredentials) {
			return c.JSON(fiber.Map{"authenticated": false})
		}
		return c.JSON(fiber.Map{"authenticated": false, "error": err.Error()})
	}
	return c.JSON(fiber.Map{"authenticated": true})
}
