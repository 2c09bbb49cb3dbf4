package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/TierFox/internal/pkg/session"
	"github.com/ManuelReschke/TierFox/internal/pkg/usercontext"
	"github.com/ManuelReschke/TierFox/internal/pkg/walletauth"
)

// AuthController handles wallet sign-in.
type AuthController struct {
	auth *walletauth.Service
}

func NewAuthController(auth *walletauth.Service) *AuthController {
	return &AuthController{auth: auth}
}

type nonceRequest struct {
	Address string `json:"address" validate:"required"`
}

type verifyRequest struct {
	Address   string `json:"address" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// HandleNonce issues the message the wallet must sign.
func (ac *AuthController) HandleNonce(c *fiber.Ctx) error {
	var req nonceRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	challenge, err := ac.auth.IssueNonce(c.UserContext(), req.Address)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(challenge)
}

// HandleVerify checks the signature and opens a session for the signer.
func (ac *AuthController) HandleVerify(c *fiber.Ctx) error {
	var req verifyRequest
	if err := parseBody(c, &req); err != nil {
		return respondError(c, err)
	}
	addr, err := ac.auth.Verify(c.UserContext(), req.Address, req.Signature)
	if err != nil {
		return respondError(c, err)
	}
	sessionID, err := session.Login(c, addr)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"address": addr, "sessionId": sessionID})
}

func (ac *AuthController) HandleLogout(c *fiber.Ctx) error {
	if err := session.Logout(c); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleMe returns the identity of the current session.
func (ac *AuthController) HandleMe(c *fiber.Ctx) error {
	return c.JSON(usercontext.GetUserContext(c))
}
