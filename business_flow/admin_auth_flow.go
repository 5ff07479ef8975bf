package businessflow

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/amirphl/Hotspot-Ledger/app/dto"
	"github.com/amirphl/Hotspot-Ledger/app/services"
	"github.com/amirphl/Hotspot-Ledger/config"
)

// AdminAuthFlow exchanges the configured admin credentials for an access token
type AdminAuthFlow interface {
	Login(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error)
	Logout(ctx context.Context, accessToken string, metadata *ClientMetadata) error
}

type AdminAuthFlowImpl struct {
	cfg          config.AdminConfig
	tokenService services.TokenService
}

func NewAdminAuthFlow(cfg config.AdminConfig, tokenService services.TokenService) AdminAuthFlow {
	return &AdminAuthFlowImpl{
		cfg:          cfg,
		tokenService: tokenService,
	}
}

func (af *AdminAuthFlowImpl) Login(ctx context.Context, req *dto.AdminLoginRequest, metadata *ClientMetadata) (*dto.AdminLoginResponse, error) {
	if req == nil || len(req.Username) == 0 || len(req.Password) == 0 {
		return nil, NewBusinessError("ADMIN_LOGIN_VALIDATION_FAILED", "Admin login validation failed", ErrIncorrectCredentials)
	}
	if af.cfg.Username == "" || af.cfg.PasswordHash == "" {
		return nil, NewBusinessError("ADMIN_NOT_CONFIGURED", "Admin login is not configured", ErrIncorrectCredentials)
	}

	username := strings.TrimSpace(req.Username)
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(af.cfg.Username)) == 1
	// always run bcrypt so both failure paths cost the same
	passErr := bcrypt.CompareHashAndPassword([]byte(af.cfg.PasswordHash), []byte(req.Password))
	if !userOK || passErr != nil {
		return nil, NewBusinessError("ADMIN_INCORRECT_CREDENTIALS", "Incorrect username or password", ErrIncorrectCredentials)
	}

	token, expiresAt, err := af.tokenService.GenerateAdminToken(username)
	if err != nil {
		return nil, NewBusinessError("TOKEN_GENERATION_FAILED", "Failed to generate token", err)
	}

	return &dto.AdminLoginResponse{
		Username: username,
		Session: dto.AdminSessionDTO{
			AccessToken: token,
			ExpiresIn:   int(time.Until(expiresAt).Seconds()),
			ExpiresAt:   formatTime(expiresAt),
			TokenType:   "Bearer",
		},
	}, nil
}

// Logout revokes accessToken for the rest of its lifetime
func (af *AdminAuthFlowImpl) Logout(ctx context.Context, accessToken string, metadata *ClientMetadata) error {
	if strings.TrimSpace(accessToken) == "" {
		return NewBusinessError("ADMIN_LOGOUT_VALIDATION_FAILED", "Access token is required", ErrInvalidAccessToken)
	}
	if err := af.tokenService.RevokeToken(accessToken); err != nil {
		return NewBusinessError("ADMIN_LOGOUT_FAILED", "Access token could not be revoked", fmt.Errorf("%w: %w", ErrInvalidAccessToken, err))
	}
	return nil
}
