package businessflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/amirphl/Hotspot-Ledger/app/dto"
	"github.com/amirphl/Hotspot-Ledger/app/services"
	"github.com/amirphl/Hotspot-Ledger/config"
	"github.com/amirphl/Hotspot-Ledger/models"
	"github.com/amirphl/Hotspot-Ledger/utils"
)

func TestAdminLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := services.NewTokenService(time.Hour, "hotspot-ledger", "hotspot-admin", false, "", "", "test-signing-secret-0123456789")
	require.NoError(t, err)

	flow := NewAdminAuthFlow(config.AdminConfig{Username: "ops", PasswordHash: string(hash)}, tokens)
	ctx := context.Background()

	res, err := flow.Login(ctx, &dto.AdminLoginRequest{Username: "ops", Password: "correct-horse"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", res.Session.TokenType)
	assert.Greater(t, res.Session.ExpiresIn, 0)

	claims, err := tokens.ValidateAdminToken(res.Session.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Username)

	_, err = flow.Login(ctx, &dto.AdminLoginRequest{Username: "ops", Password: "wrong-horse"}, nil)
	assert.True(t, IsUnauthorized(err))

	_, err = flow.Login(ctx, &dto.AdminLoginRequest{Username: "root", Password: "correct-horse"}, nil)
	assert.True(t, IsUnauthorized(err))
}

func TestAdminLogout(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := services.NewTokenService(time.Hour, "hotspot-ledger", "hotspot-admin", false, "", "", "test-signing-secret-0123456789")
	require.NoError(t, err)

	flow := NewAdminAuthFlow(config.AdminConfig{Username: "ops", PasswordHash: string(hash)}, tokens)
	ctx := context.Background()

	res, err := flow.Login(ctx, &dto.AdminLoginRequest{Username: "ops", Password: "correct-horse"}, nil)
	require.NoError(t, err)

	require.NoError(t, flow.Logout(ctx, res.Session.AccessToken, nil))
	_, err = tokens.ValidateAdminToken(res.Session.AccessToken)
	assert.ErrorIs(t, err, services.ErrTokenRevoked)

	err = flow.Logout(ctx, res.Session.AccessToken, nil)
	assert.ErrorIs(t, err, ErrInvalidAccessToken)

	err = flow.Logout(ctx, " ", nil)
	assert.True(t, IsUnauthorized(err))
}

func TestAuditFlowList(t *testing.T) {
	traders := newFakeTraderRepo()
	audit := newFakeAuditRepo()
	trader := traders.seed("t1")
	ctx := context.WithValue(context.Background(), utils.AdminKey, "ops")

	recorder := auditRecorder{repo: audit}
	recorder.record(ctx, &ClientMetadata{IPAddress: "10.1.1.1", RequestID: "req-1"}, &trader.ID, models.AuditActionTraderCreated, "created", nil, map[string]any{"k": "v"})
	recorder.record(ctx, nil, nil, models.AuditActionDeviceRemoved, "removed", assert.AnError, nil)

	flow := NewAuditFlow(audit, traders)

	all, err := flow.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)

	mine, err := flow.List(ctx, &dto.AuditLogListRequest{TraderPhone: "t1"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "ops", mine[0].Actor)
	assert.Equal(t, "10.1.1.1", mine[0].IPAddress)
	assert.Equal(t, "req-1", mine[0].RequestID)

	failed, err := flow.List(ctx, &dto.AuditLogListRequest{FailedOnly: true})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.False(t, failed[0].Success)
	require.NotNil(t, failed[0].ErrorMessage)

	_, err = flow.List(ctx, &dto.AuditLogListRequest{Offset: -1})
	assert.ErrorIs(t, err, ErrInvalidPage)
}
