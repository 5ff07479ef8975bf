package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBcryptHash = "$2a$12$C6UzMDM.H6dfI/f/IKcEeO5Qm3Ejz5sTt9Vt1oJ4s3Ae0sZr3v5i6"

func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("JWT_SECRET_KEY", "0123456789abcdef0123456789abcdef")
	t.Setenv("DEVICE_CREDENTIAL_SECRET", "device-secret-0123")
	t.Setenv("ADMIN_PASSWORD_HASH", testBcryptHash)
	t.Setenv("CACHE_ENABLED", "false")
}

func TestLoadProductionConfigDefaults(t *testing.T) {
	setValidEnv(t)

	cfg, err := LoadProductionConfig()
	require.NoError(t, err)

	assert.Equal(t, "KES", cfg.Ledger.Currency)
	assert.Equal(t, 24*time.Hour, cfg.Ledger.IdempotencyTTL)
	assert.Equal(t, 4*time.Second, cfg.Device.Timeout)
	assert.Equal(t, time.Minute, cfg.Device.HealthInterval)
	assert.Equal(t, "purchase_volume", cfg.Pricing.QualificationPolicy)
	assert.Equal(t, "mock", cfg.SMS.ProviderDomain)
	assert.Equal(t, "admin", cfg.Admin.Username)
}

func TestLoadProductionConfigOverrides(t *testing.T) {
	setValidEnv(t)
	t.Setenv("LEDGER_CURRENCY", "UGX")
	t.Setenv("DEVICE_TIMEOUT", "2500ms")
	t.Setenv("DEVICE_RATE_LIMIT_PER_SECOND", "0.5")
	t.Setenv("PRICING_QUALIFICATION_POLICY", "credit_volume")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadProductionConfig()
	require.NoError(t, err)

	assert.Equal(t, "UGX", cfg.Ledger.Currency)
	assert.Equal(t, 2500*time.Millisecond, cfg.Device.Timeout)
	assert.Equal(t, 0.5, cfg.Device.RateLimitPerSecond)
	assert.Equal(t, "credit_volume", cfg.Pricing.QualificationPolicy)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
}

func TestValidateProductionConfigRejects(t *testing.T) {
	cases := map[string]struct {
		env  map[string]string
		want string
	}{
		"short credential secret": {
			env:  map[string]string{"DEVICE_CREDENTIAL_SECRET": "short"},
			want: "DEVICE_CREDENTIAL_SECRET",
		},
		"unknown policy": {
			env:  map[string]string{"PRICING_QUALIFICATION_POLICY": "loyalty"},
			want: "PRICING_QUALIFICATION_POLICY",
		},
		"plain admin password": {
			env:  map[string]string{"ADMIN_PASSWORD_HASH": "hunter2"},
			want: "ADMIN_PASSWORD_HASH",
		},
		"admin hash below bcrypt cost": {
			env:  map[string]string{"ADMIN_PASSWORD_HASH": "$2a$04$C6UzMDM.H6dfI/f/IKcEeO5Qm3Ejz5sTt9Vt1oJ4s3Ae0sZr3v5i6"},
			want: "BCRYPT_COST",
		},
		"sub-second health interval": {
			env:  map[string]string{"DEVICE_HEALTH_INTERVAL": "100ms"},
			want: "DEVICE_HEALTH_INTERVAL",
		},
		"short jwt secret": {
			env:  map[string]string{"JWT_SECRET_KEY": "tiny"},
			want: "JWT_SECRET_KEY",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			setValidEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := LoadProductionConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}
