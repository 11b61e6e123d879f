package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vcafe/identity-service/internal/config"
)

func TestLoad_RequiresSigningSecrets(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "")
	t.Setenv("JWT_REFRESH_SECRET", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_ACCESS_SECRET")
}

func TestLoad_RejectsSharedSecret(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "same-secret")
	t.Setenv("JWT_REFRESH_SECRET", "same-secret")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must differ")
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "access-secret")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.Equal(t, 8, cfg.PasswordMinLength)
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.Google.Enabled())
}

func TestLoad_ProviderCredentials(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "access-secret")
	t.Setenv("JWT_REFRESH_SECRET", "refresh-secret")
	t.Setenv("DISCORD_CLIENT_ID", "discord-id")
	t.Setenv("DISCORD_CLIENT_SECRET", "discord-secret")
	t.Setenv("DISCORD_CALLBACK_URL", "https://app.example/api/v1/auth/discord/callback")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("BCRYPT_COST", "10")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.True(t, cfg.Discord.Enabled())
	assert.Equal(t, "discord-id", cfg.Discord.ClientID)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.False(t, cfg.Google.Enabled())
}
