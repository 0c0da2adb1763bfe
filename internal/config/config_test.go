package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := writeFile(t, `
port: "9000"
dbType: memory
jwtSecret: from-file
modelGenPollInterval: 2s
corsOrigins: ["https://a.example"]
`)
	t.Setenv("PORT", "9100")
	t.Setenv("JWT_EXPIRATION_MINUTES", "15")
	t.Setenv("CORS_ORIGINS", "https://b.example, https://c.example")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, "from-file", cfg.JWTSecret)
	assert.Equal(t, 15*time.Minute, cfg.JWTExpiration)
	assert.Equal(t, 2*time.Second, cfg.ModelGenPollInterval)
	assert.Equal(t, time.Hour, cfg.ResetCodeTTL)
	assert.Equal(t, []string{"https://b.example", "https://c.example"}, cfg.CORSOrigins)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("DB_TYPE", "memory")
	t.Setenv("JWT_SECRET", "s")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "eur", cfg.CheckoutCurrency)
	assert.False(t, cfg.EnforceReferences)
}

func TestLoad_Validation(t *testing.T) {
	cases := map[string]map[string]string{
		"no jwt secret":     {"DB_TYPE": "memory"},
		"unknown db":        {"DB_TYPE": "cassandra", "JWT_SECRET": "s"},
		"mongo without uri": {"DB_TYPE": "mongo", "JWT_SECRET": "s"},
		"bad storage":       {"DB_TYPE": "memory", "JWT_SECRET": "s", "STORAGE_DRIVER": "ftp"},
		"storage no bucket": {"DB_TYPE": "memory", "JWT_SECRET": "s", "STORAGE_DRIVER": "s3"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
			assert.Error(t, err)
		})
	}
}

type fakeSecrets struct {
	value string
	err   error
}

func (f fakeSecrets) GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: &f.value}, nil
}

func TestApplySecrets(t *testing.T) {
	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("SECRETS_ARN", "arn:aws:secretsmanager:eu-central-1:1:secret:rebilt")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	err = cfg.ApplySecrets(context.Background(), fakeSecrets{value: `{"DATABASE_URL":"postgres://x","JWT_SECRET":"from-secret"}`})
	require.NoError(t, err)
	assert.Equal(t, "postgres://x", cfg.DatabaseURL)
	assert.Equal(t, "from-secret", cfg.JWTSecret)
}

func TestApplySecrets_StillRequiresValues(t *testing.T) {
	t.Setenv("DB_TYPE", "postgres")
	t.Setenv("SECRETS_ARN", "arn")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Error(t, cfg.ApplySecrets(context.Background(), fakeSecrets{value: `{}`}))
	assert.Error(t, cfg.ApplySecrets(context.Background(), fakeSecrets{err: errors.New("denied")}))
}
