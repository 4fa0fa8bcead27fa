package testutils

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/joho/godotenv"
)

const ENV_TEST_POSTGRES_DSN = "STUDY_TEST_POSTGRES_DSN"

// LoadEnv loads the .env file from the project root directory when present.
func LoadEnv() error {
	_, filename, _, _ := runtime.Caller(0)
	envPath := filepath.Join(filepath.Dir(filename), "..", "..", ".env")

	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		return nil
	}

	return godotenv.Load(envPath)
}

func LoadEnvOrPanic() {
	if err := LoadEnv(); err != nil {
		panic("Failed to load .env file: " + err.Error())
	}
}

func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// PostgresDSN returns the integration database DSN or skips the test.
func PostgresDSN(t testing.TB) string {
	t.Helper()
	LoadEnvOrPanic()
	dsn := os.Getenv(ENV_TEST_POSTGRES_DSN)
	if dsn == "" {
		t.Skipf("%s not set", ENV_TEST_POSTGRES_DSN)
	}
	return dsn
}
