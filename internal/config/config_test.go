package config_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexandernizov/moodiary/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustLoad(t *testing.T) {
	path := createTempConfigFile(t, `env: "prod"`)
	os.Args = []string{"test", "-config", path}

	cfg := config.MustLoad()

	require.NotNil(t, cfg)
	assert.Equal(t, "prod", cfg.Env)
}

func TestMustLoad_ConfigPathEnv(t *testing.T) {
	path := createTempConfigFile(t, `env: "local"`)
	t.Setenv("CONFIG_PATH", path)
	os.Args = []string{"test"}

	cfg := config.MustLoad()

	assert.Equal(t, "local", cfg.Env)
}

func TestMustLoadByPath_Missing(t *testing.T) {
	assert.Panics(t, func() {
		config.MustLoadByPath(filepath.Join(t.TempDir(), "absent.yaml"))
	})
}

func TestLoad_Defaults(t *testing.T) {
	path := createTempConfigFile(t, `env: "local"`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, config.DatabaseConfig{
		Driver:          "mysql",
		Host:            "127.0.0.1",
		Port:            3306,
		User:            "root",
		Password:        "1q2w3e4r",
		Name:            "mood_diary",
		Charset:         "utf8mb4",
		Collation:       "utf8mb4_unicode_ci",
		MultiStatements: true,
		ParseTime:       true,
		SchemaPath:      filepath.Join(filepath.Dir(filepath.Dir(path)), "schema", "mysql.sql"),
	}, cfg.Database)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, "file", cfg.Storage.Kind)
}

func TestLoad_FileAndEnv(t *testing.T) {
	t.Setenv("DB_PASSWORD", "from-env")

	cfg, err := config.Load(createTempConfigFile(t, `
env: "prod"
database:
  driver: "postgres"
  port: 5432
  name: "diary_test"
  schema_path: "schema/postgres.sql"
api:
  base_url: "https://diary.example.com/api"
  timeout: 3s
storage:
  kind: "redis"
  redis_addr: "localhost:6379"
`))
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "diary_test", cfg.Database.Name)
	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, "https://diary.example.com/api", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, "localhost:6379", cfg.Storage.RedisAddr)
}

func TestLoad_SchemaPathRelativeToConfig(t *testing.T) {
	absolute := filepath.Join(t.TempDir(), "abs.sql")

	testTable := []struct {
		name   string
		input  string
		expect func(configDir string) string
	}{
		{
			name:   "relative",
			input:  "database:\n  schema_path: \"schema.sql\"",
			expect: func(configDir string) string { return filepath.Join(configDir, "schema.sql") },
		},
		{
			name:   "parent",
			input:  "database:\n  schema_path: \"../schema/postgres.sql\"",
			expect: func(configDir string) string { return filepath.Join(filepath.Dir(configDir), "schema", "postgres.sql") },
		},
		{
			name:   "absolute",
			input:  fmt.Sprintf("database:\n  schema_path: %q", absolute),
			expect: func(string) string { return absolute },
		},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			path := createTempConfigFile(t, testCase.input)

			cfg, err := config.Load(path)

			require.NoError(t, err)
			assert.Equal(t, testCase.expect(filepath.Dir(path)), cfg.Database.SchemaPath)
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	testTable := []struct {
		name  string
		input string
	}{
		{name: "unknown_env", input: `env: "staging"`},
		{name: "unknown_driver", input: "database:\n  driver: \"oracle\""},
		{name: "db_name_not_identifier", input: "database:\n  name: \"mood_diary; DROP TABLE users\""},
		{name: "port_out_of_range", input: "database:\n  port: 70000"},
		{name: "api_url_invalid", input: "api:\n  base_url: \"not a url\""},
		{name: "unknown_storage", input: "storage:\n  kind: \"cookie\""},
		{name: "redis_without_addr", input: "storage:\n  kind: \"redis\""},
	}

	for _, testCase := range testTable {
		t.Run(testCase.name, func(t *testing.T) {
			cfg, err := config.Load(createTempConfigFile(t, testCase.input))

			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestResolvePath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, "configs/local.yaml", config.ResolvePath(""))
	assert.Equal(t, "a.yaml", config.ResolvePath("a.yaml"))

	t.Setenv("CONFIG_PATH", "b.yaml")
	assert.Equal(t, "b.yaml", config.ResolvePath(""))
	assert.Equal(t, "a.yaml", config.ResolvePath("a.yaml"))
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("Can't write into temp test config file: %v", err)
	}
	return path
}
