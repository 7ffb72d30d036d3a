package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

const defaultPath = "configs/local.yaml"

type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local" validate:"oneof=local prod"`
	Database DatabaseConfig `yaml:"database"`
	API      APIConfig      `yaml:"api"`
	Storage  StorageConfig  `yaml:"storage"`
}

type DatabaseConfig struct {
	Driver          string `yaml:"driver" env:"DB_DRIVER" env-default:"mysql" validate:"oneof=mysql mariadb postgres"`
	Host            string `yaml:"host" env:"DB_HOST" env-default:"127.0.0.1" validate:"required,hostname_rfc1123|ip"`
	Port            int    `yaml:"port" env:"DB_PORT" env-default:"3306" validate:"min=1,max=65535"`
	User            string `yaml:"user" env:"DB_USER" env-default:"root" validate:"required"`
	Password        string `yaml:"password" env:"DB_PASSWORD" env-default:"1q2w3e4r"`
	Name            string `yaml:"name" env:"DB_NAME" env-default:"mood_diary" validate:"required,sqlident"`
	Charset         string `yaml:"charset" env:"DB_CHARSET" env-default:"utf8mb4" validate:"sqlident"`
	Collation       string `yaml:"collation" env:"DB_COLLATION" env-default:"utf8mb4_unicode_ci" validate:"sqlident"`
	MultiStatements bool   `yaml:"multi_statements" env:"DB_MULTI_STATEMENTS" env-default:"true"`
	ParseTime       bool   `yaml:"parse_time" env:"DB_PARSE_TIME" env-default:"true"`
	// SchemaPath is resolved against the config file's directory when relative.
	SchemaPath      string `yaml:"schema_path" env:"DB_SCHEMA_PATH" env-default:"../schema/mysql.sql" validate:"required"`
}

type APIConfig struct {
	BaseURL string        `yaml:"base_url" env:"API_BASE_URL" env-default:"http://localhost:5000/api" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" env:"API_TIMEOUT" env-default:"10s" validate:"gt=0"`
}

type StorageConfig struct {
	Kind          string `yaml:"kind" env:"STORAGE_KIND" env-default:"file" validate:"oneof=memory file redis"`
	Path          string `yaml:"path" env:"STORAGE_PATH" env-default:".moodiary/session.json" validate:"required_if=Kind file"`
	RedisAddr     string `yaml:"redis_addr" env:"STORAGE_REDIS_ADDR" validate:"required_if=Kind redis"`
	RedisPassword string `yaml:"redis_password" env:"STORAGE_REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"STORAGE_REDIS_DB" env-default:"0" validate:"min=0"`
	RedisPrefix   string `yaml:"redis_prefix" env:"STORAGE_REDIS_PREFIX" env-default:"moodiary"`
}

var sqlIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,63}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.RegisterValidation("sqlident", func(fl validator.FieldLevel) bool {
		return sqlIdent.MatchString(fl.Field().String())
	})
	if err != nil {
		panic("can't register sqlident validation: " + err.Error())
	}
	return v
}

// MustLoad reads the config file named by the -config flag, the CONFIG_PATH
// env or configs/local.yaml, in that order.
func MustLoad() *Config {
	return MustLoadByPath(ResolvePath(fetchConfigFlag()))
}

func MustLoadByPath(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if !filepath.IsAbs(cfg.Database.SchemaPath) {
		cfg.Database.SchemaPath = filepath.Join(filepath.Dir(path), cfg.Database.SchemaPath)
	}

	return &cfg, nil
}

// ResolvePath falls back to CONFIG_PATH and then to the default location
// when path is empty.
func ResolvePath(path string) string {
	if path != "" {
		return path
	}
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		return env
	}
	return defaultPath
}

func fetchConfigFlag() string {
	var path string

	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	fs.StringVar(&path, "config", "", "path to config file")
	_ = fs.Parse(os.Args[1:])

	return path
}
