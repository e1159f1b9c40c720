// Package config loads the service settings from defaults, an optional JSON
// file, the environment and command-line flags, in that order of priority.
package config

import (
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every setting of the links page service.
type Config struct {
	RunAddr                  string        `env:"SERVER_ADDRESS" json:"server_address" validate:"hostname_port"`
	GRPCAddr                 string        `env:"GRPC_ADDRESS" json:"grpc_address" validate:"omitempty,hostname_port"`
	LogLevel                 string        `env:"LOG_LEVEL" json:"log_level" validate:"loglevel"`
	ShortLinkHost            string        `env:"SHORT_LINK_HOST" json:"short_link_host" validate:"required"`
	SessionCookieName        string        `env:"SESSION_COOKIE_NAME" json:"session_cookie_name" validate:"required"`
	SessionSigningSecretKey  string        `env:"SESSION_SIGNING_KEY" json:"session_signing_key" validate:"required,base64url"`
	FirestoreProjectID       string        `env:"FIRESTORE_PROJECT_ID" json:"firestore_project_id"`
	FirestoreCredentialsFile string        `env:"FIRESTORE_CREDENTIALS_FILE" json:"firestore_credentials_file" validate:"omitempty,filepath"`
	DatabaseDSN              string        `env:"DATABASE_DSN" json:"database_dsn"`
	DatabaseDriver           string        `env:"DATABASE_DRIVER" json:"database_driver" validate:"oneof=pgx sqlite"`
	DBFileName               string        `env:"FILE_STORAGE_PATH" json:"file_storage_path" validate:"omitempty,filepath"`
	DBConnectionTimeout      time.Duration `env:"DB_CONNECTION_TIMEOUT" json:"db_connection_timeout"`
	ConfigFile               string        `env:"CONFIG" json:"-"`
}

var defaultConfig = Config{
	RunAddr:             ":8080",
	LogLevel:            "info",
	ShortLinkHost:       "linkfy.web.app",
	SessionCookieName:   "user",
	DatabaseDriver:      "pgx",
	DBConnectionTimeout: 10 * time.Second,
}

// InitOption tunes how New collects the settings.
type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
	args                []string
}

// WithDisableFlagsParsing skips command-line flags, which is what tests need.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// WithArgs parses the given arguments instead of os.Args[1:].
func WithArgs(args []string) InitOption {
	return func(options *initOptions) {
		options.args = args
	}
}

// New builds the configuration. Priority: flags > env > JSON file > defaults.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
		args:                os.Args[1:],
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	err := godotenv.Load()
	if err != nil {
		log.Printf("Unable to load .env file: %v", err)
	}

	values := &Config{}

	var fromEnv Config
	if err := env.Parse(&fromEnv); err != nil {
		return nil, fmt.Errorf("in internal/config/config.go/New(): error while `env.Parse()` calling: %w", err)
	}

	var fromFlags Config
	if !options.disableFlagsParsing {
		if err := parseFlags(&fromFlags, options.args); err != nil {
			return nil, err
		}
	}

	configFile := firstNonEmpty(fromFlags.ConfigFile, fromEnv.ConfigFile)
	if configFile != "" {
		fromFile, err := loadJSON(configFile)
		if err != nil {
			return nil, err
		}
		applyDefaults(values, fromFile)
	}
	applyDefaults(values, defaultConfig)

	override(values, fromEnv)
	override(values, fromFlags)
	values.ConfigFile = configFile
	values.ShortLinkHost = normalizeShortLinkHost(values.ShortLinkHost)

	if err := values.validate(); err != nil {
		return nil, err
	}

	return values, nil
}

// SigningKey decodes the base64url session signing key. The key has no
// default: it must come from SESSION_SIGNING_KEY, the JSON file or -k.
func (c *Config) SigningKey() ([]byte, error) {
	return base64.URLEncoding.DecodeString(c.SessionSigningSecretKey)
}

func parseFlags(values *Config, args []string) error {
	flags := flag.NewFlagSet("linkfy", flag.ContinueOnError)
	flags.StringVar(&values.RunAddr, "a", "", "address and port to run server")
	flags.StringVar(&values.GRPCAddr, "g", "", "address and port to run gRPC health server")
	flags.StringVar(&values.LogLevel, "l", "", "logger level")
	flags.StringVar(&values.ShortLinkHost, "s", "", "host used to compose short links")
	flags.StringVar(&values.SessionSigningSecretKey, "k", "", "base64url session signing key")
	flags.StringVar(&values.FirestoreProjectID, "p", "", "Firestore project ID")
	flags.StringVar(&values.DatabaseDSN, "d", "", "A string with the database connection details")
	flags.StringVar(&values.DatabaseDriver, "driver", "", "SQL driver: pgx or sqlite")
	flags.StringVar(&values.DBFileName, "f", "", "JSON file name with database")
	flags.StringVar(&values.ConfigFile, "c", "", "JSON configuration file")
	flags.StringVar(&values.ConfigFile, "config", "", "JSON configuration file")

	return flags.Parse(args)
}

func loadJSON(fileName string) (Config, error) {
	var result Config
	data, err := os.ReadFile(fileName)
	if err != nil {
		return result, fmt.Errorf("in internal/config/config.go/loadJSON(): error while `os.ReadFile()` calling: %w", err)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("in internal/config/config.go/loadJSON(): error while `json.Unmarshal()` calling: %w", err)
	}

	return result, nil
}

// applyDefaults fills the zero fields of values from defaults.
func applyDefaults(values *Config, defaults Config) {
	fillString(&values.RunAddr, defaults.RunAddr)
	fillString(&values.GRPCAddr, defaults.GRPCAddr)
	fillString(&values.LogLevel, defaults.LogLevel)
	fillString(&values.ShortLinkHost, defaults.ShortLinkHost)
	fillString(&values.SessionCookieName, defaults.SessionCookieName)
	fillString(&values.SessionSigningSecretKey, defaults.SessionSigningSecretKey)
	fillString(&values.FirestoreProjectID, defaults.FirestoreProjectID)
	fillString(&values.FirestoreCredentialsFile, defaults.FirestoreCredentialsFile)
	fillString(&values.DatabaseDSN, defaults.DatabaseDSN)
	fillString(&values.DatabaseDriver, defaults.DatabaseDriver)
	fillString(&values.DBFileName, defaults.DBFileName)
	if values.DBConnectionTimeout == 0 {
		values.DBConnectionTimeout = defaults.DBConnectionTimeout
	}
}

// override replaces fields of values with the non-zero fields of source.
func override(values *Config, source Config) {
	overrideString(&values.RunAddr, source.RunAddr)
	overrideString(&values.GRPCAddr, source.GRPCAddr)
	overrideString(&values.LogLevel, source.LogLevel)
	overrideString(&values.ShortLinkHost, source.ShortLinkHost)
	overrideString(&values.SessionCookieName, source.SessionCookieName)
	overrideString(&values.SessionSigningSecretKey, source.SessionSigningSecretKey)
	overrideString(&values.FirestoreProjectID, source.FirestoreProjectID)
	overrideString(&values.FirestoreCredentialsFile, source.FirestoreCredentialsFile)
	overrideString(&values.DatabaseDSN, source.DatabaseDSN)
	overrideString(&values.DatabaseDriver, source.DatabaseDriver)
	overrideString(&values.DBFileName, source.DBFileName)
	if source.DBConnectionTimeout != 0 {
		values.DBConnectionTimeout = source.DBConnectionTimeout
	}
}

func fillString(target *string, value string) {
	if *target == "" {
		*target = value
	}
}

func overrideString(target *string, value string) {
	if value != "" {
		*target = value
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}

	return ""
}

// normalizeShortLinkHost drops a scheme and trailing slashes, since the
// composed short link is "<host>/<code>".
func normalizeShortLinkHost(host string) string {
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")

	return strings.TrimRight(host, "/")
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[value]
}

func (c *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	err = validate.RegisterValidation("filepath", validateFilePath)
	if err != nil {
		return err
	}

	return validate.Struct(c)
}
