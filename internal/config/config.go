// Package config resolves server settings from flags, the environment and an
// optional .env file. Flags win over the environment, which wins over defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"chesstral/internal/core"
	"chesstral/internal/engine"
)

const envPrefix = "CHESSTRAL_"

const (
	defaultAPIHost     = "localhost"
	defaultAPIPort     = 8080
	defaultEvalDepth   = 18
	defaultWorkers     = 4
	defaultQueueSize   = 100
	defaultRateLimit   = 10
	defaultTaskTimeout = 45 * time.Second
)

type Config struct {
	APIHost     string
	APIPort     int
	Dev         bool
	StoragePath string // empty disables the audit store
	AccessLogs  bool
	RateLimit   int // requests per second per client

	EngineURL     string
	EngineTimeout time.Duration // per remote request
	TaskTimeout   time.Duration // per queued engine task
	Workers       int
	QueueSize     int

	Engine       core.EngineSelection
	EvalDepth    int
	AutoEvaluate bool
	ContextOptIn bool

	OpeningDir string
}

// Addr is the host:port the API listens on
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.APIHost, c.APIPort)
}

// Load reads envFile (a missing file is not an error), then parses args
func Load(args []string, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}
	return Parse(args, os.LookupEnv)
}

// Parse builds a Config from args with defaults taken from lookup
func Parse(args []string, lookup func(string) (string, bool)) (*Config, error) {
	env := envReader{lookup: lookup}
	cfg := &Config{}

	flags := flag.NewFlagSet("chesstral-server", flag.ContinueOnError)

	flags.StringVar(&cfg.APIHost, "api-host", env.strVal("API_HOST", defaultAPIHost), "API server host")
	flags.IntVar(&cfg.APIPort, "api-port", env.intVal("API_PORT", defaultAPIPort), "API server port")
	flags.BoolVar(&cfg.Dev, "dev", env.boolVal("DEV", false), "Development mode (relaxed rate limits, console logs)")
	flags.StringVar(&cfg.StoragePath, "storage-path", env.strVal("STORAGE_PATH", ""), "Path to SQLite audit database (disabled if empty)")
	flags.BoolVar(&cfg.AccessLogs, "access-logs", env.boolVal("ACCESS_LOGS", false), "Log every HTTP request")
	flags.IntVar(&cfg.RateLimit, "rate-limit", env.intVal("RATE_LIMIT", defaultRateLimit), "Requests per second per client IP")

	flags.StringVar(&cfg.EngineURL, "engine-url", env.strVal("ENGINE_URL", engine.DefaultBaseURL), "Base URL of the engine service")
	flags.DurationVar(&cfg.EngineTimeout, "engine-timeout", env.durationVal("ENGINE_TIMEOUT", engine.DefaultTimeout), "Deadline for one engine request")
	flags.DurationVar(&cfg.TaskTimeout, "task-timeout", env.durationVal("TASK_TIMEOUT", defaultTaskTimeout), "Deadline for one queued engine task")
	flags.IntVar(&cfg.Workers, "workers", env.intVal("WORKERS", defaultWorkers), "Engine worker count")
	flags.IntVar(&cfg.QueueSize, "queue-size", env.intVal("QUEUE_SIZE", defaultQueueSize), "Pending engine task limit")

	flags.StringVar(&cfg.Engine.Type, "engine", env.strVal("ENGINE_TYPE", core.DefaultEngineType), "Default engine type")
	flags.StringVar(&cfg.Engine.Model, "model", env.strVal("ENGINE_MODEL", core.DefaultEngineModel), "Default engine model")
	flags.Float64Var(&cfg.Engine.Temperature, "temperature", env.floatVal("TEMPERATURE", core.DefaultTemperature), "Default sampling temperature")
	flags.IntVar(&cfg.EvalDepth, "eval-depth", env.intVal("EVAL_DEPTH", defaultEvalDepth), "Stockfish evaluation depth")
	flags.BoolVar(&cfg.AutoEvaluate, "auto-evaluate", env.boolVal("AUTO_EVALUATE", true), "Evaluate after every committed move")
	flags.BoolVar(&cfg.ContextOptIn, "context", env.boolVal("CONTEXT_OPT_IN", false), "Send move history and commentary to the engine")

	flags.StringVar(&cfg.OpeningDir, "openings", env.strVal("OPENING_DIR", ""), "Directory of ECO TSV files (built-in book if empty)")

	if err := env.err(); err != nil {
		return nil, err
	}
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges that the flag package cannot express
func (c *Config) Validate() error {
	var errs []error
	if c.APIPort < 1 || c.APIPort > 65535 {
		errs = append(errs, fmt.Errorf("api-port out of range: %d", c.APIPort))
	}
	if c.Engine.Type == "" {
		errs = append(errs, errors.New("engine type required"))
	}
	if c.Engine.Temperature < 0 || c.Engine.Temperature > 1 {
		errs = append(errs, fmt.Errorf("temperature must be within [0, 1]: %g", c.Engine.Temperature))
	}
	if c.EvalDepth < 1 {
		errs = append(errs, fmt.Errorf("eval-depth must be positive: %d", c.EvalDepth))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be positive: %d", c.Workers))
	}
	if c.QueueSize < 1 {
		errs = append(errs, fmt.Errorf("queue-size must be positive: %d", c.QueueSize))
	}
	if c.RateLimit < 1 {
		errs = append(errs, fmt.Errorf("rate-limit must be positive: %d", c.RateLimit))
	}
	if c.EngineTimeout <= 0 || c.TaskTimeout <= 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	return errors.Join(errs...)
}

// NewLogger returns a console logger in dev mode and a JSON logger otherwise
func NewLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// envReader collects parse failures so that every bad variable is reported
type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *envReader) raw(key string) (string, bool) {
	if r.lookup == nil {
		return "", false
	}
	v, ok := r.lookup(envPrefix + key)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (r *envReader) strVal(key, fallback string) string {
	if v, ok := r.raw(key); ok {
		return v
	}
	return fallback
}

func (r *envReader) intVal(key string, fallback int) int {
	v, ok := r.raw(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
		return fallback
	}
	return n
}

func (r *envReader) boolVal(key string, fallback bool) bool {
	v, ok := r.raw(key)
	if !ok {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
		return fallback
	}
	return b
}

func (r *envReader) floatVal(key string, fallback float64) float64 {
	v, ok := r.raw(key)
	if !ok {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
		return fallback
	}
	return f
}

func (r *envReader) durationVal(key string, fallback time.Duration) time.Duration {
	v, ok := r.raw(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s%s: %w", envPrefix, key, err))
		return fallback
	}
	return d
}

func (r *envReader) err() error {
	return errors.Join(r.errs...)
}
