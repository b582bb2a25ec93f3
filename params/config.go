package params

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Server holds the listening surfaces.
type Server struct {
	TCPAddr string
	APIAddr string
	// ServeMode is "concurrent" (one goroutine per connection) or
	// "sequential" (next accept only after the previous connection finished).
	ServeMode    string
	ReadTimeout  time.Duration // 0 = no deadline
	WriteTimeout time.Duration // 0 = no deadline
	MaxFrame     uint32
}

type Engine struct {
	// BookStrategy selects the order book realization: "levels" or "sorted".
	BookStrategy  string
	MatchInterval time.Duration
	PriceSamples  int
	PriceGap      time.Duration
}

type Log struct {
	File  string
	Level string
}

// Sinks are optional consumers of engine events. Empty values disable them.
type Sinks struct {
	JournalDir  string
	NATSURL     string
	NATSSubject string
}

type Feeder struct {
	Enabled  bool
	Mode     string // "gaussian" or "randomwalk"
	Interval time.Duration
	Mean     float64
}

type Config struct {
	Server Server
	Engine Engine
	Log    Log
	Sinks  Sinks
	Feeder Feeder
}

func Default() Config {
	return Config{
		Server: Server{
			TCPAddr:   "127.0.0.1:6379",
			APIAddr:   ":3000",
			ServeMode: "concurrent",
			MaxFrame:  1 << 20,
		},
		Engine: Engine{
			BookStrategy:  "levels",
			MatchInterval: 1 * time.Second,
			PriceSamples:  10,
			PriceGap:      100 * time.Millisecond,
		},
		Log: Log{
			File:  "data/venue.log",
			Level: "info",
		},
		Sinks: Sinks{
			NATSSubject: "venue",
		},
		Feeder: Feeder{
			Mode:     "gaussian",
			Interval: 1 * time.Second,
			Mean:     100,
		},
	}
}

// LoadFromEnv loads configuration from .env file (if exists) and environment variables
// Priority: ENV > .env file > defaults
func LoadFromEnv(envPath string) Config {
	cfg := Default()

	if envPath != "" {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	cfg.Server.TCPAddr = getEnv("TCP_ADDR", cfg.Server.TCPAddr)
	cfg.Server.APIAddr = getEnv("API_ADDR", cfg.Server.APIAddr)
	cfg.Server.ServeMode = getEnv("SERVE_MODE", cfg.Server.ServeMode)
	cfg.Server.ReadTimeout = getMillis("TCP_READ_TIMEOUT_MS", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = getMillis("TCP_WRITE_TIMEOUT_MS", cfg.Server.WriteTimeout)
	if v := os.Getenv("MAX_FRAME_BYTES"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			cfg.Server.MaxFrame = uint32(n)
		}
	}

	cfg.Engine.BookStrategy = getEnv("BOOK_STRATEGY", cfg.Engine.BookStrategy)
	cfg.Engine.MatchInterval = getMillis("MATCH_INTERVAL_MS", cfg.Engine.MatchInterval)
	cfg.Engine.PriceGap = getMillis("PRICE_SAMPLE_GAP_MS", cfg.Engine.PriceGap)
	if v := os.Getenv("PRICE_SAMPLES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Engine.PriceSamples = n
		}
	}

	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)

	cfg.Sinks.JournalDir = getEnv("JOURNAL_DIR", cfg.Sinks.JournalDir)
	cfg.Sinks.NATSURL = getEnv("NATS_URL", cfg.Sinks.NATSURL)
	cfg.Sinks.NATSSubject = getEnv("NATS_SUBJECT", cfg.Sinks.NATSSubject)

	if v := os.Getenv("ENABLE_FEEDER"); v != "" {
		cfg.Feeder.Enabled = v == "true"
	}
	cfg.Feeder.Mode = getEnv("FEEDER_MODE", cfg.Feeder.Mode)
	cfg.Feeder.Interval = getMillis("FEEDER_INTERVAL_MS", cfg.Feeder.Interval)
	if v := os.Getenv("FEEDER_MEAN"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Feeder.Mean = f
		}
	}

	return cfg
}

// Validate reports the first setting the venue cannot start with.
func (c Config) Validate() error {
	switch c.Server.ServeMode {
	case "concurrent", "sequential":
	default:
		return fmt.Errorf("SERVE_MODE %q: want concurrent or sequential", c.Server.ServeMode)
	}
	switch c.Engine.BookStrategy {
	case "levels", "sorted":
	default:
		return fmt.Errorf("BOOK_STRATEGY %q: want levels or sorted", c.Engine.BookStrategy)
	}
	if c.Engine.MatchInterval <= 0 {
		return fmt.Errorf("MATCH_INTERVAL_MS must be positive")
	}
	if c.Engine.PriceSamples <= 0 {
		return fmt.Errorf("PRICE_SAMPLES must be positive")
	}
	if c.Server.MaxFrame == 0 {
		return fmt.Errorf("MAX_FRAME_BYTES must be positive")
	}
	if c.Feeder.Enabled {
		switch c.Feeder.Mode {
		case "gaussian", "randomwalk":
		default:
			return fmt.Errorf("FEEDER_MODE %q: want gaussian or randomwalk", c.Feeder.Mode)
		}
		if c.Feeder.Interval <= 0 {
			return fmt.Errorf("FEEDER_INTERVAL_MS must be positive")
		}
	}
	return nil
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getMillis(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}
