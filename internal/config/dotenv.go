package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	Port                       string
	DrawDurationSeconds        int
	MinPlayers                 int
	RoomCodeLength             int
	RoomCodeAttempts           int
	MaxNameLength              int
	MaxInventionLength         int
	MaxPitchLength             int
	MaxDrawingBytes            int
	EndDrawingWhenAllSubmitted bool
	StoreBackend               string
	DatabaseURL                string
	NotifyChannel              string
	DBMaxOpenConns             int
	DBMaxIdleConns             int
	DBConnMaxLifetimeSeconds   int
	DBConnMaxIdleTimeSeconds   int
	LogLevel                   string
	LogPretty                  bool
	AllowedOrigins             []string
	RateLimitPerMinute         int
	RateLimitBurst             int
}

// MaxRoomCodeLength bounds room codes; rooms.code is a varchar(12).
const MaxRoomCodeLength = 12

func Default() Config {
	return Config{
		Port:                     "8080",
		DrawDurationSeconds:      60,
		MinPlayers:               2,
		RoomCodeLength:           4,
		RoomCodeAttempts:         10,
		MaxNameLength:            20,
		MaxInventionLength:       140,
		MaxPitchLength:           600,
		MaxDrawingBytes:          512 * 1024,
		StoreBackend:             StoreMemory,
		NotifyChannel:            "room_changes",
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
		LogLevel:                 "info",
		RateLimitPerMinute:       30,
		RateLimitBurst:           10,
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("PORT"); raw != "" {
		cfg.Port = raw
	}
	if raw := os.Getenv("DRAW_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DrawDurationSeconds = value
		}
	}
	if raw := os.Getenv("MIN_PLAYERS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 2 {
			cfg.MinPlayers = value
		}
	}
	if raw := os.Getenv("ROOM_CODE_LENGTH"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 3 {
			cfg.RoomCodeLength = min(value, MaxRoomCodeLength)
		}
	}
	if raw := os.Getenv("ROOM_CODE_ATTEMPTS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.RoomCodeAttempts = value
		}
	}
	if raw := os.Getenv("MAX_NAME_LENGTH"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.MaxNameLength = value
		}
	}
	if raw := os.Getenv("MAX_INVENTION_LENGTH"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.MaxInventionLength = value
		}
	}
	if raw := os.Getenv("MAX_PITCH_LENGTH"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.MaxPitchLength = value
		}
	}
	if raw := os.Getenv("MAX_DRAWING_BYTES"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.MaxDrawingBytes = value
		}
	}
	if raw := os.Getenv("END_DRAWING_WHEN_ALL_SUBMITTED"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.EndDrawingWhenAllSubmitted = value
		}
	}
	if raw := os.Getenv("STORE_BACKEND"); raw != "" {
		cfg.StoreBackend = strings.ToLower(strings.TrimSpace(raw))
	}
	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		cfg.DatabaseURL = raw
	}
	if raw := os.Getenv("NOTIFY_CHANNEL"); raw != "" {
		cfg.NotifyChannel = raw
	}
	if raw := os.Getenv("DB_MAX_OPEN_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxOpenConns = value
		}
	}
	if raw := os.Getenv("DB_MAX_IDLE_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxIdleConns = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_LIFETIME_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxLifetimeSeconds = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_IDLE_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxIdleTimeSeconds = value
		}
	}
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		cfg.LogLevel = strings.ToLower(raw)
	}
	if raw := os.Getenv("LOG_PRETTY"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.LogPretty = value
		}
	}
	if raw := os.Getenv("RATE_LIMIT_PER_MINUTE"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value >= 0 {
			cfg.RateLimitPerMinute = value
		}
	}
	if raw := os.Getenv("RATE_LIMIT_BURST"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.RateLimitBurst = value
		}
	}
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		cfg.AllowedOrigins = splitList(raw)
	}
	return cfg
}

func splitList(raw string) []string {
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			values = append(values, part)
		}
	}
	return values
}
