package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken string `mapstructure:"TELEGRAM_TOKEN"`
	DBDSN         string `mapstructure:"DB_DSN"`
	Environment   string `mapstructure:"ENV"`
	MigrationsDir string `mapstructure:"MIGRATIONS_DIR"`

	Engine Engine
}

// Engine параметры бронирования
type Engine struct {
	SlotWidth          time.Duration
	MaxRunLength       int
	ConfirmWindow      time.Duration
	CheckinGrace       time.Duration
	DropInDuration     time.Duration
	CountdownTick      time.Duration
	RefreshInterval    time.Duration
	DraftSweepInterval time.Duration
	OpenHour           int
	CloseHour          int
	Location           *time.Location
}

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	cfg, err := FromEnv(os.Getenv)
	if err != nil {
		return nil, err
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	log.Printf("Config loaded\n")

	return cfg, nil
}

// FromEnv читает конфигурацию через getenv и подставляет значения по умолчанию
func FromEnv(getenv func(string) string) (*Config, error) {
	p := parser{getenv: getenv}

	cfg := &Config{
		DBDSN:         getenv("DB_DSN"),
		TelegramToken: getenv("TELEGRAM_TOKEN"),
		Environment:   getenv("ENV"),
		MigrationsDir: getenv("MIGRATIONS_DIR"),
		Engine: Engine{
			SlotWidth:          time.Duration(p.int("SLOT_MINUTES", 30)) * time.Minute,
			MaxRunLength:       p.int("MAX_RUN_LENGTH", 4),
			ConfirmWindow:      p.duration("CONFIRM_WINDOW", 5*time.Minute),
			CheckinGrace:       p.duration("CHECKIN_GRACE", 10*time.Minute),
			DropInDuration:     p.duration("DROPIN_DURATION", 2*time.Hour),
			CountdownTick:      p.duration("COUNTDOWN_TICK", time.Second),
			RefreshInterval:    p.duration("REFRESH_INTERVAL", 10*time.Second),
			DraftSweepInterval: p.duration("DRAFT_SWEEP_INTERVAL", time.Minute),
			OpenHour:           p.int("OPEN_HOUR", 10),
			CloseHour:          p.int("CLOSE_HOUR", 18),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	locName := getenv("LOCATION")
	if locName == "" {
		locName = "America/New_York"
	}
	loc, err := time.LoadLocation(locName)
	if err != nil {
		p.fail("LOCATION", err)
	}
	cfg.Engine.Location = loc

	if p.err != nil {
		return nil, p.err
	}

	if cfg.Engine.SlotWidth <= 0 {
		return nil, fmt.Errorf("SLOT_MINUTES must be positive")
	}
	if cfg.Engine.MaxRunLength < 1 {
		return nil, fmt.Errorf("MAX_RUN_LENGTH must be at least 1")
	}
	if cfg.Engine.OpenHour < 0 || cfg.Engine.CloseHour > 24 || cfg.Engine.OpenHour >= cfg.Engine.CloseHour {
		return nil, fmt.Errorf("invalid operating hours %d-%d", cfg.Engine.OpenHour, cfg.Engine.CloseHour)
	}

	return cfg, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

// parser запоминает первую ошибку разбора
type parser struct {
	getenv func(string) string
	err    error
}

func (p *parser) int(key string, def int) int {
	raw := p.getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return v
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	raw := p.getenv(key)
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, err)
		return def
	}
	if v <= 0 {
		p.fail(key, fmt.Errorf("must be positive"))
		return def
	}
	return v
}

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("parse %s: %w", key, err)
	}
}
