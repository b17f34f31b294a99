package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultSalarySchedule = "FREQ=MONTHLY;BYMONTHDAY=-1;BYHOUR=23;BYMINUTE=30;BYSECOND=0"

type Config struct {
	Port      string `yaml:"port"`
	AppEnv    string `yaml:"app_env"`
	ClientURL string `yaml:"client_url"`
	JWTSecret string `yaml:"jwt_secret"`

	DBHost     string `yaml:"db_host"`
	DBUser     string `yaml:"db_user"`
	DBPassword string `yaml:"db_password"`
	DBName     string `yaml:"db_name"`
	DBPort     string `yaml:"db_port"`
	DBSSLMode  string `yaml:"db_sslmode"`

	RedisAddr   string `yaml:"redis_addr"`
	KafkaBroker string `yaml:"kafka_broker"`

	SalaryWorkers         int           `yaml:"salary_workers"`
	SalaryEmployeeTimeout time.Duration `yaml:"salary_employee_timeout"`
	SalarySchedule        string        `yaml:"salary_schedule"`
	LateAfter             string        `yaml:"late_after"`
	OutboxPollInterval    time.Duration `yaml:"outbox_poll_interval"`
}

func defaults() Config {
	return Config{
		Port:                  "3000",
		AppEnv:                "development",
		ClientURL:             "http://localhost:3000",
		DBPort:                "5432",
		DBSSLMode:             "disable",
		SalaryWorkers:         8,
		SalaryEmployeeTimeout: 10 * time.Second,
		SalarySchedule:        defaultSalarySchedule,
		LateAfter:             "09:00",
		OutboxPollInterval:    3 * time.Second,
	}
}

// Load reads the optional YAML file named by CONFIG_FILE and then applies
// environment variables on top. Call godotenv.Load before Load.
func Load() (*Config, error) {
	c := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"PORT":            &c.Port,
		"APP_ENV":         &c.AppEnv,
		"CLIENT_URL":      &c.ClientURL,
		"JWT_SECRET":      &c.JWTSecret,
		"DB_HOST":         &c.DBHost,
		"DB_USER":         &c.DBUser,
		"DB_PASSWORD":     &c.DBPassword,
		"DB_NAME":         &c.DBName,
		"DB_PORT":         &c.DBPort,
		"DB_SSLMODE":      &c.DBSSLMode,
		"REDIS_ADDR":      &c.RedisAddr,
		"KAFKA_BROKER":    &c.KafkaBroker,
		"SALARY_SCHEDULE": &c.SalarySchedule,
		"LATE_AFTER":      &c.LateAfter,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("SALARY_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SALARY_WORKERS: %w", err)
		}
		c.SalaryWorkers = n
	}

	durations := map[string]*time.Duration{
		"SALARY_EMPLOYEE_TIMEOUT": &c.SalaryEmployeeTimeout,
		"OUTBOX_POLL_INTERVAL":    &c.OutboxPollInterval,
	}
	for key, dst := range durations {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}
	return nil
}

func (c *Config) Validate() error {
	if c.DBHost == "" || c.DBUser == "" || c.DBName == "" {
		return errors.New("missing required database configuration")
	}
	if c.RedisAddr == "" {
		return errors.New("REDIS_ADDR is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.SalaryWorkers < 1 {
		return errors.New("SALARY_WORKERS must be at least 1")
	}
	if c.SalaryEmployeeTimeout <= 0 {
		return errors.New("SALARY_EMPLOYEE_TIMEOUT must be positive")
	}
	if _, _, err := c.LateAfterClock(); err != nil {
		return err
	}
	return nil
}

// LateAfterClock returns the hour and minute after which a check-in is late.
func (c *Config) LateAfterClock() (int, int, error) {
	t, err := time.Parse("15:04", c.LateAfter)
	if err != nil {
		return 0, 0, fmt.Errorf("LATE_AFTER must be HH:MM: %w", err)
	}
	return t.Hour(), t.Minute(), nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
