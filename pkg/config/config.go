package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	CORS          CORSConfig
	Log           LogConfig
	Attendance    AttendanceConfig
	Backfill      BackfillConfig
	Notifications NotificationsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AttendanceConfig tunes the reconciliation engine defaults.
type AttendanceConfig struct {
	Timezone               string
	DefaultStartHour       int
	DefaultEndHour         int
	GraceMinutes           int
	EarlyDepartureMinutes  int
	OvertimeAfterMinutes   int
	MinimumWorkMinutes     int
	OvertimeMultiplier     float64
	HolidayCacheTTL        time.Duration
	GeofenceCacheTTL       time.Duration
	AbsenceAlertWindowDays int
	AbsenceAlertThreshold  int
}

// BackfillConfig governs the autonomous auto-mark scheduler.
type BackfillConfig struct {
	Enabled          bool
	RunFullOnStart   bool
	DailyInterval    time.Duration
	GraceRunDelay    time.Duration
	EmployeePageSize int
}

// NotificationsConfig tunes the alert dispatch queue.
type NotificationsConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Attendance = AttendanceConfig{
		Timezone:               v.GetString("ATTENDANCE_TIMEZONE"),
		DefaultStartHour:       v.GetInt("ATTENDANCE_DEFAULT_START_HOUR"),
		DefaultEndHour:         v.GetInt("ATTENDANCE_DEFAULT_END_HOUR"),
		GraceMinutes:           v.GetInt("ATTENDANCE_GRACE_MINUTES"),
		EarlyDepartureMinutes:  v.GetInt("ATTENDANCE_EARLY_DEPARTURE_MINUTES"),
		OvertimeAfterMinutes:   v.GetInt("ATTENDANCE_OVERTIME_AFTER_MINUTES"),
		MinimumWorkMinutes:     v.GetInt("ATTENDANCE_MINIMUM_WORK_MINUTES"),
		OvertimeMultiplier:     v.GetFloat64("ATTENDANCE_OVERTIME_MULTIPLIER"),
		HolidayCacheTTL:        parseDuration(v.GetString("ATTENDANCE_HOLIDAY_CACHE_TTL"), time.Hour),
		GeofenceCacheTTL:       parseDuration(v.GetString("ATTENDANCE_GEOFENCE_CACHE_TTL"), 10*time.Minute),
		AbsenceAlertWindowDays: v.GetInt("ATTENDANCE_ABSENCE_ALERT_WINDOW_DAYS"),
		AbsenceAlertThreshold:  v.GetInt("ATTENDANCE_ABSENCE_ALERT_THRESHOLD"),
	}

	cfg.Backfill = BackfillConfig{
		Enabled:          v.GetBool("BACKFILL_ENABLED"),
		RunFullOnStart:   v.GetBool("BACKFILL_RUN_FULL_ON_START"),
		DailyInterval:    parseDuration(v.GetString("BACKFILL_DAILY_INTERVAL"), 24*time.Hour),
		GraceRunDelay:    parseDuration(v.GetString("BACKFILL_GRACE_RUN_DELAY"), time.Hour),
		EmployeePageSize: v.GetInt("BACKFILL_EMPLOYEE_PAGE_SIZE"),
	}

	cfg.Notifications = NotificationsConfig{
		Workers:    v.GetInt("NOTIFICATIONS_WORKERS"),
		BufferSize: v.GetInt("NOTIFICATIONS_BUFFER_SIZE"),
		MaxRetries: v.GetInt("NOTIFICATIONS_MAX_RETRIES"),
		RetryDelay: parseDuration(v.GetString("NOTIFICATIONS_RETRY_DELAY"), time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "hr_management")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ATTENDANCE_TIMEZONE", "")
	v.SetDefault("ATTENDANCE_DEFAULT_START_HOUR", 8)
	v.SetDefault("ATTENDANCE_DEFAULT_END_HOUR", 17)
	v.SetDefault("ATTENDANCE_GRACE_MINUTES", 15)
	v.SetDefault("ATTENDANCE_EARLY_DEPARTURE_MINUTES", 30)
	v.SetDefault("ATTENDANCE_OVERTIME_AFTER_MINUTES", 30)
	v.SetDefault("ATTENDANCE_MINIMUM_WORK_MINUTES", 240)
	v.SetDefault("ATTENDANCE_OVERTIME_MULTIPLIER", 1.5)
	v.SetDefault("ATTENDANCE_HOLIDAY_CACHE_TTL", "1h")
	v.SetDefault("ATTENDANCE_GEOFENCE_CACHE_TTL", "10m")
	v.SetDefault("ATTENDANCE_ABSENCE_ALERT_WINDOW_DAYS", 7)
	v.SetDefault("ATTENDANCE_ABSENCE_ALERT_THRESHOLD", 3)

	v.SetDefault("BACKFILL_ENABLED", true)
	v.SetDefault("BACKFILL_RUN_FULL_ON_START", true)
	v.SetDefault("BACKFILL_DAILY_INTERVAL", "24h")
	v.SetDefault("BACKFILL_GRACE_RUN_DELAY", "1h")
	v.SetDefault("BACKFILL_EMPLOYEE_PAGE_SIZE", 200)

	v.SetDefault("NOTIFICATIONS_WORKERS", 2)
	v.SetDefault("NOTIFICATIONS_BUFFER_SIZE", 64)
	v.SetDefault("NOTIFICATIONS_MAX_RETRIES", 3)
	v.SetDefault("NOTIFICATIONS_RETRY_DELAY", "1s")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
