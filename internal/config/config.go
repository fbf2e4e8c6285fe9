package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Indicator IndicatorConfig
	Mail      MailConfig
	Schedule  ScheduleConfig
	Archive   ArchiveConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Driver         string
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MaxConcurrency int64
}

type CacheConfig struct {
	Enabled          bool
	RedisURL         string
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	ReportTTLSeconds int
}

type IndicatorConfig struct {
	// ShortageTarget is the fixed META for the CORTE ratio, in percent.
	ShortageTarget string
	BaselineDays   int
	Timezone       string
	BranchLabels   map[string]string
}

type MailConfig struct {
	User         string
	Password     string
	Host         string
	Port         int
	To           []string
	Cc           []string
	Bcc          []string
	TemplatePath string
	FooterMD     string
}

type ScheduleConfig struct {
	TargetTime  string
	PollSeconds int
	StatePath   string
}

type ArchiveConfig struct {
	Backend         string
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3Bucket        string
	S3Region        string
	S3UseSSL        bool
	CredentialsJSON string
	DriveFolderPath string
}

type LogConfig struct {
	Level string
	Dir   string
	File  string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		setDefaults()

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Driver:         viper.GetString("DB_DRIVER"),
				Host:           viper.GetString("DB_HOST"),
				Port:           viper.GetString("DB_PORT"),
				User:           viper.GetString("DB_USER"),
				Password:       viper.GetString("DB_PASSWORD"),
				DBName:         viper.GetString("DB_NAME"),
				SSLMode:        viper.GetString("DB_SSLMODE"),
				MaxConcurrency: viper.GetInt64("DB_MAX_CONCURRENCY"),
			},
			Cache: CacheConfig{
				Enabled:          viper.GetBool("CACHE_ENABLED"),
				RedisURL:         viper.GetString("REDIS_URL"),
				RedisHost:        viper.GetString("REDIS_HOST"),
				RedisPort:        viper.GetString("REDIS_PORT"),
				RedisPassword:    viper.GetString("REDIS_PASSWORD"),
				RedisDB:          viper.GetInt("REDIS_DB"),
				ReportTTLSeconds: viper.GetInt("CACHE_REPORT_TTL_SECONDS"),
			},
			Indicator: IndicatorConfig{
				ShortageTarget: viper.GetString("INDICATOR_SHORTAGE_TARGET"),
				BaselineDays:   viper.GetInt("INDICATOR_BASELINE_DAYS"),
				Timezone:       viper.GetString("APP_TIMEZONE"),
				BranchLabels:   ParseBranchLabels(viper.GetString("BRANCH_LABELS")),
			},
			Mail: MailConfig{
				User:         viper.GetString("EMAIL_USER"),
				Password:     viper.GetString("EMAIL_PASSWORD"),
				Host:         viper.GetString("OFFICE365_SMTP_SERVER"),
				Port:         viper.GetInt("OFFICE365_SMTP_PORT"),
				To:           ParseRecipients(viper.GetString("EMAIL_PARA")),
				Cc:           ParseRecipients(viper.GetString("EMAIL_CC")),
				Bcc:          ParseRecipients(viper.GetString("EMAIL_CCO")),
				TemplatePath: viper.GetString("EMAIL_TEMPLATE_PATH"),
				FooterMD:     viper.GetString("EMAIL_FOOTER_MD"),
			},
			Schedule: ScheduleConfig{
				TargetTime:  viper.GetString("CORTE_TARGET_TIME"),
				PollSeconds: viper.GetInt("CORTE_POLL_SECONDS"),
				StatePath:   viper.GetString("STATE_PATH"),
			},
			Archive: ArchiveConfig{
				Backend:         strings.ToLower(viper.GetString("ARCHIVE_BACKEND")),
				S3Endpoint:      viper.GetString("S3_ENDPOINT"),
				S3AccessKey:     viper.GetString("S3_ACCESS_KEY"),
				S3SecretKey:     viper.GetString("S3_SECRET_KEY"),
				S3Bucket:        viper.GetString("S3_BUCKET"),
				S3Region:        viper.GetString("S3_REGION"),
				S3UseSSL:        viper.GetBool("S3_USE_SSL"),
				CredentialsJSON: viper.GetString("GOOGLE_CREDENTIALS_JSON"),
				DriveFolderPath: viper.GetString("DRIVE_FOLDER_PATH"),
			},
			Log: LogConfig{
				Level: viper.GetString("LOG_LEVEL"),
				Dir:   viper.GetString("LOG_DIR"),
				File:  viper.GetString("LOG_FILE"),
			},
		}

		// Ensure the state and log directories exist
		ensureDir(filepath.Dir(instance.Schedule.StatePath))
		ensureDir(instance.Log.Dir)
	})

	return instance
}

// Reset drops the loaded configuration so the next Load re-reads the
// environment. Meant for tests.
func Reset() {
	once = sync.Once{}
	instance = nil
	viper.Reset()
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_MODE", "debug")
	viper.SetDefault("SERVER_READ_TIMEOUT", 15)
	viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})

	viper.SetDefault("DB_DRIVER", "pgx")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "erp")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_MAX_CONCURRENCY", 10)

	viper.SetDefault("CACHE_ENABLED", false)
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("REDIS_HOST", "127.0.0.1")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("CACHE_REPORT_TTL_SECONDS", 3600)

	viper.SetDefault("INDICATOR_SHORTAGE_TARGET", "0.03")
	viper.SetDefault("INDICATOR_BASELINE_DAYS", 90)
	viper.SetDefault("APP_TIMEZONE", "America/Fortaleza")
	viper.SetDefault("BRANCH_LABELS", "1=FARMAUM PB,2=FARMAUM RN,3=BRASIL")

	viper.SetDefault("OFFICE365_SMTP_SERVER", "smtp.office365.com")
	viper.SetDefault("OFFICE365_SMTP_PORT", 587)
	viper.SetDefault("EMAIL_TEMPLATE_PATH", "")
	viper.SetDefault("EMAIL_FOOTER_MD", "")

	viper.SetDefault("CORTE_TARGET_TIME", "08:00")
	viper.SetDefault("CORTE_POLL_SECONDS", 60)
	viper.SetDefault("STATE_PATH", "./state/sentinela_corte_state.json")

	viper.SetDefault("ARCHIVE_BACKEND", "none")
	viper.SetDefault("S3_REGION", "us-east-1")
	viper.SetDefault("S3_USE_SSL", true)

	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_DIR", "./log")
	viper.SetDefault("LOG_FILE", "Sentinela-Corte.log")
}

// Location resolves the configured timezone, falling back to the local one.
func (c IndicatorConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("unknown timezone %q, using local time: %v", c.Timezone, err)
		return time.Local
	}
	return loc
}

// TargetClock parses CORTE_TARGET_TIME (HH:MM) into hour and minute.
func (c ScheduleConfig) TargetClock() (int, int, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(c.TargetTime))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid target time %q: %w", c.TargetTime, err)
	}
	return t.Hour(), t.Minute(), nil
}

// PollInterval is the daily loop tick. Unset or negative means one minute.
func (c ScheduleConfig) PollInterval() time.Duration {
	if c.PollSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.PollSeconds) * time.Second
}

// ParseRecipients splits a comma separated address list, keeping only
// entries that look like e-mail addresses.
func ParseRecipients(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if !strings.Contains(part, "@") {
			continue
		}
		out = append(out, part)
	}
	return out
}

// ParseBranchLabels reads "code=label" pairs separated by commas.
func ParseBranchLabels(raw string) map[string]string {
	labels := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		code, label, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		code, label = strings.TrimSpace(code), strings.TrimSpace(label)
		if code == "" || label == "" {
			continue
		}
		labels[code] = label
	}
	return labels
}

func ensureDir(dir string) {
	if dir == "" || dir == "." {
		return
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
