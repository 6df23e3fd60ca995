package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dar-review-api/utils"

	"github.com/joho/godotenv"
)

// Settings collects the environment the service and its tools run with.
type Settings struct {
	ServerPort  string
	GinMode     string
	JWTSecret   string
	Environment string
	DebugSQL    bool

	AllowedOrigins []string
	// LogFile is teed with stdout; empty logs to stdout only.
	LogFile string

	DBHost     string
	DBPort     string
	DBDatabase string
	DBUsername string
	DBPassword string

	TxTimeout        time.Duration
	ApprovalValidity time.Duration

	ReminderDays     int
	ReminderSchedule string
	RepMailbox       []string
	DACMailbox       []string
	// ReviewerRoleIDs limits the attention listing to these JWT roles when set.
	ReviewerRoleIDs []int

	SMTP SMTPSettings
}

// SMTPSettings configures outgoing reminder mail.
type SMTPSettings struct {
	Host          string
	Port          int
	User          string
	Pass          string
	From          string
	SkipTLSVerify bool
}

// LoadEnv reads .env when present. Variables already set in the environment win.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
}

// LoadSettings reads Settings from the environment, applying defaults.
func LoadSettings() Settings {
	return Settings{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		Environment: strings.ToLower(os.Getenv("ENVIRONMENT")),
		DebugSQL:    strings.ToLower(os.Getenv("DEBUG_SQL")) == "true",

		AllowedOrigins: utils.SplitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		LogFile:        logFileSetting(),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBDatabase: os.Getenv("DB_DATABASE"),
		DBUsername: os.Getenv("DB_USERNAME"),
		DBPassword: os.Getenv("DB_PASSWORD"),

		TxTimeout:        getDuration("DAR_TX_TIMEOUT", 5*time.Second),
		ApprovalValidity: time.Duration(getInt("DAR_APPROVAL_VALIDITY_DAYS", 0)) * 24 * time.Hour,

		ReminderDays:     getInt("DAR_REMINDER_DAYS", 7),
		ReminderSchedule: getEnv("DAR_REMINDER_SCHEDULE", "0 8 * * *"),
		RepMailbox:       utils.SplitList(os.Getenv("DAR_REP_MAILBOX")),
		DACMailbox:       utils.SplitList(os.Getenv("DAR_DAC_MAILBOX")),
		ReviewerRoleIDs:  getIntList("DAR_REVIEWER_ROLE_IDS"),

		SMTP: SMTPSettings{
			Host:          os.Getenv("SMTP_HOST"),
			Port:          getInt("SMTP_PORT", 587),
			User:          os.Getenv("SMTP_USER"),
			Pass:          os.Getenv("SMTP_PASS"),
			From:          os.Getenv("SMTP_FROM"), // e.g. "DAR Office <no-reply@your.org>"
			SkipTLSVerify: os.Getenv("SMTP_SKIP_TLS_VERIFY") == "1",
		},
	}
}

// IsProduction reports whether ENVIRONMENT is production.
func (s Settings) IsProduction() bool {
	return s.Environment == "production"
}

// logFileSetting reads LOG_FILE; "-" disables the file.
func logFileSetting() string {
	switch v := strings.TrimSpace(os.Getenv("LOG_FILE")); v {
	case "":
		return filepath.Join("logs", "dar-api.log")
	case "-":
		return ""
	default:
		return v
	}
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %d", key, raw, fallback)
		return fallback
	}
	return v
}

// getDuration accepts Go durations ("5s") or plain seconds ("5").
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("Warning: invalid %s=%q, using %s", key, raw, fallback)
	return fallback
}

func getIntList(key string) []int {
	var out []int
	for _, raw := range utils.SplitList(os.Getenv(key)) {
		v, err := strconv.Atoi(raw)
		if err != nil {
			log.Printf("Warning: ignoring invalid %s entry %q", key, raw)
			continue
		}
		out = append(out, v)
	}
	return out
}
