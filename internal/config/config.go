package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/colegioelo/vagas/internal/domain/models"
)

// Config represents the full application configuration surface. It is loaded once
// at process start and passed by value afterwards.
type Config struct {
	Server    ServerConfig
	Portal    PortalConfig
	Extractor ExtractorConfig
	Browser   BrowserConfig
	Storage   StorageConfig
	MongoDB   MongoDBConfig
	Sheets    SheetsConfig
	Schedule  ScheduleConfig
	Heartbeat HeartbeatConfig
	Log       LogConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// PortalConfig contains the credentials and unit list of the student-information portal.
type PortalConfig struct {
	LoginURL        string
	InstitutionCode string
	Username        string
	Password        string
	Period          string
	Units           []models.UnitDescriptor `validate:"min=1,dive"`
	ReportPath      string
	// LoginTimeout bounds the wait for the unit-selection redirect.
	LoginTimeout time.Duration
	// ReportTimeout bounds the wait for the report generate control.
	ReportTimeout time.Duration
	PollInterval  time.Duration
	// Settle is the pause granted to the portal after navigations and clicks.
	Settle time.Duration
}

// ExtractorConfig controls report detection and parsing.
type ExtractorConfig struct {
	Marker            string
	ExcludedKeywords  []string
	FramePollInterval time.Duration
	FramePollAttempts int
}

// BrowserConfig holds the local Chromium options.
type BrowserConfig struct {
	Headless          bool
	BinPath           string
	ActionTimeout     time.Duration
	NavigationTimeout time.Duration
}

// StorageConfig locates the history database and the latest documents.
type StorageConfig struct {
	OutputDir    string
	DatabasePath string
}

// MongoDBConfig holds settings for the optional latest-documents mirror.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Enabled reports whether the MongoDB mirror is configured.
func (c MongoDBConfig) Enabled() bool {
	return c.URI != ""
}

// SheetsConfig contains configuration required to publish to Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	SummaryRange    string
	TrendRange      string
}

// Enabled reports whether Google Sheets publishing is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// ScheduleConfig holds scheduler-related settings.
type ScheduleConfig struct {
	CronSchedule string
	Timezone     string
	RunTimeout   time.Duration
}

// HeartbeatConfig configures the cron monitor ping.
type HeartbeatConfig struct {
	URL     string
	Timeout time.Duration
}

// LogConfig selects logger level and encoding.
type LogConfig struct {
	Level  string
	Format string
}

// DefaultUnits mirrors the current deployment.
var DefaultUnits = []models.UnitDescriptor{
	{ID: "17", Name: "1 - BV (Boa Viagem)", Code: "01-BV"},
	{ID: "18", Name: "2 - CD (Jaboatão)", Code: "02-CD"},
	{ID: "19", Name: "3 - JG (Paulista)", Code: "03-JG"},
	{ID: "20", Name: "4 - CDR (Cordeiro)", Code: "04-CDR"},
}

// DefaultExcludedKeywords lists course name fragments that are not academic capacity:
// sports, full-day and complementary programs, snacks, elective courses, transport.
var DefaultExcludedKeywords = []string{
	"esporte", "ballet", "futsal", "judô", "judo", "voleibol", "basquete",
	"ginástica", "ginastica", "karatê", "karate",
	"integral", "complementar",
	"lanche saudável", "lanche saudavel",
	"curso livre", "cursos livres",
	"transporte",
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable when configuration comes from the
		// environment directly.
		_ = godotenv.Load()
	}

	units, err := parseUnits(os.Getenv("PORTAL_UNITS"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Portal: PortalConfig{
			LoginURL:        getenvWithDefault("PORTAL_URL", "https://siga.activesoft.com.br/login/"),
			InstitutionCode: os.Getenv("PORTAL_INSTITUTION"),
			Username:        os.Getenv("PORTAL_USERNAME"),
			Password:        os.Getenv("PORTAL_PASSWORD"),
			Period:          os.Getenv("PORTAL_PERIOD"),
			Units:           units,
			ReportPath:      getenvWithDefault("REPORT_PATH", "/busca_central_relatorios/?relatorio=aluno_turma/resumo_vagas_por_turma"),
			LoginTimeout:    getenvDuration("PORTAL_LOGIN_TIMEOUT", 60*time.Second),
			ReportTimeout:   getenvDuration("PORTAL_REPORT_TIMEOUT", 30*time.Second),
			PollInterval:    getenvDuration("PORTAL_POLL_INTERVAL", time.Second),
			Settle:          getenvDuration("PORTAL_SETTLE", 2*time.Second),
		},
		Extractor: ExtractorConfig{
			Marker:            getenvWithDefault("REPORT_MARKER", "Total geral"),
			ExcludedKeywords:  parseList(getenvWithDefault("EXCLUDED_KEYWORDS", strings.Join(DefaultExcludedKeywords, ","))),
			FramePollInterval: getenvDuration("FRAME_POLL_INTERVAL", 5*time.Second),
			FramePollAttempts: getenvInt("FRAME_POLL_ATTEMPTS", 12),
		},
		Browser: BrowserConfig{
			Headless:          getenvBool("BROWSER_HEADLESS", true),
			BinPath:           os.Getenv("BROWSER_BIN"),
			ActionTimeout:     getenvDuration("BROWSER_ACTION_TIMEOUT", 10*time.Second),
			NavigationTimeout: getenvDuration("BROWSER_NAVIGATION_TIMEOUT", 120*time.Second),
		},
		Storage: StorageConfig{
			OutputDir:    getenvWithDefault("OUTPUT_DIR", "output"),
			DatabasePath: getenvWithDefault("DATABASE_PATH", "output/vagas.db"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "vagas"),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_ID"),
			SummaryRange:    getenvWithDefault("GOOGLE_SHEET_SUMMARY_RANGE", "Resumo!A:H"),
			TrendRange:      getenvWithDefault("GOOGLE_SHEET_TREND_RANGE", "Historico!A:G"),
		},
		Schedule: ScheduleConfig{
			CronSchedule: getenvWithDefault("EXTRACT_CRON_SCHEDULE", "0 6 * * *"),
			Timezone:     getenvWithDefault("TIMEZONE", "America/Recife"),
			RunTimeout:   getenvDuration("EXTRACT_RUN_TIMEOUT", 30*time.Minute),
		},
		Heartbeat: HeartbeatConfig{
			URL:     os.Getenv("HEARTBEAT_URL"),
			Timeout: getenvDuration("HEARTBEAT_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level:  getenvWithDefault("LOG_LEVEL", "info"),
			Format: getenvWithDefault("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

var validate = validator.New()

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.Portal.LoginURL == "":
		return errors.New("PORTAL_URL must not be empty")
	case c.Portal.InstitutionCode == "":
		return errors.New("PORTAL_INSTITUTION must be provided")
	case c.Portal.Username == "":
		return errors.New("PORTAL_USERNAME must be provided")
	case c.Portal.Password == "":
		return errors.New("PORTAL_PASSWORD must be provided")
	case c.Portal.Period == "":
		return errors.New("PORTAL_PERIOD must be provided")
	}

	if err := validate.Struct(c.Portal); err != nil {
		return fmt.Errorf("PORTAL_UNITS is invalid: %w", err)
	}

	if c.Extractor.Marker == "" {
		return errors.New("REPORT_MARKER must not be empty")
	}

	if c.Extractor.FramePollAttempts < 1 {
		return errors.New("FRAME_POLL_ATTEMPTS must be at least 1")
	}

	if c.Storage.DatabasePath == "" {
		return errors.New("DATABASE_PATH must not be empty")
	}

	if c.Storage.OutputDir == "" {
		return errors.New("OUTPUT_DIR must not be empty")
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_ID must be provided together")
	}

	if c.Schedule.CronSchedule == "" {
		return errors.New("EXTRACT_CRON_SCHEDULE must be provided")
	}

	if c.Schedule.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	return nil
}

// parseUnits reads "id|name|code" entries separated by semicolons.
func parseUnits(raw string) ([]models.UnitDescriptor, error) {
	if strings.TrimSpace(raw) == "" {
		units := make([]models.UnitDescriptor, len(DefaultUnits))
		copy(units, DefaultUnits)
		return units, nil
	}

	var units []models.UnitDescriptor
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, "|")
		if len(parts) != 3 {
			return nil, fmt.Errorf("PORTAL_UNITS entry %q must be id|name|code", entry)
		}
		units = append(units, models.UnitDescriptor{
			ID:   strings.TrimSpace(parts[0]),
			Name: strings.TrimSpace(parts[1]),
			Code: strings.TrimSpace(parts[2]),
		})
	}
	return units, nil
}

func parseList(raw string) []string {
	var values []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return d
}
