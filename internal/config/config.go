package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"

	"ytearnings/internal/core"
)

const (
	SourceLocal = "local"
	SourceDrive = "drive"

	SinkSheets = "sheets"
	SinkXLSX   = "xlsx"
	SinkMemory = "memory"
)

type Config struct {
	// Report source
	SourceBackend    string
	SourceDir        string
	DriveFolderID    string
	DriveTestFolder  string
	DriveConcurrency int

	// Spreadsheet sink
	SinkBackend             string
	GoogleSpreadsheetID     string
	GoogleTestSpreadsheetID string
	SheetsRetryAttempts     int
	XLSXPath                string
	XLSXTestPath            string

	// Google credentials
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string
	GoogleOAuthClientFile    string
	GoogleOAuthTokenFile     string
	GoogleOAuthClientJSON    string
	GoogleOAuthTokenJSON     string

	// Output layout
	ReferenceTab    string
	NegativePayouts bool
	SkipPrefixes    []string

	// Amount parsing
	CurrencySymbols string
	ParenNegative   bool
	AllowNegative   bool

	// Ledger database
	LedgerDBPath string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	LogLevel string

	// TestMode targets the sandbox spreadsheet, folder and workbook.
	TestMode bool
}

func Load() *Config {
	saFile := getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	if saFile == "" {
		saFile = getEnv("GOOGLE_APPLICATION_CREDENTIALS", "")
	}
	return &Config{
		SourceBackend:    getEnv("SOURCE_BACKEND", SourceLocal),
		SourceDir:        getEnv("SOURCE_DIR", "."),
		DriveFolderID:    getEnv("DRIVE_FOLDER_ID", ""),
		DriveTestFolder:  getEnv("DRIVE_TEST_FOLDER_ID", ""),
		DriveConcurrency: getEnvInt("DRIVE_CONCURRENCY", 4),

		SinkBackend:             getEnv("SINK_BACKEND", SinkSheets),
		GoogleSpreadsheetID:     getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleTestSpreadsheetID: getEnv("GOOGLE_TEST_SPREADSHEET_ID", ""),
		SheetsRetryAttempts:     getEnvInt("SHEETS_RETRY_ATTEMPTS", 3),
		XLSXPath:                getEnv("XLSX_PATH", "./data/consolidated.xlsx"),
		XLSXTestPath:            getEnv("XLSX_TEST_PATH", "./data/consolidated-test.xlsx"),

		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
		GoogleServiceAccountFile: saFile,
		GoogleOAuthClientFile:    getEnv("GOOGLE_OAUTH_CLIENT_FILE", ""),
		GoogleOAuthTokenFile:     getEnv("GOOGLE_OAUTH_TOKEN_FILE", ""),
		GoogleOAuthClientJSON:    getEnv("GOOGLE_OAUTH_CLIENT_JSON", ""),
		GoogleOAuthTokenJSON:     getEnv("GOOGLE_OAUTH_TOKEN_JSON", ""),

		ReferenceTab:    getEnv("REFERENCE_TAB", "JobCodeImport"),
		NegativePayouts: getEnvBool("NEGATIVE_PAYOUTS", false),
		SkipPrefixes:    getEnvList("SKIP_FILE_PREFIXES", []string{"Consolidated Earnings Sheet"}),

		CurrencySymbols: getEnv("AMOUNT_CURRENCY_SYMBOLS", "$€£¥"),
		ParenNegative:   getEnvBool("AMOUNT_PAREN_NEGATIVE", true),
		AllowNegative:   getEnvBool("AMOUNT_ALLOW_NEGATIVE", true),

		LedgerDBPath: getEnvOptional("LEDGER_DB_PATH", "./data/ledger.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "ytearnings"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "period_published"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// SpreadsheetID is the destination spreadsheet for the current run mode.
func (c *Config) SpreadsheetID() string {
	if c.TestMode {
		return c.GoogleTestSpreadsheetID
	}
	return c.GoogleSpreadsheetID
}

// DriveFolder is the source folder (id or URL) for the current run mode.
func (c *Config) DriveFolder() string {
	if c.TestMode {
		return c.DriveTestFolder
	}
	return c.DriveFolderID
}

// WorkbookPath is the xlsx destination for the current run mode.
func (c *Config) WorkbookPath() string {
	if c.TestMode {
		return c.XLSXTestPath
	}
	return c.XLSXPath
}

func (c *Config) AmountFormat() core.AmountFormat {
	return core.AmountFormat{
		CurrencySymbols: c.CurrencySymbols,
		ParenNegative:   c.ParenNegative,
		AllowNegative:   c.AllowNegative,
	}
}

// UsesGoogle reports whether the configured backends need Google credentials.
func (c *Config) UsesGoogle() bool {
	return c.SourceBackend == SourceDrive || c.SinkBackend == SinkSheets
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	validSources := []string{SourceLocal, SourceDrive}
	if !slices.Contains(validSources, c.SourceBackend) {
		errors = append(errors, fmt.Sprintf("invalid source backend '%s': must be one of %v", c.SourceBackend, validSources))
	}
	validSinks := []string{SinkSheets, SinkXLSX, SinkMemory}
	if !slices.Contains(validSinks, c.SinkBackend) {
		errors = append(errors, fmt.Sprintf("invalid sink backend '%s': must be one of %v", c.SinkBackend, validSinks))
	}

	switch c.SourceBackend {
	case SourceLocal:
		if info, err := os.Stat(c.SourceDir); err != nil || !info.IsDir() {
			errors = append(errors, fmt.Sprintf("source directory does not exist: %s", c.SourceDir))
		}
	case SourceDrive:
		if c.DriveFolder() == "" {
			errors = append(errors, fmt.Sprintf("%s is required when using drive source", c.folderVar()))
		}
		if c.DriveConcurrency < 1 || c.DriveConcurrency > 16 {
			errors = append(errors, fmt.Sprintf("invalid drive concurrency %d: must be between 1 and 16", c.DriveConcurrency))
		}
	}

	switch c.SinkBackend {
	case SinkSheets:
		if c.SpreadsheetID() == "" {
			errors = append(errors, fmt.Sprintf("%s is required when using sheets sink", c.spreadsheetVar()))
		}
		if c.SheetsRetryAttempts < 1 || c.SheetsRetryAttempts > 10 {
			errors = append(errors, fmt.Sprintf("invalid sheets retry attempts %d: must be between 1 and 10", c.SheetsRetryAttempts))
		}
	case SinkXLSX:
		if c.WorkbookPath() == "" {
			errors = append(errors, "workbook path cannot be empty when using xlsx sink")
		}
	}

	if c.UsesGoogle() {
		errors = append(errors, c.validateCredentials()...)
	}

	if strings.TrimSpace(c.ReferenceTab) == "" {
		errors = append(errors, "reference tab name cannot be empty")
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func (c *Config) validateCredentials() []string {
	var errors []string
	hasClient := c.GoogleOAuthClientFile != "" || c.GoogleOAuthClientJSON != ""
	hasToken := c.GoogleOAuthTokenFile != "" || c.GoogleOAuthTokenJSON != ""
	hasSA := c.GoogleServiceAccountFile != "" || c.GoogleServiceAccountJSON != ""

	switch {
	case hasClient && hasToken:
	case hasSA:
	case hasClient:
		errors = append(errors, "either GOOGLE_OAUTH_TOKEN_FILE or GOOGLE_OAUTH_TOKEN_JSON must be provided with an OAuth client")
	default:
		errors = append(errors, "Google credentials are required: set a service account or an OAuth client and token")
	}

	for name, path := range map[string]string{
		"Google OAuth client file":    c.GoogleOAuthClientFile,
		"Google OAuth token file":     c.GoogleOAuthTokenFile,
		"Google service account file": c.GoogleServiceAccountFile,
	} {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("%s does not exist: %s", name, path))
		}
	}
	slices.Sort(errors)
	return errors
}

func (c *Config) folderVar() string {
	if c.TestMode {
		return "DRIVE_TEST_FOLDER_ID"
	}
	return "DRIVE_FOLDER_ID"
}

func (c *Config) spreadsheetVar() string {
	if c.TestMode {
		return "GOOGLE_TEST_SPREADSHEET_ID"
	}
	return "GOOGLE_SPREADSHEET_ID"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOptional returns defaultValue only when key is unset, so an explicit
// empty value disables the feature.
func getEnvOptional(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, dropping blank items.
func getEnvList(key string, defaultValue []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
