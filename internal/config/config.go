package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPAddr      string
	BasePublicURL string

	SpreadsheetID            string
	GoogleServiceAccountJSON string
	SheetName                string
	DriveFolderName          string

	SQLitePath    string
	ScreenshotDir string

	TelegramToken string
	AdminTGIDs    map[int64]bool

	// IntakeURL is where the submission adapter delivers finished
	// records. Empty means demo mode: log and report success.
	IntakeURL string

	ExportSecret string

	PaymentProvider      string
	PaymentWebhookSecret string
}

func FromEnv() (Config, error) {
	var c Config

	c.HTTPAddr = strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if c.HTTPAddr == "" {
		c.HTTPAddr = ":8080"
	}
	c.BasePublicURL = strings.TrimRight(strings.TrimSpace(os.Getenv("BASE_PUBLIC_URL")), "/")

	c.SpreadsheetID = strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID"))
	c.GoogleServiceAccountJSON = strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	c.SheetName = strings.TrimSpace(os.Getenv("SHEET_NAME"))
	if c.SheetName == "" {
		c.SheetName = "Registrations"
	}
	c.DriveFolderName = strings.TrimSpace(os.Getenv("DRIVE_FOLDER_NAME"))
	if c.DriveFolderName == "" {
		c.DriveFolderName = "HACKFINITY Payment Screenshots"
	}

	c.SQLitePath = strings.TrimSpace(os.Getenv("SQLITE_PATH"))
	if c.SQLitePath == "" {
		c.SQLitePath = "registrations.db"
	}
	c.ScreenshotDir = strings.TrimSpace(os.Getenv("SCREENSHOT_DIR"))
	if c.ScreenshotDir == "" {
		c.ScreenshotDir = "screenshots"
	}

	c.TelegramToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	c.AdminTGIDs = parseAdminIDs(os.Getenv("ADMIN_TG_IDS"))

	c.IntakeURL = strings.TrimSpace(os.Getenv("INTAKE_URL"))

	c.ExportSecret = strings.TrimSpace(os.Getenv("EXPORT_SECRET"))
	if c.ExportSecret == "" {
		c.ExportSecret = "change-me"
	}

	c.PaymentProvider = strings.TrimSpace(os.Getenv("PAYMENT_PROVIDER"))
	if c.PaymentProvider == "" {
		c.PaymentProvider = "stub"
	}
	c.PaymentWebhookSecret = strings.TrimSpace(os.Getenv("PAYMENT_WEBHOOK_SECRET"))
	if c.PaymentWebhookSecret == "" {
		c.PaymentWebhookSecret = "change-me"
	}

	if c.SpreadsheetID != "" && c.GoogleServiceAccountJSON == "" {
		return c, fmt.Errorf("GOOGLE_SHEETS_SPREADSHEET_ID is set but GOOGLE_SERVICE_ACCOUNT_JSON is empty")
	}
	if c.SpreadsheetID == "" && c.GoogleServiceAccountJSON != "" {
		return c, fmt.Errorf("GOOGLE_SERVICE_ACCOUNT_JSON is set but GOOGLE_SHEETS_SPREADSHEET_ID is empty")
	}

	return c, nil
}

// UseGoogle reports whether registrations go to Google Sheets/Drive.
// Without credentials the service runs on the local SQLite store.
func (c Config) UseGoogle() bool {
	return c.SpreadsheetID != "" && c.GoogleServiceAccountJSON != ""
}

func parseAdminIDs(raw string) map[int64]bool {
	m := map[int64]bool{}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return m
	}
	parts := strings.Split(raw, ",")
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			continue
		}
		m[v] = true
	}
	return m
}
