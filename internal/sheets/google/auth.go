package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Scopes requested by both the sink and the Drive source.
var Scopes = []string{gsheet.SpreadsheetsScope, drive.DriveReadonlyScope}

// Credentials holds the raw credential material. Inline JSON wins over a
// file path for each kind.
type Credentials struct {
	ServiceAccountJSON string
	ServiceAccountFile string
	OAuthClientJSON    string
	OAuthClientFile    string
	OAuthTokenJSON     string
	OAuthTokenFile     string
}

// CredentialsFromEnv reads the GOOGLE_* credential variables.
// GOOGLE_APPLICATION_CREDENTIALS is used when no service account file is set.
func CredentialsFromEnv() Credentials {
	c := Credentials{
		ServiceAccountJSON: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")),
		ServiceAccountFile: strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE")),
		OAuthClientJSON:    strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_CLIENT_JSON")),
		OAuthClientFile:    strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_CLIENT_FILE")),
		OAuthTokenJSON:     strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_TOKEN_JSON")),
		OAuthTokenFile:     strings.TrimSpace(os.Getenv("GOOGLE_OAUTH_TOKEN_FILE")),
	}
	if c.ServiceAccountFile == "" {
		c.ServiceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	return c
}

// HasOAuth reports whether both an OAuth client and a token are configured.
func (c Credentials) HasOAuth() bool {
	return (c.OAuthClientJSON != "" || c.OAuthClientFile != "") &&
		(c.OAuthTokenJSON != "" || c.OAuthTokenFile != "")
}

// HasServiceAccount reports whether service account material is configured.
func (c Credentials) HasServiceAccount() bool {
	return c.ServiceAccountJSON != "" || c.ServiceAccountFile != ""
}

// ClientOptions builds the option set shared by the Sheets and Drive services.
// User OAuth takes precedence over a service account.
func (c Credentials) ClientOptions(ctx context.Context) ([]goption.ClientOption, error) {
	switch {
	case c.HasOAuth():
		slog.DebugContext(ctx, "Using OAuth user credentials")
		ts, err := c.oauthTokenSource(ctx)
		if err != nil {
			return nil, err
		}
		return []goption.ClientOption{goption.WithTokenSource(ts)}, nil
	case c.HasServiceAccount():
		slog.DebugContext(ctx, "Using service account credentials", "file", c.ServiceAccountFile)
		raw, err := readInlineOrFile(c.ServiceAccountJSON, c.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account: %w", err)
		}
		return []goption.ClientOption{
			goption.WithCredentialsJSON(raw),
			goption.WithScopes(Scopes...),
		}, nil
	default:
		return nil, errors.New("missing Google credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_APPLICATION_CREDENTIALS or an OAuth client and token)")
	}
}

func (c Credentials) oauthTokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	clientRaw, err := readInlineOrFile(c.OAuthClientJSON, c.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client: %w", err)
	}
	cfg, err := googleoauth.ConfigFromJSON(clientRaw, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	tokRaw, err := readInlineOrFile(c.OAuthTokenJSON, c.OAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokRaw, &tok); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}
	return cfg.TokenSource(ctx, &tok), nil
}

func readInlineOrFile(inline, path string) ([]byte, error) {
	if inline != "" {
		return []byte(inline), nil
	}
	if path == "" {
		return nil, errors.New("not configured")
	}
	return os.ReadFile(path)
}
