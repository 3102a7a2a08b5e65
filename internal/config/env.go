package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"golang.org/x/term"
)

// Config contains all configuration parameters for the application.
type Config struct {
	Port     string `envconfig:"PORT" default:"8085"`
	DataPath string `envconfig:"DATA_PATH" default:"webcasa.db"`
	BaseURL  string `envconfig:"BASE_URL" default:"http://localhost:8085"`
	LogFile  string `envconfig:"LOG_FILE" default:"webcasad.log"`

	// GapLimit is the default recovery search depth when a request does not
	// supply one.
	GapLimit uint64 `envconfig:"GAP_LIMIT" default:"20"`

	// ReceiveURL optionally carries a claim link (".../?receive=e...&memo=...")
	// to stage as a one-shot receive action at startup.
	ReceiveURL string `envconfig:"RECEIVE_URL"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from environment variables.
func Init() error {
	cfg = &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("failed to process config: %w", err)
	}
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// GetPort returns port from configuration
func GetPort() string {
	return Get().Port
}

// GetDataPath returns the slot database path from configuration
func GetDataPath() string {
	return Get().DataPath
}

// GetBaseURL returns the canonical address the daemon is reachable at
func GetBaseURL() string {
	return Get().BaseURL
}

// GetLogFile returns the log file path from configuration
func GetLogFile() string {
	return Get().LogFile
}

// GetGapLimit returns the default recovery gap limit from configuration
func GetGapLimit() uint64 {
	return Get().GapLimit
}

// GetReceiveURL returns the startup claim link, if any
func GetReceiveURL() string {
	return Get().ReceiveURL
}

// PromptForPassword prompts the user for the wallet password in the terminal.
// The password is read without echoing (hidden input). Used to unlock an
// encrypted wallet at daemon start instead of through the unlock endpoint.
func PromptForPassword() (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("stdin is not a terminal: run the app interactively to enter password")
	}
	fmt.Fprint(os.Stderr, "Enter wallet password: ")
	defer fmt.Fprintln(os.Stderr)

	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return "", errors.New("password cannot be empty")
	}

	password := string(raw)
	clear(raw)
	return password, nil
}
