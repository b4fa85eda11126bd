package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fivetwenty-io/twitch-client/internal/constants"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the on-disk CLI configuration.
type Config struct {
	ClientID       string     `json:"client_id,omitempty"        yaml:"client_id,omitempty"`
	ClientSecret   string     `json:"client_secret,omitempty"    yaml:"client_secret,omitempty"`
	AccessToken    string     `json:"access_token,omitempty"     yaml:"access_token,omitempty"`
	RefreshToken   string     `json:"refresh_token,omitempty"    yaml:"refresh_token,omitempty"`
	Scopes         []string   `json:"scopes,omitempty"           yaml:"scopes,omitempty"`
	TokenExpiresAt *time.Time `json:"token_expires_at,omitempty" yaml:"token_expires_at,omitempty"`
	LastRefreshed  *time.Time `json:"last_refreshed,omitempty"   yaml:"last_refreshed,omitempty"`

	Output  string `json:"output,omitempty"   validate:"omitempty,oneof=table json yaml" yaml:"output,omitempty"`
	Cache   string `json:"cache,omitempty"    validate:"omitempty,oneof=none memory nats" yaml:"cache,omitempty"`
	NATSURL string `json:"nats_url,omitempty" validate:"omitempty,url"                    yaml:"nats_url,omitempty"`

	HelixURL string `json:"helix_url,omitempty" validate:"omitempty,url" yaml:"helix_url,omitempty"`
	AuthURL  string `json:"auth_url,omitempty"  validate:"omitempty,url" yaml:"auth_url,omitempty"`
}

// configKeys lists every key accepted by config set and config unset.
var configKeys = map[string]func(c *Config, value string){
	"client_id":     func(c *Config, v string) { c.ClientID = v },
	"client_secret": func(c *Config, v string) { c.ClientSecret = v },
	"access_token":  func(c *Config, v string) { c.AccessToken = v },
	"refresh_token": func(c *Config, v string) { c.RefreshToken = v },
	"scopes":        func(c *Config, v string) { c.Scopes = splitScopes(v) },
	"output":        func(c *Config, v string) { c.Output = v },
	"cache":         func(c *Config, v string) { c.Cache = v },
	"nats_url":      func(c *Config, v string) { c.NATSURL = v },
	"helix_url":     func(c *Config, v string) { c.HelixURL = v },
	"auth_url":      func(c *Config, v string) { c.AuthURL = v },
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
		Long:  "View and modify the CLI configuration stored in $HOME/.twitch/config.yml",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigUnsetCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	var showSecrets bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			config := loadConfig()
			if !showSecrets {
				config = maskedConfig(config)
			}

			return renderOutput(cmd.OutOrStdout(), config, []string{"Property", "Value"}, configRows(config))
		},
	}

	cmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print secrets and tokens unmasked")

	return cmd
}

func newConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long:  "Set a configuration value. Keys: " + strings.Join(sortedConfigKeys(), ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			err := updateConfigValue(key, value)
			if err != nil {
				return err
			}

			return outputConfigUpdateResult(cmd.OutOrStdout(), "Set", key, value)
		},
	}
}

func newConfigUnsetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unset <key>",
		Short: "Unset a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			err := updateConfigValue(key, "")
			if err != nil {
				return err
			}

			return outputConfigUpdateResult(cmd.OutOrStdout(), "Unset", key, "")
		},
	}
}

func updateConfigValue(key, value string) error {
	handler, exists := configKeys[key]
	if !exists {
		return fmt.Errorf("%w: %s", constants.ErrUnknownConfigKey, key)
	}

	config, err := loadStoredConfig()
	if err != nil {
		return err
	}

	handler(config, value)

	err = saveConfigStruct(config)
	if err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

// loadStoredConfig returns only what the config file holds. Values that come
// from flags, TWITCH_* variables or flag defaults are left out, so writing the
// result back never persists them.
func loadStoredConfig() (*Config, error) {
	configFile, err := configFilePath()
	if err != nil {
		return nil, err
	}

	config := &Config{}

	data, err := os.ReadFile(configFile) //nolint:gosec // path comes from --config or the home directory
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// loadConfig returns the effective settings: file, environment and flags.
func loadConfig() *Config {
	config := &Config{
		ClientID:     viper.GetString("client_id"),
		ClientSecret: viper.GetString("client_secret"),
		AccessToken:  viper.GetString("access_token"),
		RefreshToken: viper.GetString("refresh_token"),
		Scopes:       viper.GetStringSlice("scopes"),
		Output:       viper.GetString("output"),
		Cache:        viper.GetString("cache"),
		NATSURL:      viper.GetString("nats_url"),
		HelixURL:     viper.GetString("helix_url"),
		AuthURL:      viper.GetString("auth_url"),
	}

	config.TokenExpiresAt = optionalTime("token_expires_at")
	config.LastRefreshed = optionalTime("last_refreshed")

	return config
}

func optionalTime(key string) *time.Time {
	if !viper.IsSet(key) {
		return nil
	}

	value := viper.GetTime(key)
	if value.IsZero() {
		return nil
	}

	return &value
}

func validateConfig(config *Config) error {
	err := validator.New().Struct(config)
	if err != nil {
		return fmt.Errorf("%w: %w", constants.ErrInvalidConfig, err)
	}

	return nil
}

func saveConfigStruct(config *Config) error {
	err := validateConfig(config)
	if err != nil {
		return err
	}

	configFile, err := configFilePath()
	if err != nil {
		return err
	}

	err = os.MkdirAll(filepath.Dir(configFile), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	err = os.WriteFile(configFile, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	viper.SetConfigFile(configFile)

	err = viper.ReadInConfig()
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}

	return nil
}

func configFilePath() (string, error) {
	if configFile := viper.ConfigFileUsed(); configFile != "" {
		return configFile, nil
	}

	configDir, err := defaultConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, configFileName+"."+configFileType), nil
}

func maskedConfig(config *Config) *Config {
	masked := *config
	masked.ClientSecret = maskSecret(config.ClientSecret)
	masked.AccessToken = maskSecret(config.AccessToken)
	masked.RefreshToken = maskSecret(config.RefreshToken)

	return &masked
}

func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}

	if len(secret) <= constants.SecretVisiblePrefix {
		return constants.MaskedSecret
	}

	return secret[:constants.SecretVisiblePrefix] + constants.MaskedSecret
}

func configRows(config *Config) [][]string {
	rows := [][]string{
		{"Client ID", valueOrNone(config.ClientID)},
		{"Client Secret", valueOrNone(config.ClientSecret)},
		{"Access Token", valueOrNone(config.AccessToken)},
		{"Refresh Token", valueOrNone(config.RefreshToken)},
		{"Scopes", valueOrNone(strings.Join(config.Scopes, " "))},
	}

	if config.TokenExpiresAt != nil {
		rows = append(rows, []string{"Token Expires At", config.TokenExpiresAt.Format(time.RFC3339)})
	}

	if config.LastRefreshed != nil {
		rows = append(rows, []string{"Last Refreshed", config.LastRefreshed.Format(time.RFC3339)})
	}

	rows = append(rows,
		[]string{"Output", valueOrNone(config.Output)},
		[]string{"Cache", valueOrNone(config.Cache)},
	)

	if config.NATSURL != "" {
		rows = append(rows, []string{"NATS URL", config.NATSURL})
	}

	if config.HelixURL != "" {
		rows = append(rows, []string{"Helix URL", config.HelixURL})
	}

	if config.AuthURL != "" {
		rows = append(rows, []string{"Auth URL", config.AuthURL})
	}

	return rows
}

func outputConfigUpdateResult(w io.Writer, action, key, value string) error {
	result := map[string]string{
		"action": action,
		"key":    key,
	}

	rows := [][]string{{"Action", action}, {"Key", key}}

	if value != "" {
		if isSecretKey(key) {
			value = maskSecret(value)
		}

		result["value"] = value
		rows = append(rows, []string{"Value", value})
	}

	return renderOutput(w, result, []string{"Property", "Value"}, rows)
}

func isSecretKey(key string) bool {
	return key == "client_secret" || key == "access_token" || key == "refresh_token"
}

func splitScopes(value string) []string {
	return strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' '
	})
}

func sortedConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for key := range configKeys {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}

func valueOrNone(value string) string {
	if value == "" {
		return constants.None
	}

	return value
}
