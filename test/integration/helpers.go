//go:build integration

package integration

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fivetwenty-io/twitch-client/internal/constants"
)

// TestConfig holds configuration for integration tests.
type TestConfig struct {
	ClientID     string
	ClientSecret string
	AccessToken  string
	BinaryPath   string
	Verbose      bool
}

// LoadTestConfig loads configuration from environment variables.
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		ClientID:     os.Getenv(constants.EnvClientID),
		ClientSecret: os.Getenv("TWITCH_CLIENT_SECRET"),
		AccessToken:  os.Getenv(constants.EnvAccessToken),
		BinaryPath:   getBinaryPath(),
		Verbose:      os.Getenv("TWITCH_VERBOSE") == "true",
	}
}

// getBinaryPath determines the path to the twitch binary.
func getBinaryPath() string {
	if path := os.Getenv("TWITCH_BINARY_PATH"); path != "" {
		return path
	}

	candidates := []string{
		"../../twitch",
		"./twitch",
		"../twitch",
	}

	for _, candidate := range candidates {
		_, err := os.Stat(candidate)
		if err == nil {
			return candidate
		}
	}

	return "twitch"
}

// SkipIfMissingCredentials skips the test unless a client ID and access token are set.
func (config *TestConfig) SkipIfMissingCredentials(t *testing.T) {
	t.Helper()

	if config.ClientID == "" || config.AccessToken == "" {
		t.Skipf("%s or %s not set, skipping integration test", constants.EnvClientID, constants.EnvAccessToken)
	}
}

// SkipIfMissingBinary skips the test when the CLI has not been built.
func (config *TestConfig) SkipIfMissingBinary(t *testing.T) {
	t.Helper()

	_, err := exec.LookPath(config.BinaryPath)
	if err != nil {
		t.Skipf("twitch binary not found at %s, skipping integration test", config.BinaryPath)
	}
}

// CommandRunner runs the twitch binary against an isolated config file.
type CommandRunner struct {
	config     *TestConfig
	configPath string
	t          *testing.T
}

// NewCommandRunner creates a command runner with its own config file.
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	return &CommandRunner{
		config:     config,
		configPath: filepath.Join(t.TempDir(), "config.yml"),
		t:          t,
	}
}

// Run executes a twitch command and returns its output.
func (runner *CommandRunner) Run(args ...string) (string, string, error) {
	return runner.RunWithInput("", args...)
}

// RunWithInput executes a twitch command with stdin input.
func (runner *CommandRunner) RunWithInput(input string, args ...string) (string, string, error) {
	args = append([]string{"--config", runner.configPath}, args...)

	cmd := exec.Command(runner.config.BinaryPath, args...) //nolint:gosec // binary path comes from the test environment

	var stdoutBuf, stderrBuf bytes.Buffer

	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	cmd.Stdin = strings.NewReader(input)
	cmd.Env = isolatedEnv()

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.BinaryPath, strings.Join(args, " "))
	}

	err := cmd.Run()
	stdout := stdoutBuf.String()
	stderr := stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// isolatedEnv drops TWITCH_* variables so only flags and the config file apply.
func isolatedEnv() []string {
	env := make([]string, 0, len(os.Environ()))

	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, constants.EnvPrefix+"_") {
			env = append(env, kv)
		}
	}

	return env
}
