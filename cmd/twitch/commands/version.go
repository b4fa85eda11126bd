package commands

import (
	goversion "github.com/caarlos0/go-version"
	"github.com/spf13/cobra"
)

func buildVersion(version, commit, date string) goversion.Info {
	return goversion.GetVersionInfo(
		goversion.WithAppDetails("twitch", "Twitch API command-line client", "https://github.com/fivetwenty-io/twitch-client"),
		func(i *goversion.Info) {
			if version != "" {
				i.GitVersion = version
			}

			if commit != "" {
				i.GitCommit = commit
			}

			if date != "" {
				i.BuildDate = date
			}
		},
	)
}

// NewVersionCommand creates the version command.
func NewVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Long:  "Display detailed version information about the Twitch CLI",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := buildVersion(version, commit, date)

			rows := [][]string{
				{"Version", info.GitVersion},
				{"Commit", info.GitCommit},
				{"Built", info.BuildDate},
				{"Go Version", info.GoVersion},
				{"Platform", info.Platform},
			}

			return renderOutput(cmd.OutOrStdout(), info, []string{"Property", "Value"}, rows)
		},
	}
}
