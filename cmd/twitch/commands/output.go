package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fivetwenty-io/twitch-client/internal/constants"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// renderOutput writes data as JSON or YAML, or rows as a table, depending on
// the --output flag.
func renderOutput(w io.Writer, data any, headers []string, rows [][]string) error {
	output := viper.GetString("output")

	switch output {
	case constants.FormatJSON:
		return renderJSON(w, data)
	case constants.FormatYAML:
		return renderYAML(w, data)
	case constants.FormatTable, "":
		return renderTable(w, headers, rows)
	default:
		return fmt.Errorf("%w: %s", constants.ErrInvalidOutput, output)
	}
}

func renderJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to JSON: %w", err)
	}

	return nil
}

func renderYAML(w io.Writer, data any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(constants.JSONIndentSize)

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to YAML: %w", err)
	}

	err = encoder.Close()
	if err != nil {
		return fmt.Errorf("encoding data to YAML: %w", err)
	}

	return nil
}

func renderTable(w io.Writer, headers []string, rows [][]string) error {
	header := make([]any, 0, len(headers))
	for _, h := range headers {
		header = append(header, h)
	}

	table := tablewriter.NewWriter(w)
	table.Header(header...)

	for _, row := range rows {
		err := table.Append(row)
		if err != nil {
			return fmt.Errorf("failed to append table row: %w", err)
		}
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}
