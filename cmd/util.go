package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

const workspaceFlagDescription = "Slack workspace (team ID)"

func printJSON(cmd *cobra.Command, value interface{}) error {
	return writeJSON(cmd.OutOrStdout(), value)
}

func writeJSON(w io.Writer, value interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("encode json output: %w", err)
	}
	return nil
}

func printf(cmd *cobra.Command, format string, args ...interface{}) error {
	_, err := fmt.Fprintf(cmd.OutOrStdout(), format, args...)
	if err != nil {
		return fmt.Errorf("write stdout: %w", err)
	}
	return nil
}

func requireNonEmpty(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", name)
	}
	return nil
}

// redactToken keeps the token type prefix and the last four characters.
func redactToken(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	prefix := ""
	if idx := strings.Index(token, "-"); idx > 0 && idx < 6 {
		prefix = token[:idx+1]
	}
	if len(token)-len(prefix) <= 4 {
		return prefix + "****"
	}
	return prefix + "****" + token[len(token)-4:]
}
