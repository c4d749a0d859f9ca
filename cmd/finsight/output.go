package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"finsight/pkg/contracts/domain"
)

var errRequestFailed = errors.New("request failed")

// printResult writes result as indented JSON to the command's output
func (a *app) printResult(cmd *cobra.Command, result domain.Result) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if !result.OK() {
		a.failed = true
	}
	return nil
}

// readJSON decodes a JSON file, or stdin when path is "-"
func readJSON(path string, v interface{}) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// parseFilters decodes the --filter flag's JSON object
func parseFilters(raw string) (map[string]interface{}, error) {
	if raw == "" {
		return nil, nil
	}
	var filters map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &filters); err != nil {
		return nil, fmt.Errorf("invalid --filter JSON: %w", err)
	}
	return filters, nil
}
