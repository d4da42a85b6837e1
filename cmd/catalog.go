// Package cmd provides the command-line interface for the Vigil catalog.
package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// CLI output formatters
var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
)

// Global flags for catalog commands
var (
	apiURL      string
	format      string
	role        string
	contentFile string
)

const (
	defaultAPIURL  = "http://localhost:8085"
	requestTimeout = 30 * time.Second

	// maxContentSize bounds content read from file or stdin.
	maxContentSize = 10 * 1024 * 1024
)

// apiResponse is the envelope returned by every catalog API operation.
type apiResponse struct {
	Status  string `json:"status"`
	Error   string `json:"error,omitempty"`
	Content string `json:"content,omitempty"`
}

// NewCatalogCmd creates the catalog command tree.
func NewCatalogCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "catalog",
		Short:         "Manage catalog content",
		Long:          "Get, create, update, delete and validate catalog content through the Vigil API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api", defaultAPIURL, "Base URL of the Vigil API")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "yaml", "Content format (json or yaml)")
	rootCmd.PersistentFlags().StringVarP(&role, "role", "r", "admin", "Acting role")
	rootCmd.PersistentFlags().StringVar(&contentFile, "file", "", "Read content from file instead of argument or stdin")

	rootCmd.AddCommand(
		newGetCmd(),
		newCreateCmd(),
		newUpdateCmd(),
		newDeleteCmd(),
		newValidateCmd(),
	)
	return rootCmd
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Get an item or list a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint := fmt.Sprintf("%s/catalog/resource/%s?format=%s&role=%s",
				apiURL, args[0], url.QueryEscape(format), url.QueryEscape(role))
			resp, err := doRequest(http.MethodGet, endpoint, nil)
			if err != nil {
				return err
			}
			fmt.Println(resp.Content)
			return nil
		},
	}
}

func newCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <type> [content]",
		Short: "Create a new item under a collection",
		Long:  "Create a new item; the item name is taken from the content's name field.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(args[1:])
			if err != nil {
				return err
			}
			endpoint := fmt.Sprintf("%s/catalog/resources/%s", apiURL, args[0])
			if _, err := doRequest(http.MethodPost, endpoint, &content); err != nil {
				return err
			}
			successColor.Fprintf(os.Stdout, "Created %s item\n", args[0])
			return nil
		},
	}
}

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <name> [content]",
		Short: "Update an existing item",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(args[1:])
			if err != nil {
				return err
			}
			endpoint := fmt.Sprintf("%s/catalog/resource/%s", apiURL, args[0])
			if _, err := doRequest(http.MethodPut, endpoint, &content); err != nil {
				return err
			}
			successColor.Fprintf(os.Stdout, "Updated %s\n", args[0])
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an item or a whole collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			endpoint := fmt.Sprintf("%s/catalog/resource/%s?role=%s",
				apiURL, args[0], url.QueryEscape(role))
			if _, err := doRequest(http.MethodDelete, endpoint, nil); err != nil {
				return err
			}
			successColor.Fprintf(os.Stdout, "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <name> [content]",
		Short: "Validate content without persisting it",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readContent(args[1:])
			if err != nil {
				return err
			}
			endpoint := fmt.Sprintf("%s/catalog/resource/%s/validate", apiURL, args[0])
			if _, err := doRequest(http.MethodPost, endpoint, &content); err != nil {
				return err
			}
			successColor.Fprintf(os.Stdout, "Validation passed for %s\n", args[0])
			return nil
		},
	}
}

// readContent resolves the content argument: explicit argument, --file,
// or stdin, in that order.
func readContent(args []string) (string, error) {
	if len(args) == 1 && args[0] != "" {
		return args[0], nil
	}
	if contentFile != "" {
		data, err := os.ReadFile(contentFile)
		if err != nil {
			return "", fmt.Errorf("failed to read content file: %w", err)
		}
		if len(data) > maxContentSize {
			return "", fmt.Errorf("content file exceeds %d bytes", maxContentSize)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(io.LimitReader(os.Stdin, maxContentSize))
	if err != nil {
		return "", fmt.Errorf("failed to read content from stdin: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("no content provided: pass an argument, --file or stdin")
	}
	return string(data), nil
}

// doRequest performs an API call and decodes the response envelope. A
// non-OK envelope status becomes an error.
func doRequest(method, endpoint string, content *string) (*apiResponse, error) {
	var body io.Reader
	if content != nil {
		payload, err := json.Marshal(map[string]string{
			"format":  format,
			"content": *content,
			"role":    role,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if content != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: requestTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if envelope.Status != "OK" {
		errorColor.Fprintf(os.Stderr, "Operation failed\n")
		return nil, fmt.Errorf("%s", envelope.Error)
	}
	return &envelope, nil
}
