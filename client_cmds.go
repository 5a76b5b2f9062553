package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/parisxmas/icpform/internal/client"
	"github.com/parisxmas/icpform/internal/config"
	"github.com/parisxmas/icpform/internal/form"
	"github.com/parisxmas/icpform/internal/models"
	"github.com/parisxmas/icpform/internal/schema"
	"github.com/parisxmas/icpform/internal/tui"
)

func fillCmd(load loader) *cobra.Command {
	var server string
	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Fill in the questionnaire interactively",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if server == "" {
				server = cfg.ServerURL
			}
			c := client.New(server, client.WithTimeout(cfg.RequestTimeout))
			v := schema.NewValidator(schema.WithStrictConditionals(cfg.StrictConditionals))
			out := cmd.OutOrStdout()
			ctrl := form.New(v, c, form.OnSubmitted(func(id string) {
				fmt.Fprintf(out, "Reference: %s\n", id)
			}))

			err = tui.Run(cmd.Context(), ctrl, tui.NewSurveyDriver())
			if errors.Is(err, tui.ErrAborted) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "Service base URL (default from ICP_SERVER_URL)")
	return cmd
}

func listCmd(load loader) *cobra.Command {
	var (
		server   string
		format   string
		page     int
		limit    int
		email    string
		password string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print one page of stored submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("unknown format %q (want json or yaml)", format)
			}
			cfg, err := load()
			if err != nil {
				return err
			}
			if server == "" {
				server = cfg.ServerURL
			}
			if email != "" && password == "" {
				password = cfg.AdminPass
			}
			res, err := fetchPage(cmd.Context(), server, cfg, email, password, page, limit)
			if err != nil {
				return err
			}
			return printPage(cmd.OutOrStdout(), res, format)
		},
	}
	cmd.Flags().StringVar(&server, "server", "", "Service base URL (default from ICP_SERVER_URL)")
	cmd.Flags().StringVarP(&format, "format", "o", "json", "Output format: json or yaml")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().IntVar(&limit, "limit", 10, "Page size")
	cmd.Flags().StringVar(&email, "email", "", "Admin email, when the listing is protected")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (default from ICP_ADMIN_PASS)")
	return cmd
}

// fetchPage logs in first when an admin email is given.
func fetchPage(ctx context.Context, server string, cfg *config.Config, email, password string, page, limit int) (*models.SubmissionPage, error) {
	c := client.New(server, client.WithTimeout(cfg.RequestTimeout))
	if email != "" {
		token, err := c.Login(ctx, email, password)
		if err != nil {
			return nil, fmt.Errorf("login: %w", err)
		}
		c = client.New(server, client.WithTimeout(cfg.RequestTimeout), client.WithToken(token))
	}
	return c.List(ctx, page, limit)
}

// printPage writes res as indented JSON or YAML. YAML goes through JSON
// first so both formats use the same field names.
func printPage(w io.Writer, res *models.SubmissionPage, format string) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	raw, err := json.Marshal(res)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(generic)
}
