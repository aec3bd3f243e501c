package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/upb/quote-gateway/app"
	"github.com/upb/quote-gateway/config"
	"github.com/upb/quote-gateway/internal/observability"
	"github.com/upb/quote-gateway/models"
	"github.com/upb/quote-gateway/services/carriers"
	"github.com/upb/quote-gateway/services/quotes"
	"github.com/upb/quote-gateway/services/ratelimit"
	"github.com/upb/quote-gateway/services/webhooks"
	"go.uber.org/zap"
)

// loadRegistry builds the carrier registry from the environment
var loadRegistry = func(cmd *cobra.Command) (*carriers.Registry, error) {
	cfg, err := config.New(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return carriers.NewRegistryFrom(app.ProviderConfigs(cfg.Carriers))
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "carrierctl",
		Short:         "Operator tool for the carrier quote gateway",
		Long:          `carrierctl inspects the configured carriers, runs quote fan-outs against them and signs webhook payloads for integration testing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	newLogger := func() (*zap.Logger, error) {
		return observability.NewLogger(logLevel, "console")
	}

	rootCmd.AddCommand(carriersCmd())
	rootCmd.AddCommand(quoteCmd(newLogger))
	rootCmd.AddCommand(signCmd())
	return rootCmd
}

// carriersCmd returns the carriers command
func carriersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "carriers",
		Short: "List carriers built from the environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := loadRegistry(cmd)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCONFIGURED\tBASE URL\tRATE/MIN\tRETRIES")
			for _, name := range registry.List() {
				cfg, _ := registry.Resolve(name)
				fmt.Fprintf(w, "%s\t%t\t%s\t%d\t%d\n", name, cfg.Configured(), cfg.BaseURL, cfg.RateLimitPerMinute, cfg.MaxRetries)
			}
			return w.Flush()
		},
	}
}

// quoteCmd returns the quote command
func quoteCmd(newLogger func() (*zap.Logger, error)) *cobra.Command {
	var file string
	var targets []string
	var detail bool

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Run a quote fan-out and print the aggregated quotes as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(cmd, file)
			if err != nil {
				return err
			}

			var req models.QuoteRequest
			if err := json.Unmarshal(raw, &req); err != nil {
				return fmt.Errorf("invalid quote request: %w", err)
			}
			if err := req.Validate(); err != nil {
				return err
			}

			logger, err := newLogger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			registry, err := loadRegistry(cmd)
			if err != nil {
				return err
			}
			caller := carriers.NewCaller(registry, ratelimit.NewGovernor(registry, logger), &http.Client{}, logger)
			service := quotes.NewQuoteService(caller, logger)

			quoteSet, outcomes := service.RequestQuotesWithOutcomes(cmd.Context(), req, targets)

			out := map[string]any{"quotes": quoteSet}
			if detail {
				out["outcomes"] = outcomes
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Quote request JSON file (- for stdin)")
	cmd.Flags().StringSliceVar(&targets, "carriers", nil, "Carriers to target (default: all registered)")
	cmd.Flags().BoolVar(&detail, "detail", false, "Include per-carrier outcomes")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// signCmd returns the sign command
func signCmd() *cobra.Command {
	var carrier string
	var file string
	var secret string

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Compute the webhook signature header for a payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := readInput(cmd, file)
			if err != nil {
				return err
			}

			header := "X-Signature"
			if secret == "" {
				registry, err := loadRegistry(cmd)
				if err != nil {
					return err
				}
				cfg, err := registry.Resolve(carrier)
				if err != nil {
					return err
				}
				if cfg.WebhookSecret == "" {
					return fmt.Errorf("carrier %s has no webhook secret configured", cfg.Key())
				}
				secret = cfg.WebhookSecret
				header = cfg.SignatureHeader
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", header, webhooks.Sign(secret, payload))
			return nil
		},
	}

	cmd.Flags().StringVarP(&carrier, "carrier", "c", "", "Carrier whose webhook secret signs the payload")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Payload file (- for stdin)")
	cmd.Flags().StringVar(&secret, "secret", "", "Sign with this secret instead of the carrier's")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readInput(cmd *cobra.Command, file string) ([]byte, error) {
	if strings.TrimSpace(file) == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file, err)
	}
	return data, nil
}
