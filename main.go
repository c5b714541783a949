package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/tournevent/fedexbridge/internal/server"
	"github.com/tournevent/fedexbridge/internal/telemetry"
	"github.com/tournevent/fedexbridge/pkg/shipper"
	"github.com/tournevent/fedexbridge/pkg/shipper/fedex"
	"go.uber.org/zap"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "fedexbridge",
	Short:   "FedEx fulfillment bridge - rate quotes and shipments over HTTP",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var credentialsCmd = &cobra.Command{
	Use:   "credentials",
	Short: "Inspect or replace the stored FedEx credentials",
}

var credentialsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the effective FedEx credentials",
	RunE:  runCredentialsGet,
}

var credentialsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Validate and store FedEx credentials",
	RunE:  runCredentialsSet,
}

var servicesCmd = &cobra.Command{
	Use:   "services [name-or-code...]",
	Short: "List FedEx services, or look up the given names and codes",
	RunE:  runServices,
}

var (
	setCreds   shipper.Credentials
	setUnit    string
	liveFlag   bool
	showSecret bool
)

func init() {
	credentialsSetCmd.Flags().BoolVar(&setCreds.Enabled, "enabled", true, "enable the integration")
	credentialsSetCmd.Flags().StringVar(&setCreds.ClientID, "client-id", "", "FedEx API client ID")
	credentialsSetCmd.Flags().StringVar(&setCreds.ClientSecret, "client-secret", "", "FedEx API client secret")
	credentialsSetCmd.Flags().StringVar(&setCreds.AccountNumber, "account-number", "", "FedEx account number")
	credentialsSetCmd.Flags().BoolVar(&setCreds.SandboxMode, "sandbox", false, "use the FedEx sandbox")
	credentialsSetCmd.Flags().BoolVar(&setCreds.LoggingEnabled, "enable-logs", false, "log FedEx request payloads")
	credentialsSetCmd.Flags().StringVar(&setUnit, "weight-unit", string(shipper.WeightLB), "weight unit (LB or KG)")

	credentialsGetCmd.Flags().BoolVar(&showSecret, "show-secret", false, "print the client secret")

	servicesCmd.Flags().BoolVar(&liveFlag, "live", false, "ask FedEx which services the account can use")

	credentialsCmd.AddCommand(credentialsGetCmd, credentialsSetCmd)
	rootCmd.AddCommand(serveCmd, credentialsCmd, servicesCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Initialize telemetry
	logger, err := initLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()

	tracer, tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer tracerShutdown(context.Background())
	}

	app, err := initApp(ctx, cfg, logger, tracer)
	if err != nil {
		return err
	}
	defer app.Close()

	logger.Info("Starting FedEx fulfillment bridge",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.Bool("mock", cfg.FedExUseMock),
		zap.Bool("postgres", cfg.DatabaseURL != ""),
	)

	// Start HTTP server
	srv := server.New(server.Config{Port: cfg.Port}, app.provider, app.provider.Credentials(), logger, telemetry.NewMetrics())
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runCredentialsGet(cmd *cobra.Command, args []string) error {
	app, err := initCLIApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	creds := app.provider.Credentials().Resolve(cmd.Context())
	if !showSecret {
		creds = creds.Masked()
	}
	return printJSON(cmd, creds)
}

func runCredentialsSet(cmd *cobra.Command, args []string) error {
	app, err := initCLIApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	creds := setCreds
	creds.WeightUnit = shipper.WeightUnit(setUnit)

	ok, err := app.provider.Credentials().Save(cmd.Context(), creds)
	if err != nil {
		return err
	}
	return printJSON(cmd, map[string]bool{"success": ok})
}

func runServices(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return lookupServices(cmd, args)
	}
	if !liveFlag {
		return printJSON(cmd, fedex.ServiceOptions())
	}

	app, err := initCLIApp(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()

	quotes, err := app.provider.DiscoverServices(cmd.Context())
	if err != nil {
		return err
	}

	services := make([]map[string]string, len(quotes))
	for i, q := range quotes {
		services[i] = map[string]string{"service_code": q.ServiceCode, "service_name": q.ServiceName}
	}
	return printJSON(cmd, services)
}

func lookupServices(cmd *cobra.Command, terms []string) error {
	services := make([]map[string]string, 0, len(terms))
	for _, term := range terms {
		if code, ok := fedex.ServiceCode(term); ok {
			services = append(services, map[string]string{"service_code": code, "service_name": term})
			continue
		}
		code := strings.ToUpper(strings.TrimSpace(term))
		name, ok := fedex.ServiceName(code)
		if !ok {
			return fmt.Errorf("unknown FedEx service %q", term)
		}
		services = append(services, map[string]string{"service_code": code, "service_name": name})
	}
	return printJSON(cmd, services)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
