package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/livewire/internal/app"
	"github.com/ternarybob/livewire/internal/common"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	dataDir      = flag.String("data", "", "Data directory (overrides config)")
	logLevel     = flag.String("log-level", "", "Log level (overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")

	// Global state
	config *common.Config
	logger arbor.ILogger
)

func init() {
	// Register custom flag for multiple config files
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("Livewire version %s\n", common.GetVersion())
		os.Exit(0)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner

	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("livewire.toml"); err == nil {
			configFiles = append(configFiles, "livewire.toml")
		} else if _, err := os.Stat("deployments/local/livewire.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/livewire.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		// Use temporary logger for startup errors
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration files")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, *dataDir, *logLevel)

	logger = common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()

	application, err := app.New(ctx, config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer application.Close()

	switch args[0] {
	case "ingest":
		runIngest(ctx, application, args[1:])
	case "query":
		runQuery(ctx, application, args[1:])
	case "push":
		runPush(ctx, application, args[1:])
	case "status":
		runStatus(application, args[1:])
	case "version":
		fmt.Println(common.GetFullVersion())
	default:
		fmt.Printf("Unknown command: %s\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: livewire [flags] <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  ingest <file>       Ingest a playbook document into the corpus")
	fmt.Println("  query <text>        Retrieve grounded coaching cards for a query")
	fmt.Println("  push [flags]        Push session artifacts to the CRM")
	fmt.Println("  status              Show CRM rate limit status")
	fmt.Println("  version             Print version information")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
}
