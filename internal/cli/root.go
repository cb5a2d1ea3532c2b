package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"odfcrypt/internal/log"
)

// Version is set by main.go
var Version = "dev"

// Global flags
var (
	verbose    bool
	logLevel   string
	logFile    string
	configPath string
)

// rootCmd is the base command when called without subcommands
var rootCmd = &cobra.Command{
	Use:   "odfcrypt",
	Short: "Password-protect OpenDocument files",
	Long: `odfcrypt encrypts and decrypts the members of OpenDocument packages
(.odt, .ods, .odp, ...) the way office suites do:
  - every member is deflated, then encrypted with its own salt and IV
  - PBKDF2-HMAC-SHA1 with AES-256-CBC by default, readable by any ODF 1.2 reader
  - Argon2id with AES-256-GCM on request (--argon2), as written by newer suites
  - mimetype and META-INF/manifest.xml stay in the clear`,
	Version:           Version,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Global reporter for signal handling
var globalReporter *Reporter

// Execute runs the CLI application and returns the process exit code.
func Execute(version string) int {
	Version = version
	rootCmd.Version = version

	// Set up signal handling for graceful cancellation
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		if globalReporter != nil {
			globalReporter.Cancel()
			fmt.Fprintln(os.Stderr, "\nCancelling operation...")
		} else {
			os.Exit(1)
		}
	}()

	if err := rootCmd.Execute(); err != nil {
		if globalReporter != nil {
			globalReporter.PrintError("%v", err)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// setup configures logging and loads the config file before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	if err := setupLogging(); err != nil {
		return err
	}

	path, required := configPath, configPath != ""
	if !required {
		path = DefaultConfigPath()
	}
	cfg, err := LoadConfig(path, required)
	if err != nil {
		return err
	}
	settings = cfg
	return nil
}

func setupLogging() error {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return err
	}
	if verbose {
		level = log.LevelDebug
	}
	if logFile != "" {
		if err := log.EnableFileLogging(logFile, level); err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		return nil
	}
	log.EnableStderrLogging(level)
	return nil
}

func init() {
	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every entry written or decrypted")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Append logs to this file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <user config dir>/odfcrypt/config.toml)")
}
