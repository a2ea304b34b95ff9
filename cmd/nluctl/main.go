// Command nluctl is a command-line interface for operating the
// recognition engine: a one-shot recognize against a local in-process
// engine, an offline vocabulary/rule compile-check, and version info.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nluengine/nluengine/internal/bootstrap"
	"github.com/nluengine/nluengine/internal/config"
)

var (
	configPath string
	domainFlag string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "nluctl",
	Short:   "CLI for the recognition engine",
	Long:    `nluctl operates the recognition engine directly, without going through the HTTP transport.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/nluengine.yaml", "path to the YAML configuration file")
	recognizeCmd.Flags().StringVar(&domainFlag, "domain", "", "pre-commit to this domain, skipping domain classification")
	rootCmd.AddCommand(recognizeCmd)
	rootCmd.AddCommand(compileCmd)
}

var recognizeCmd = &cobra.Command{
	Use:   "recognize [text]",
	Short: "Recognize a single utterance and print its IntentData as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecognize,
}

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Validate the vocabulary and rule documents without starting a server",
	Long: `compile loads the vocabulary, rule, and example documents named by
the configuration and compiles them exactly as the server would at
startup. It exits nonzero and prints the configuration error on any
failure -- malformed documents, unknown vocabulary groups, or regular
expressions that do not compile.`,
	RunE: runCompile,
}

func runRecognize(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	ctx := context.Background()
	built, err := bootstrap.Build(ctx, cfg, nil, nil)
	if err != nil {
		return fmt.Errorf("building recognition engine: %w", err)
	}
	defer func() {
		_ = built.Close()
	}()

	var domain *string
	if domainFlag != "" {
		domain = &domainFlag
	}

	result := built.Engine.Recognize(ctx, args[0], domain)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	ctx := context.Background()
	built, err := bootstrap.Build(ctx, cfg, nil, nil)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	defer func() {
		_ = built.Close()
	}()

	fmt.Println("configuration OK")
	return nil
}
