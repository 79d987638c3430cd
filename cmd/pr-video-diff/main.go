// Package main is the entrypoint of the pr-video-diff GitHub Action. It
// records the base and preview deployments of a pull request, composes them
// side by side, and publishes the result to the workflow run.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/isaiicatmat/pr-video-diff/pkg/config"
	"github.com/isaiicatmat/pr-video-diff/pkg/runner"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigFile  string
	OutputDir   string
	LogLevel    string
	ShowVersion bool
}

func main() {
	cli := parseFlags()

	if cli.ShowVersion {
		fmt.Printf("pr-video-diff v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nShutting down gracefully...")
		cancel()
	}()

	if err := run(ctx, cli); err != nil {
		cancel()
		log.Printf("Execution failed: %v", err)
		os.Exit(1)
	}
	cancel()
}

func parseFlags() *CLIConfig {
	cli := &CLIConfig{}

	flag.StringVar(&cli.ConfigFile, "config", "", "Path to a YAML file overriding the INPUT_* environment")
	flag.StringVar(&cli.OutputDir, "out", "", "Artifact directory (default $GITHUB_WORKSPACE/pr-video-diff)")
	flag.StringVar(&cli.LogLevel, "log-level", "", "Console verbosity: quiet, normal, verbose or debug")
	flag.BoolVar(&cli.ShowVersion, "version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "pr-video-diff - side-by-side video of a PR preview against its base\n\n")
		fmt.Fprintf(os.Stderr, "Usage: pr-video-diff [options]\n\n")
		fmt.Fprintf(os.Stderr, "Inputs are read from INPUT_URL_BASE, INPUT_URL_PREVIEW and the other\n")
		fmt.Fprintf(os.Stderr, "INPUT_* variables set by the GitHub Actions runner.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  INPUT_URL_BASE=https://example.com INPUT_URL_PREVIEW=https://pr-1.example.com \\\n")
		fmt.Fprintf(os.Stderr, "    pr-video-diff -out ./artifacts\n\n")
		fmt.Fprintf(os.Stderr, "  pr-video-diff -config pr-video-diff.yaml -log-level verbose\n\n")
	}

	flag.Parse()
	return cli
}

func run(ctx context.Context, cli *CLIConfig) error {
	cfg, err := config.Load(cli.ConfigFile)
	if err != nil {
		return err
	}
	if cli.OutputDir != "" {
		cfg.OutputDir = cli.OutputDir
	}
	if cli.LogLevel != "" {
		cfg.LogLevel = cli.LogLevel
	}

	r, err := runner.New(cfg)
	if err != nil {
		return err
	}

	_, err = r.Run(ctx)
	return err
}
