package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/felixgeelhaar/promptcraft/internal/config"
	"github.com/felixgeelhaar/promptcraft/internal/evaluator"
	"github.com/felixgeelhaar/promptcraft/internal/exercise"
)

// Version is set at build time via ldflags
var Version = "dev"

const pidFile = "promptcraftd.pid"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = cmdInit()
	case "start":
		err = cmdStart()
	case "stop":
		err = cmdStop()
	case "status":
		err = cmdStatus()
	case "logs":
		err = cmdLogs()
	case "config":
		err = cmdConfig()
	case "exercise":
		err = cmdExercise(os.Args[2:])
	case "validate":
		err = cmdValidate(os.Args[2:])
	case "feedback":
		err = cmdFeedback(os.Args[2:])
	case "score":
		err = cmdScore(os.Args[2:])
	case "stats":
		err = cmdStats(os.Args[2:])
	case "mcp":
		err = cmdMCP()
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Printf("promptcraft %s\n", Version)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Promptcraft - Prompt Engineering Practice

Usage:
  promptcraft <command> [arguments]

Setup Commands:
  init            Write a default config to ~/.promptcraft
  config          Show current configuration

Daemon Commands:
  start           Start the promptcraft daemon
  stop            Stop the promptcraft daemon
  status          Show daemon status
  logs            View daemon logs

Exercise Commands:
  exercise list   List practice exercises
  exercise info   Show exercise steps and hints

Evaluation Commands:
  validate        Check one answer against a step
  feedback        Show the feedback for one answer
  score           Score a full set of answers

Analytics Commands:
  stats           Show attempt statistics per exercise
  stats export    Export attempts to an Excel workbook

Integration Commands:
  mcp             Start MCP server on stdio

Other:
  help            Show this help message
  version         Show version information

Examples:
  promptcraft exercise list
  promptcraft validate -m 1 -t guided -s 0 "Define the audience and the format"
  promptcraft score -m 1 -t guided -a 0="..." -a 1="..." -a 2="..."
  promptcraft score -m 2 -t challenge -f answers.yaml
  promptcraft stats export attempts.xlsx`)
}

// loadEvaluator builds the evaluator from config and the configured catalog
func loadEvaluator() (*evaluator.Evaluator, *config.LocalConfig, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	catalog, err := exercise.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, nil, err
	}
	return evaluator.New(catalog, cfg.Evaluator), cfg, nil
}

// daemonAddr is the base URL of the local daemon
func daemonAddr() string {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultLocalConfig()
	}
	return "http://" + cfg.Addr()
}

// renderProgressBar creates a visual progress bar
func renderProgressBar(value float64, width int) string {
	filled := int(value * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	empty := width - filled

	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", empty) + "]"
}
