package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const version = "0.3.0"

type config struct {
	Addr          string            `yaml:"addr"`
	TLSAddr       string            `yaml:"tls_addr"`
	MCPAddr       string            `yaml:"mcp_addr"`
	MCPCert       string            `yaml:"mcp_cert"`
	MCPKey        string            `yaml:"mcp_key"`
	LogLevel      string            `yaml:"log_level"`
	KeywordsDir   string            `yaml:"keywords_dir"`
	CorpusDB      string            `yaml:"corpus_db"`
	Workers       int               `yaml:"workers"`
	CheckInterval time.Duration     `yaml:"check_interval"`
	Datasets      map[string]string `yaml:"datasets"`
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	args := os.Args[2:]
	switch os.Args[1] {
	case "serve":
		cmdServe(args)
	case "clean":
		cmdClean(args)
	case "ingest":
		cmdIngest(args)
	case "sources":
		cmdSources(args)
	case "check":
		cmdCheck(args)
	case "labels":
		cmdLabels(args)
	case "keywords":
		cmdKeywords(args)
	case "tools":
		cmdTools(args)
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: amyloid <command> [flags]

Commands:
  serve      Start the HTTP API (and MCP over QUIC or stdio)
  clean      Normalize a report read from a file or stdin
  ingest     Clean, flag and store a dataset extract
  sources    List dataset sources or override a path
  check      Check that every dataset source is reachable
  labels     Summarize the annotations and patient diagnoses of a dataset
  keywords   List or export keyword groups
  tools      List or call the tools of a running MCP QUIC server
`)
}

func defaultConfig() config {
	return config{
		Addr:          ":8430",
		LogLevel:      "info",
		CorpusDB:      "amyloid.db",
		CheckInterval: time.Hour,
	}
}

// loadConfig reads path over the defaults. A missing file is not an error.
func loadConfig(path string) (config, bool, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, false, nil
		}
		return cfg, false, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, false, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, true, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// setup loads the config and builds the logger every subcommand uses.
func setup(cfgPath string) (config, *slog.Logger) {
	cfg, found, err := loadConfig(cfgPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.LogLevel)
	if !found {
		logger.Debug("no config file, using defaults", "path", cfgPath)
	}
	return cfg, logger
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
