// Command jpegtool inspects, decodes, encodes and benchmarks JPEG files with
// the go-jpeg codec.
//
// Usage:
//
//	jpegtool [-config file] [-backend name] [-log-level level] <command> [flags] [args]
//
// Commands:
//
//	info       print the frame header of each file
//	decode     decode a JPEG into a raw frame container
//	encode     encode a raw frame container as JPEG
//	roundtrip  decode, re-encode and compare each file
//	bench      time decode and encode over files, or a -synthetic WxH frame
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/nvr-ai/go-jpeg/codec"
	"github.com/nvr-ai/go-jpeg/config"
)

// app carries what every command needs.
type app struct {
	cfg     *config.Config
	backend codec.Backend
	logger  *zap.Logger
	stdout  io.Writer
}

type command struct {
	name    string
	summary string
	run     func(a *app, args []string) error
}

var commands = []command{
	{"info", "print the frame header of each file", (*app).info},
	{"decode", "decode a JPEG into a raw frame container", (*app).decode},
	{"encode", "encode a raw frame container as JPEG", (*app).encode},
	{"roundtrip", "decode, re-encode and compare each file", (*app).roundtrip},
	{"bench", "time decode and encode over files, or a -synthetic WxH frame", (*app).bench},
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "jpegtool: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("jpegtool", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath string
		backend    string
		logLevel   string
	)
	fs.StringVar(&configPath, "config", "", "Path to YAML configuration file")
	fs.StringVar(&backend, "backend", "", fmt.Sprintf("Codec backend %v (default from config or build)", codec.Names()))
	fs.StringVar(&logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: jpegtool [flags] <command> [command flags] [args]\n\nCommands:\n")
		for _, c := range commands {
			fmt.Fprintf(stderr, "  %-10s %s\n", c.name, c.summary)
		}
		fmt.Fprintf(stderr, "\nFlags:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return fmt.Errorf("no command given")
	}

	cfg := config.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(configPath); err != nil {
			return err
		}
	}
	if backend != "" {
		cfg.Backend = backend
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	b, err := cfg.CodecBackend()
	if err != nil {
		return err
	}

	a := &app{cfg: cfg, backend: b, logger: logger, stdout: stdout}

	name := fs.Arg(0)
	for _, c := range commands {
		if c.name == name {
			logger.Debug("running command", zap.String("command", name), zap.String("backend", b.Name()))
			return c.run(a, fs.Args()[1:])
		}
	}
	fs.Usage()
	return fmt.Errorf("unknown command %q", name)
}
