// Command janus is the reference CLI for the connectionless datagram IPC
// transport: `serve` runs a Dispatcher against a Manifest, `call` sends one
// request through a Client and prints the reply.
// file: cmd/janus/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jowharshamshiri/janus-go/internal/client"
	"github.com/jowharshamshiri/janus-go/internal/config"
	"github.com/jowharshamshiri/janus-go/internal/janerr"
	"github.com/jowharshamshiri/janus-go/internal/logging"
	"github.com/jowharshamshiri/janus-go/internal/manifest"
	"github.com/jowharshamshiri/janus-go/internal/server"
	"github.com/jowharshamshiri/janus-go/internal/socketwatch"
)

// Exit codes per the CLI contract: success, generic failure, validation
// failure, transport failure, timeout.
const (
	exitSuccess          = 0
	exitGenericFailure   = 1
	exitValidationFailure = 2
	exitTransportFailure = 3
	exitTimeout          = 4
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(exitGenericFailure)
	}

	var code int
	switch os.Args[1] {
	case "serve":
		code = runServe(os.Args[2:])
	case "call":
		code = runCall(os.Args[2:])
	default:
		usage()
		code = exitGenericFailure
	}
	os.Exit(code)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: janus serve --socket <path> --manifest <file> [--config <file>] [--channel <name>]")
	fmt.Fprintln(os.Stderr, "       janus call --socket <path> --channel <name> --command <name> [--arg k=v]...")
}

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	socketPath := fs.String("socket", "", "server socket path (overrides --config)")
	manifestPath := fs.String("manifest", "", "manifest file (JSON or YAML)")
	configPath := fs.String("config", "", "YAML settings file (optional)")
	_ = fs.String("channel", "", "accepted and ignored; serve answers every channel in the manifest")
	debug := fs.Bool("debug", false, "enable debug-level JSON logging to stderr")
	fs.Usage = usage
	if err := fs.Parse(args); err != nil {
		return exitGenericFailure
	}

	level := logging.LevelInfo
	if *debug {
		level = logging.LevelDebug
	}
	logging.InitLogging(level, os.Stderr)
	logger := logging.GetLogger("cmd/janus")

	settings := config.New()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			logger.Error("failed to load config", "error", err, "path", *configPath)
			return exitGenericFailure
		}
		settings = loaded
	}
	cfg := settings.Server
	cfg.CleanupSocketOnStart = true
	if *socketPath != "" {
		cfg.SocketPath = *socketPath
	}
	expanded, err := config.ExpandPath(cfg.SocketPath)
	if err != nil {
		logger.Error("failed to resolve socket path", "error", err, "path", cfg.SocketPath)
		return exitGenericFailure
	}
	cfg.SocketPath = expanded

	if *manifestPath == "" {
		*manifestPath = cfg.ManifestPath
	}
	if *manifestPath == "" {
		logger.Error("--manifest is required for serve")
		return exitGenericFailure
	}

	m, err := loadManifest(*manifestPath)
	if err != nil {
		logger.Error("failed to load manifest", "error", err, "path", *manifestPath)
		return exitGenericFailure
	}
	logger.Info("loaded manifest", "name", m.Name, "version", m.Version)
	d, err := server.New("janus", version, cfg, settings.Security, m, logger)
	if err != nil {
		logger.Error("failed to bind server socket", "error", err, "socket", cfg.SocketPath)
		return exitTransportFailure
	}

	watcher, err := socketwatch.New(*manifestPath, logger)
	if err != nil {
		logger.Warn("manifest file watch disabled", "error", err)
	} else {
		defer watcher.Close()
		go func() {
			for range watcher.Changed {
				logger.Info("manifest file changed on disk; restart janus serve to reload it")
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down", "signal", sig.String())
		_ = d.Shutdown()
	}()

	logger.Info("serving", "socket", cfg.SocketPath)
	if err := d.Serve(); err != nil {
		logger.Error("serve loop exited with error", "error", err)
		return exitGenericFailure
	}
	return exitSuccess
}

func runCall(args []string) int {
	fs := flag.NewFlagSet("call", flag.ContinueOnError)
	socketPath := fs.String("socket", "", "server socket path")
	channel := fs.String("channel", "default", "channel name (required on the wire even for built-in commands)")
	command := fs.String("command", "", "command name")
	timeoutSecs := fs.Float64("timeout", 5.0, "request timeout in seconds")
	replyDir := fs.String("reply-dir", "/tmp", "directory for this client's ephemeral reply socket")
	debug := fs.Bool("debug", false, "enable debug-level JSON logging to stderr")
	var argPairs argList
	fs.Var(&argPairs, "arg", "command argument as key=value (repeatable); value is JSON-type-inferred")
	fs.Usage = usage
	if err := fs.Parse(args); err != nil {
		return exitGenericFailure
	}

	level := logging.LevelInfo
	if *debug {
		level = logging.LevelDebug
	}
	logging.InitLogging(level, os.Stderr)
	logger := logging.GetLogger("cmd/janus")

	if *socketPath == "" || *command == "" {
		usage()
		return exitGenericFailure
	}

	cmdArgs, err := argPairs.toArgs()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid --arg:", err)
		return exitValidationFailure
	}

	cfg := config.ClientConfig{ReplySocketDir: *replyDir, DefaultTimeout: time.Duration(*timeoutSecs * float64(time.Second))}
	c, err := client.New(*socketPath, cfg, config.New().Security, false, logger)
	if err != nil {
		logger.Error("failed to create client", "error", err)
		return exitTransportFailure
	}
	defer c.Close()

	resp, err := c.SendCommand(*channel, *command, cmdArgs, time.Duration(*timeoutSecs*float64(time.Second)))
	if err != nil {
		return exitCodeForError(err, logger)
	}

	out, _ := json.MarshalIndent(resp, "", "  ")
	fmt.Println(string(out))
	if !resp.Success {
		if resp.Error != nil {
			return exitCodeForError(janerr.New(janerr.Code(resp.Error.Code), resp.Error.Message, nil), logger)
		}
		return exitGenericFailure
	}
	return exitSuccess
}

func exitCodeForError(err error, logger logging.Logger) int {
	code := janerr.CodeOf(err)
	switch code {
	case janerr.CodeTimeout:
		logger.Error("request timed out", "error", err)
		return exitTimeout
	case janerr.CodeValidationError, janerr.CodeInvalidParams, janerr.CodeInvalidRequest:
		logger.Error("validation failed", "error", err)
		return exitValidationFailure
	case janerr.CodeTransportError, janerr.CodeMessageTooLarge, janerr.CodeSecurityViolation:
		logger.Error("transport failure", "error", err)
		return exitTransportFailure
	default:
		logger.Error("request failed", "error", err)
		return exitGenericFailure
	}
}

func loadManifest(path string) (*manifest.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, janerr.NewManifestError("read manifest file", err).WithContext("path", path)
	}
	if isYAMLPath(path) {
		return manifest.ParseYAML(data)
	}
	return manifest.ParseJSON(data)
}

func isYAMLPath(path string) bool {
	for _, suffix := range []string{".yaml", ".yml"} {
		if len(path) >= len(suffix) && path[len(path)-len(suffix):] == suffix {
			return true
		}
	}
	return false
}

// argList collects repeated --arg k=v flags and coerces each value to a
// JSON-typed Go value: booleans and numbers parse as such, everything else
// stays a string.
type argList []string

func (a *argList) String() string {
	return fmt.Sprintf("%v", []string(*a))
}

func (a *argList) Set(value string) error {
	*a = append(*a, value)
	return nil
}

func (a argList) toArgs() (map[string]any, error) {
	if len(a) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(a))
	for _, kv := range a {
		key, value, ok := splitOnce(kv, '=')
		if !ok {
			return nil, fmt.Errorf("expected key=value, got %q", kv)
		}
		out[key] = coerceArgValue(value)
	}
	return out, nil
}

func splitOnce(s string, sep byte) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}

func coerceArgValue(v string) any {
	if v == "true" {
		return true
	}
	if v == "false" {
		return false
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return n
	}
	return v
}

// version is the CLI's reported build version; built from source so it has
// no VCS-derived value to stamp.
const version = "0.1.0"
