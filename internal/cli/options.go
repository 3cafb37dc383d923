package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"zlagoda_console/internal/config"
)

// Options are the global flags given before the command. Zero values leave
// the loaded configuration untouched.
type Options struct {
	Command    []string
	APIBaseURL string
	Timeout    time.Duration
	ExportDir  string
	LogFile    string
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
	JSON       bool
	Debug      bool
}

// ErrHelp is returned by ParseArgs after usage was printed.
var ErrHelp = errors.New("help requested")

func ParseArgs(args []string, stderr io.Writer) (Options, error) {
	var (
		opts           Options
		timeoutSeconds int
	)

	fs := flag.NewFlagSet("zlagoda", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [flags] [command [args]]\n\nWithout a command an interactive console starts. Type 'help' there for the command list.\n\nFlags:\n", fs.Name())
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.APIBaseURL, "api", "", "Backend base URL (API_BASE_URL)")
	fs.IntVar(&timeoutSeconds, "timeout", 0, "Request timeout in seconds (TIMEOUT)")
	fs.StringVar(&opts.ExportDir, "export-dir", "", "Directory for PDF exports (EXPORT_DIR)")
	fs.StringVar(&opts.LogFile, "log-file", "", "Log file path (LOG_FILE)")
	fs.StringVar(&opts.LLMBaseURL, "llm-base-url", "", "LLM base URL (LLM_BASE_URL)")
	fs.StringVar(&opts.LLMAPIKey, "llm-api-key", "", "LLM API key (LLM_API_KEY)")
	fs.StringVar(&opts.LLMModel, "llm-model", "", "LLM model (LLM_MODEL)")
	fs.BoolVar(&opts.JSON, "json", false, "Print machine-readable JSON")
	fs.BoolVar(&opts.Debug, "debug", false, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return Options{}, ErrHelp
		}
		return Options{}, err
	}

	if timeoutSeconds < 0 {
		return Options{}, fmt.Errorf("timeout must not be negative")
	}
	opts.Timeout = time.Duration(timeoutSeconds) * time.Second
	opts.Command = fs.Args()
	return opts, nil
}

// Apply overlays the flags on the loaded configuration.
func (o Options) Apply(cfg config.Config) config.Config {
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&cfg.APIBaseURL, o.APIBaseURL)
	set(&cfg.ExportDir, o.ExportDir)
	set(&cfg.LogFile, o.LogFile)
	set(&cfg.LLMBaseURL, o.LLMBaseURL)
	set(&cfg.LLMAPIKey, o.LLMAPIKey)
	set(&cfg.LLMModel, o.LLMModel)
	if o.Timeout > 0 {
		cfg.Timeout = o.Timeout
	}
	if o.Debug {
		cfg.Debug = true
	}
	return cfg
}

func (o Options) Interactive() bool {
	return len(o.Command) == 0
}
