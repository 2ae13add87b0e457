package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/lightpath/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// stringList collects a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("lightpath", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
lightpath - Simulates the optical and electronic effects of an instrument.

Usage:
  lightpath [options] PATH...

Arguments:
  PATH
    A .yaml/.yml/.hcl definition file or a directory of them. Several
    paths are loaded in order; files of a directory in lexical order.

Options:
`)
		flagSet.PrintDefaults()
	}

	var overrides stringList
	outputFlag := flagSet.String("output", "", "Write the final image plane to this FITS file.")
	oFlag := flagSet.String("o", "", "Write the final image plane to this FITS file (shorthand).")
	inputFlag := flagSet.String("input", "", "Read the initial image plane (e-/s/pixel) from this file.")
	fluxFlag := flagSet.Float64("flux", 0, "Uniform rate (e-/s/pixel) filling the plane when no --input is given.")
	flagSet.Var(&overrides, "set", "Override a system state value, PATH=VALUE. Repeatable.")
	listFlag := flagSet.Bool("list", false, "Describe the optical system and exit without running it.")
	metricsPortFlag := flagSet.Int("metrics-port", 0, "Port for the /health and /metrics HTTP server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	paths := flagSet.Args()
	if len(paths) == 0 {
		slog.Debug("No definition path provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	outPath := *outputFlag
	if outPath == "" {
		outPath = *oFlag
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		DefinitionPaths: paths,
		InputPath:       *inputFlag,
		OutputPath:      outPath,
		Flux:            *fluxFlag,
		Set:             overrides,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		MetricsPort:     *metricsPortFlag,
		ListOnly:        *listFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
