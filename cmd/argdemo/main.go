// FILE: argconfig/cmd/argdemo/main.go
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/argconfig"
)

// ServerConfig is registered from struct tags and scanned back after resolution.
type ServerConfig struct {
	Host    string        `arg:"host" help:"listen address" validate:"required"`
	Port    int           `arg:"port" help:"listen port" validate:"min=1,max=65535"`
	Mode    string        `arg:"mode" choice:"dev,prod" help:"run mode"`
	Timeout time.Duration `arg:"timeout" help:"request timeout"`
}

func main() {
	setupLogging()

	if err := newRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("Command execution failed")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	parser, err := newParser()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to declare records")
	}

	cmd := &cobra.Command{
		Use:           "argdemo",
		Short:         "Resolve layered configuration records and print them",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := parser.Evaluate()
			if err != nil {
				var missing *argconfig.MissingRequiredFieldError
				if errors.As(err, &missing) {
					log.Warn().Strs("paths", missing.Paths).Msg("Required values missing")
				}
				return err
			}

			var server ServerConfig
			if err := res.Scan("server", &server); err != nil {
				return err
			}
			log.Info().
				Str("host", server.Host).
				Int("port", server.Port).
				Dur("timeout", server.Timeout).
				Str("config_file", res.ConfigFile).
				Msg("Configuration resolved")

			if verbose, _ := res.Flags["verbose"].(bool); verbose {
				fmt.Fprint(cmd.ErrOrStderr(), res.Debug())
			}

			out := yaml.NewEncoder(cmd.OutOrStdout())
			defer out.Close()
			return out.Encode(res.Tree())
		},
	}
	cmd.Flags().AddFlagSet(parser.Flags())
	return cmd
}

func newParser() (*argconfig.Parser, error) {
	inner := argconfig.NewSchema("Inner").
		Field("x", argconfig.Int, argconfig.Default(1), argconfig.Help("first inner value")).
		Field("y", argconfig.Str, argconfig.Default("a"), argconfig.Help("second inner value"))

	endpoint := argconfig.NewSchema("Endpoint").
		Field("url", argconfig.Str).
		Field("weight", argconfig.Int, argconfig.Default(1))

	outer := argconfig.NewSchema("Outer").
		Field("inner", argconfig.Record(inner), argconfig.DefaultRecord()).
		Field("z", argconfig.Float, argconfig.Default(0.5), argconfig.Help("scale factor")).
		Field("level", argconfig.Choice("low", "high"), argconfig.Default("low")).
		Field("size", argconfig.Tuple(argconfig.Int, argconfig.Int), argconfig.Default([]any{640, 480})).
		Field("tags", argconfig.List(argconfig.Str), argconfig.Factory(func() any { return []any{} })).
		Field("labels", argconfig.Map(argconfig.Str, argconfig.Str), argconfig.Factory(func() any { return map[string]any{} })).
		Field("endpoints", argconfig.List(argconfig.Record(endpoint)), argconfig.Factory(func() any { return []any{} }),
			argconfig.Help("set from the config file only"))

	server, err := argconfig.SchemaFromStruct("Server", ServerConfig{
		Host:    "localhost",
		Port:    8080,
		Mode:    "dev",
		Timeout: 30 * time.Second,
	})
	if err != nil {
		return nil, err
	}

	return argconfig.NewBuilder().
		WithName("argdemo").
		WithRecord(outer).
		WithNamedRecord("server", server).
		WithConfigFlag("config", "c").
		WithFileDiscovery(argconfig.DefaultDiscoveryOptions("argdemo")).
		WithFlags(func(fs *pflag.FlagSet) {
			fs.BoolP("verbose", "v", false, "print resolved values with their sources")
		}).
		WithValidator(func(r *argconfig.Result) error {
			z, err := r.Records["Outer"].Float64("z")
			if err != nil {
				return err
			}
			if z < 0 {
				return fmt.Errorf("Outer.z must not be negative, got %v", z)
			}
			return nil
		}).
		WithLogger(log.Logger).
		Build()
}

// setupLogging configures zerolog for structured logging
func setupLogging() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
