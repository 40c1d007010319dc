package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind           string
	database       string
	envFile        string
	port           int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.sessionTimeout < 0 || (c.sessionTimeout > 0 && c.sessionTimeout < time.Second) {
		return fmt.Errorf("invalid session timeout (must be 0 or at least 1s): %s", c.sessionTimeout)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

// loadEnvFile reads KEY=value pairs into the environment without
// overriding variables that are already set. A missing default file is
// not an error.
func loadEnvFile(path string, explicit bool) error {
	err := godotenv.Load(path)
	if err != nil && !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("PAPELITO")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "papelito",
		Short:         "Papelito, a team word guessing party game for a single shared screen.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	flags := cmd.Flags()

	flags.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	flags.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: PAPELITO_BIND)")
	flags.StringVarP(&cfg.database, "database", "d", "papelito.db", "path to the sqlite database for saved games, empty to keep games in memory (env: PAPELITO_DATABASE)")
	flags.StringVar(&cfg.envFile, "env-file", ".env", "file of KEY=value pairs loaded into the environment (env: PAPELITO_ENV_FILE)")
	flags.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: PAPELITO_PORT)")
	flags.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: PAPELITO_PREFIX)")
	flags.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: PAPELITO_PROFILE)")
	flags.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle games are unloaded from memory, 0 to never unload (env: PAPELITO_SESSION_TIMEOUT)")
	flags.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: PAPELITO_TLS_CERT)")
	flags.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: PAPELITO_TLS_KEY)")
	flags.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: PAPELITO_VERBOSE)")
	flags.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: PAPELITO_VERSION)")

	cmd.PreRunE = func(cmd *cobra.Command, args []string) error {
		explicit := flags.Changed("env-file")
		_ = v.BindEnv("env-file")
		if !explicit && v.IsSet("env-file") {
			cfg.envFile = v.GetString("env-file")
			explicit = true
		}

		if err := loadEnvFile(cfg.envFile, explicit); err != nil {
			return fmt.Errorf("load env file: %w", err)
		}

		flags.VisitAll(func(f *pflag.Flag) {
			_ = v.BindPFlag(f.Name, f)
			_ = v.BindEnv(f.Name)
			if !f.Changed && v.IsSet(f.Name) {
				_ = flags.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
			}
		})

		return nil
	}

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("papelito v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
