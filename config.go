package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind         string
	boardTimeout time.Duration
	maxMessage   int64
	mdns         bool
	port         int
	prefix       string
	profile      bool
	sendBuffer   int
	tlsCert      string
	tlsKey       string
	verbose      bool
	version      bool
	wasmDir      string
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.maxMessage < 64 {
		return fmt.Errorf("invalid max message size (must be at least 64 bytes): %d", c.maxMessage)
	}
	if c.sendBuffer < 1 {
		return fmt.Errorf("invalid send buffer (must be at least 1): %d", c.sendBuffer)
	}
	if c.boardTimeout < 0 {
		return fmt.Errorf("invalid board timeout (must not be negative): %s", c.boardTimeout)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func normalize(fs *pflag.FlagSet) {
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
}

// bindEnv lets every flag on fs be set through SKETCHBOX_<FLAG_NAME>.
func bindEnv(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("SKETCHBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	return v
}

func newCmd(cfg *Config) *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:           "sketchbox",
		Short:         "A shared drawing board, served as a single webapp.",
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

	fs := cmd.Flags()
	pfs := cmd.PersistentFlags()

	normalize(fs)
	normalize(pfs)

	pfs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: SKETCHBOX_VERBOSE)")

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: SKETCHBOX_BIND)")
	fs.DurationVar(&cfg.boardTimeout, "board-timeout", 60*time.Minute, "time before idle boards are closed, 0 to keep forever (env: SKETCHBOX_BOARD_TIMEOUT)")
	fs.Int64Var(&cfg.maxMessage, "max-message", 4096, "largest accepted websocket frame, in bytes (env: SKETCHBOX_MAX_MESSAGE)")
	fs.BoolVar(&cfg.mdns, "mdns", false, "advertise the server on the local network (env: SKETCHBOX_MDNS)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: SKETCHBOX_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: SKETCHBOX_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: SKETCHBOX_PROFILE)")
	fs.IntVar(&cfg.sendBuffer, "send-buffer", 64, "frames queued per connection before it is dropped (env: SKETCHBOX_SEND_BUFFER)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: SKETCHBOX_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: SKETCHBOX_TLS_KEY)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: SKETCHBOX_VERSION)")
	fs.StringVar(&cfg.wasmDir, "wasm-dir", "", "directory holding drawingarea.wasm and wasm_exec.js (env: SKETCHBOX_WASM_DIR)")

	bindEnv(v, fs)
	bindEnv(v, pfs)

	cmd.AddCommand(newMirrorCmd(cfg, v))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("sketchbox v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
