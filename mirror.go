/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Seednode/sketchbox/canvas"
	"github.com/Seednode/sketchbox/discovery"
	"github.com/Seednode/sketchbox/drawing"
	"github.com/Seednode/sketchbox/relay"
	"github.com/Seednode/sketchbox/socket"
)

var ErrNoBoard = errors.New("no board given: pass a board URL or --board")

type mirrorConfig struct {
	board           string
	discoverTimeout time.Duration
	height          int
	output          string
	width           int
}

func (m *mirrorConfig) validate() error {
	if m.width < 1 || m.height < 1 {
		return fmt.Errorf("invalid canvas size %dx%d", m.width, m.height)
	}
	if m.board != "" && !relay.ValidBoardID(m.board) {
		return fmt.Errorf("%w: %q", relay.ErrInvalidBoardID, m.board)
	}
	if m.output == "" {
		return errors.New("--output must not be empty")
	}
	return nil
}

// boardSocketURL turns a board page URL, a server URL plus board ID, or a
// bare host:port plus board ID into the board's websocket endpoint.
func boardSocketURL(target, board string) (string, error) {
	if !strings.Contains(target, "://") {
		target = "ws://" + target
	}

	u, err := url.Parse(target)
	if err != nil {
		return "", err
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	if u.Host == "" {
		return "", fmt.Errorf("missing host in %q", target)
	}

	path := strings.TrimSuffix(u.Path, "/")
	switch {
	case strings.HasSuffix(path, "/ws"):
	case path != "":
		path += "/ws"
	case board != "":
		path = "/board/" + board + "/ws"
	default:
		return "", ErrNoBoard
	}

	u.Path = path
	u.RawQuery = ""
	u.Fragment = ""

	return u.String(), nil
}

func newMirrorCmd(cfg *Config, v *viper.Viper) *cobra.Command {
	mc := &mirrorConfig{}

	cmd := &cobra.Command{
		Use:   "mirror [board-url]",
		Short: "Follow a board headlessly and save what was drawn.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := mc.validate(); err != nil {
				return err
			}
			if err := cfg.validateMirror(); err != nil {
				return err
			}

			return runMirror(cmd, cfg, mc, args)
		},
	}

	fs := cmd.Flags()

	normalize(fs)

	fs.StringVar(&mc.board, "board", "", "board id to join when no URL is given (env: SKETCHBOX_BOARD)")
	fs.DurationVar(&mc.discoverTimeout, "discover-timeout", 3*time.Second, "how long to search the local network for a server (env: SKETCHBOX_DISCOVER_TIMEOUT)")
	fs.IntVar(&mc.height, "height", 600, "canvas height in CSS pixels (env: SKETCHBOX_HEIGHT)")
	fs.StringVarP(&mc.output, "output", "o", "sketchbox.png", "snapshot to write on exit, .png or .pdf (env: SKETCHBOX_OUTPUT)")
	fs.IntVar(&mc.width, "width", 800, "canvas width in CSS pixels (env: SKETCHBOX_WIDTH)")
	fs.IntVar(&cfg.sendBuffer, "send-buffer", 64, "frames queued before new ones are dropped (env: SKETCHBOX_SEND_BUFFER)")

	bindEnv(v, fs)

	return cmd
}

func (c *Config) validateMirror() error {
	if c.sendBuffer < 1 {
		return fmt.Errorf("invalid send buffer (must be at least 1): %d", c.sendBuffer)
	}
	return nil
}

func runMirror(cmd *cobra.Command, cfg *Config, mc *mirrorConfig, args []string) error {
	ctx := cmd.Context()

	var target string
	if len(args) > 0 {
		target = args[0]
	} else {
		if mc.board == "" {
			return ErrNoBoard
		}

		logf(cfg, "MIRROR: Searching for %s for up to %s", discovery.ServiceType, mc.discoverTimeout)

		addr, err := discovery.Lookup(ctx, mc.discoverTimeout)
		if err != nil {
			return err
		}

		logf(cfg, "MIRROR: Found server at %s", addr)

		target = addr
	}

	wsURL, err := boardSocketURL(target, mc.board)
	if err != nil {
		return err
	}

	sock, err := socket.Dial(ctx, wsURL, socket.Options{
		SendBuffer: cfg.sendBuffer,
		Logf:       logger(cfg),
	})
	if err != nil {
		return fmt.Errorf("dial %s: %w", wsURL, err)
	}

	logf(cfg, "MIRROR: Connected to %s", wsURL)

	surface := canvas.New(mc.width, mc.height)

	area := drawing.NewArea(surface, sock, drawing.Options{Logf: logger(cfg)})
	if err := area.Mount(); err != nil {
		_ = sock.Close()

		return err
	}

	runErr := sock.Run(ctx)

	area.Unmount()

	startTime := time.Now()

	written, err := writeSnapshot(mc.output, surface)
	if err != nil {
		return errors.Join(runErr, err)
	}

	logf(cfg, "MIRROR: Wrote %s (%s, %d segments) in %s",
		mc.output,
		humanReadableSize(written),
		len(surface.Segments()),
		time.Since(startTime).Round(time.Microsecond),
	)

	return runErr
}
