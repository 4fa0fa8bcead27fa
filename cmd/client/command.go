package client

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/forptiter/study-assistant/app/core"
	v1 "github.com/forptiter/study-assistant/app/logic/v1"
	"github.com/forptiter/study-assistant/pkg/errors"
	"github.com/forptiter/study-assistant/pkg/metrics"
	"github.com/forptiter/study-assistant/pkg/safe"
)

type Options struct {
	ConfigPath string
}

func (o *Options) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&o.ConfigPath, "config", "c", "", "load client config from the given toml file")
}

// app is the per-invocation wiring shared by all subcommands.
type app struct {
	core *core.Core
	ctx  context.Context
	stop context.CancelFunc
}

func (a *app) Close() {
	a.stop()
	if err := a.core.Close(); err != nil {
		slog.Warn("failed to close core", slog.String("error", err.Error()))
	}
}

func setupApp(opts *Options) *app {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	c := core.MustSetupCore(core.MustLoadBaseConfig(opts.ConfigPath))

	if addr := c.Cfg().Metrics.Addr; addr != "" {
		go safe.RunWithLog(func() {
			if err := metrics.Serve(ctx, addr); err != nil {
				slog.Error("metrics server stopped", slog.String("addr", addr), slog.String("error", err.Error()))
			}
		}, "metrics")
	}
	return &app{core: c, ctx: ctx, stop: stop}
}

// signedIn sets the app up and attaches the saved user to its context.
func signedIn(opts *Options) (*app, error) {
	a := setupApp(opts)
	user, err := v1.NewAuthLogic(a.ctx, a.core).CurrentUser()
	if err != nil {
		slog.Debug("failed to restore session", slog.String("error", err.Error()))
		a.Close()
		return nil, fmt.Errorf("not signed in, run `login` first")
	}
	a.ctx = v1.InjectUser(a.ctx, *user)
	return a, nil
}

// describe renders err for the terminal, localizing traced errors.
func describe(a *app, err error) string {
	var ce *errors.CustomizedError
	if errors.As(err, &ce) {
		return a.core.Text(ce.Message(), ce.Data())
	}
	return err.Error()
}

// NewCommands returns every client subcommand.
func NewCommands() []*cobra.Command {
	return []*cobra.Command{
		NewLoginCommand(),
		NewSignUpCommand(),
		NewLogoutCommand(),
		NewChatCommand(),
		NewSessionsCommand(),
		NewSpacesCommand(),
		NewDriveCommand(),
		NewArchiveCommand(),
	}
}

// withApp adapts a signed in action to cobra's RunE.
func withApp(opts *Options, fn func(a *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := signedIn(opts)
		if err != nil {
			return err
		}
		defer a.Close()
		if err = fn(a, cmd, args); err != nil {
			return fmt.Errorf("%s", describe(a, err))
		}
		return nil
	}
}
