package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"

	v1 "github.com/forptiter/study-assistant/app/logic/v1"
	"github.com/forptiter/study-assistant/pkg/drive"
	"github.com/forptiter/study-assistant/pkg/errors"
	"github.com/forptiter/study-assistant/pkg/i18n"
)

func printAuthURL(out io.Writer) func(string) error {
	return func(url string) error {
		_, err := fmt.Fprintf(out, "open this link to connect Google Drive:\n%s\n", url)
		return err
	}
}

// driveClient restores the saved token, running the consent flow when there is none.
func driveClient(ctx context.Context, a *app, out io.Writer) (*drive.Client, error) {
	cfg := a.core.Cfg().Drive
	if !cfg.Enabled() {
		return nil, errors.New("driveClient.cfg", i18n.ERROR_DRIVE_NOT_AUTHORIZED, nil).Kind(errors.KindInvalidArgument)
	}
	oauthCfg := drive.NewOAuthConfig(cfg.ClientID, cfg.ClientSecret)

	var tok *oauth2.Token
	if cfg.TokenFile != "" {
		saved, err := drive.LoadToken(cfg.TokenFile)
		if err != nil {
			slog.Debug("no saved drive token", slog.String("path", cfg.TokenFile), slog.String("error", err.Error()))
		}
		tok = saved
	}
	if tok == nil {
		var err error
		if tok, err = drive.NewLoopbackAuthorizer(oauthCfg, cfg.CallbackPort, printAuthURL(out)).Authorize(ctx); err != nil {
			return nil, errors.New("driveClient.Authorize", i18n.ERROR_DRIVE_NOT_AUTHORIZED, err).Kind(errors.KindTransport)
		}
		if cfg.TokenFile != "" {
			if err = drive.SaveToken(cfg.TokenFile, tok); err != nil {
				slog.Warn("failed to save drive token", slog.String("path", cfg.TokenFile), slog.String("error", err.Error()))
			}
		}
	}
	return drive.NewClient(ctx, oauthCfg.TokenSource(ctx, tok), cfg.RateLimit)
}

type driveListOptions struct {
	Options
	Limit int64
}

func NewDriveCommand() *cobra.Command {
	opts := &driveListOptions{}
	cmd := &cobra.Command{
		Use:   "drive",
		Short: "list Google Drive documents that can be imported",
		RunE: withApp(&opts.Options, func(a *app, cmd *cobra.Command, args []string) error {
			cli, err := driveClient(a.ctx, a, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			files, err := cli.ListPickable(a.ctx, opts.Limit)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", f.ID, f.Name, metaStyle.Render(f.MimeType))
			}
			return nil
		}),
	}
	opts.AddFlags(cmd.Flags())
	cmd.Flags().Int64VarP(&opts.Limit, "limit", "l", 50, "maximum number of files to list")

	importOpts := &Options{}
	importCmd := &cobra.Command{
		Use:   "import <space id> <drive file id>...",
		Short: "import Drive files into a space",
		Args:  cobra.MinimumNArgs(2),
		RunE: withApp(importOpts, func(a *app, cmd *cobra.Command, args []string) error {
			cli, err := driveClient(a.ctx, a, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			_, spaces := spaceControllers(a)
			if err = spaces.Select(a.ctx, args[0]); err != nil {
				return err
			}
			report, err := spaces.ImportFromDrive(a.ctx, cli, args[1:])
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		}),
	}
	importOpts.AddFlags(importCmd.Flags())
	cmd.AddCommand(importCmd)
	return cmd
}

var _ v1.DriveFiles = (*drive.Client)(nil)
