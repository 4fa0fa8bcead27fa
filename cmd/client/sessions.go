package client

import (
	"fmt"

	"github.com/spf13/cobra"

	v1 "github.com/forptiter/study-assistant/app/logic/v1"
)

type sessionsOptions struct {
	Options
	SpaceID string
}

func NewSessionsCommand() *cobra.Command {
	opts := &sessionsOptions{}
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "list chats, newest first",
		RunE: withApp(&opts.Options, func(a *app, cmd *cobra.Command, args []string) error {
			list, err := v1.NewChatSessionLogic(a.ctx, a.core).ListSessions(opts.SpaceID)
			if err != nil {
				return err
			}
			for _, s := range list {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", s.ID, metaStyle.Render(s.CreatedAt.Format("2006-01-02 15:04")), s.Name)
			}
			return nil
		}),
	}
	opts.AddFlags(cmd.Flags())
	cmd.Flags().StringVarP(&opts.SpaceID, "space", "s", "", "list the chats of a space instead of threads")

	deleteOpts := &Options{}
	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "delete a chat and its messages",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(deleteOpts, func(a *app, cmd *cobra.Command, args []string) error {
			return v1.NewChatSessionLogic(a.ctx, a.core).DeleteChatSession(args[0])
		}),
	}
	deleteOpts.AddFlags(deleteCmd.Flags())
	cmd.AddCommand(deleteCmd)
	return cmd
}

func NewArchiveCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "archive <session id>",
		Short: "export a chat transcript to object storage",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(a *app, cmd *cobra.Command, args []string) error {
			path, err := v1.NewArchiveLogic(a.ctx, a.core).Export(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "archived to %s\n", path)
			return nil
		}),
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}
