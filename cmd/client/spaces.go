package client

import (
	"fmt"

	"github.com/spf13/cobra"

	v1 "github.com/forptiter/study-assistant/app/logic/v1"
	"github.com/forptiter/study-assistant/pkg/types"
)

type spaceOptions struct {
	Options
	Name        string
	Description string
	Prompt      string
}

func (o *spaceOptions) addFlags(cmd *cobra.Command) {
	o.AddFlags(cmd.Flags())
	cmd.Flags().StringVarP(&o.Name, "name", "n", "", "space name")
	cmd.Flags().StringVarP(&o.Description, "description", "d", "", "space description")
	cmd.Flags().StringVarP(&o.Prompt, "prompt", "p", "", "custom instructions for the space")
}

func (o *spaceOptions) args() types.UpdateSpaceArgs {
	return types.UpdateSpaceArgs{Name: o.Name, Description: o.Description, Prompt: o.Prompt}
}

// spaceControllers builds the controllers a space command works with.
func spaceControllers(a *app) (*v1.ChatController, *v1.SpaceController) {
	chat := v1.NewChatController(a.ctx, a.core)
	return chat, v1.NewSpaceController(a.core, chat)
}

func NewSpacesCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "spaces",
		Short: "list spaces, newest first",
		RunE: withApp(opts, func(a *app, cmd *cobra.Command, args []string) error {
			_, spaces := spaceControllers(a)
			list, err := spaces.List(a.ctx)
			if err != nil {
				return err
			}
			for _, s := range list {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", s.ID, s.Name, metaStyle.Render(s.Description))
			}
			return nil
		}),
	}
	opts.AddFlags(cmd.Flags())

	cmd.AddCommand(newSpaceCreateCommand(), newSpaceUpdateCommand(), newSpaceFilesCommand(),
		newSpaceUploadCommand(), newSpaceRemoveFileCommand())
	return cmd
}

func newSpaceCreateCommand() *cobra.Command {
	opts := &spaceOptions{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "create a space",
		RunE: withApp(&opts.Options, func(a *app, cmd *cobra.Command, args []string) error {
			_, spaces := spaceControllers(a)
			space, err := spaces.Create(a.ctx, opts.args())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created space %s (%s)\n", space.Name, space.ID)
			return nil
		}),
	}
	opts.addFlags(cmd)
	return cmd
}

func newSpaceUpdateCommand() *cobra.Command {
	opts := &spaceOptions{}
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "update a space",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(&opts.Options, func(a *app, cmd *cobra.Command, args []string) error {
			_, spaces := spaceControllers(a)
			return spaces.Update(a.ctx, args[0], opts.args())
		}),
	}
	opts.addFlags(cmd)
	return cmd
}

func newSpaceFilesCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "files <space id>",
		Short: "list the files of a space",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(a *app, cmd *cobra.Command, args []string) error {
			_, spaces := spaceControllers(a)
			if err := spaces.Select(a.ctx, args[0]); err != nil {
				return err
			}
			for _, f := range spaces.Files() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s\n", f.ID, f.Filename, metaStyle.Render(f.CreatedAt.Format("2006-01-02 15:04")))
			}
			return nil
		}),
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func newSpaceUploadCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "upload <space id> <path>...",
		Short: "upload PDF, DOC or DOCX files to a space",
		Args:  cobra.MinimumNArgs(2),
		RunE: withApp(opts, func(a *app, cmd *cobra.Command, args []string) error {
			_, spaces := spaceControllers(a)
			if err := spaces.Select(a.ctx, args[0]); err != nil {
				return err
			}
			report, err := spaces.UploadFiles(a.ctx, args[1:])
			if err != nil {
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		}),
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

func newSpaceRemoveFileCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "rm <space id> <file id>",
		Short: "delete a file from a space",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, func(a *app, cmd *cobra.Command, args []string) error {
			_, spaces := spaceControllers(a)
			if err := spaces.Select(a.ctx, args[0]); err != nil {
				return err
			}
			return spaces.DeleteFile(a.ctx, args[1])
		}),
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}
