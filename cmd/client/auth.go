package client

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	v1 "github.com/forptiter/study-assistant/app/logic/v1"
)

type credentialOptions struct {
	Options
	Email string
}

func (o *credentialOptions) addFlags(cmd *cobra.Command) {
	o.AddFlags(cmd.Flags())
	cmd.Flags().StringVarP(&o.Email, "email", "e", "", "account email")
}

// readPassword reads without echo on a terminal and a plain line otherwise.
func readPassword(in *os.File, out io.Writer) (string, error) {
	fmt.Fprint(out, "password: ")
	if term.IsTerminal(int(in.Fd())) {
		raw, err := term.ReadPassword(int(in.Fd()))
		fmt.Fprintln(out)
		return string(raw), err
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func NewLoginCommand() *cobra.Command {
	opts := &credentialOptions{}
	cmd := &cobra.Command{
		Use:   "login",
		Short: "sign in and remember the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := setupApp(&opts.Options)
			defer a.Close()

			password, err := readPassword(os.Stdin, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			user, err := v1.NewAuthLogic(a.ctx, a.core).SignIn(opts.Email, password)
			if err != nil {
				return fmt.Errorf("%s", describe(a, err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", user.Email)
			return nil
		},
	}
	opts.addFlags(cmd)
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func NewSignUpCommand() *cobra.Command {
	opts := &credentialOptions{}
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := setupApp(&opts.Options)
			defer a.Close()

			password, err := readPassword(os.Stdin, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			user, err := v1.NewAuthLogic(a.ctx, a.core).SignUp(opts.Email, password)
			if err != nil {
				return fmt.Errorf("%s", describe(a, err))
			}
			if user == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "check your inbox to confirm the email, then run login")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", user.Email)
			return nil
		},
	}
	opts.addFlags(cmd)
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func NewLogoutCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "sign out and forget the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := setupApp(opts)
			defer a.Close()
			if err := v1.NewAuthLogic(a.ctx, a.core).SignOut(); err != nil {
				return fmt.Errorf("%s", describe(a, err))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}
