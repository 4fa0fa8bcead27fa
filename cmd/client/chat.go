package client

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	v1 "github.com/forptiter/study-assistant/app/logic/v1"
	"github.com/forptiter/study-assistant/pkg/types"
)

const chatHelp = `commands:
  /new                 start a new chat
  /sessions            list chats of the current tab
  /open <id>           open a chat
  /delete <id>         delete a chat
  /agents              list agents
  /agent <id>          switch agent
  /thinking on|off     toggle full reasoning
  /search <text>       send with web search
  /attach <path>       upload a PDF for this chat
  /detach <file id>    remove an attached file
  /files               list attached files
  /space <id>          enter a space
  /upload <path>...    upload files to the active space
  /tab thread|space    switch tab
  /quit`

func NewChatCommand() *cobra.Command {
	opts := &Options{}
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "interactive chat",
		RunE: withApp(opts, func(a *app, cmd *cobra.Command, args []string) error {
			return runChat(a, os.Stdin, cmd.OutOrStdout())
		}),
	}
	opts.AddFlags(cmd.Flags())
	return cmd
}

type repl struct {
	a      *app
	out    io.Writer
	print  *printer
	chat   *v1.ChatController
	spaces *v1.SpaceController
}

func runChat(a *app, in io.Reader, out io.Writer) error {
	r := &repl{a: a, out: out, print: newPrinter(out)}
	r.chat = v1.NewChatController(a.ctx, a.core)
	r.spaces = v1.NewSpaceController(a.core, r.chat)
	r.chat.Subscribe(r.print.Handle)
	defer r.chat.Wait()

	if err := r.chat.Bootstrap(a.ctx); err != nil {
		return err
	}
	if _, err := r.spaces.List(a.ctx); err != nil {
		fmt.Fprintln(out, err)
	}
	r.showActive()
	fmt.Fprintln(out, metaStyle.Render("type /help for commands"))

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if a.ctx.Err() != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" || line == "/exit" {
			return nil
		}
		if err := r.handle(line); err != nil {
			fmt.Fprintln(out, noticeStyle.Render(describe(a, err)))
		}
	}
	return scanner.Err()
}

func (r *repl) showActive() {
	session := r.chat.ActiveSession()
	if session == nil {
		r.print.Header("no chat selected", string(r.chat.Tab()))
		return
	}
	r.print.Header(session.Name, fmt.Sprintf("%s · agent %s", session.ID, lo.Ternary(r.chat.AgentID() == "", "default", r.chat.AgentID())))
	r.print.Log(r.chat.Messages())
}

func (r *repl) handle(line string) error {
	ctx := r.a.ctx
	if !strings.HasPrefix(line, "/") {
		return r.chat.Send(ctx, v1.SendInput{Text: line})
	}

	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "/help":
		fmt.Fprintln(r.out, chatHelp)
	case "/new":
		if _, err := r.chat.NewChat(ctx); err != nil {
			return err
		}
		r.showActive()
	case "/sessions":
		for _, s := range r.chat.Sessions() {
			fmt.Fprintf(r.out, "%s  %s  %s\n", s.ID, metaStyle.Render(s.CreatedAt.Format("2006-01-02 15:04")), s.Name)
		}
	case "/open":
		if err := r.chat.SelectSession(ctx, arg); err != nil {
			return err
		}
		r.showActive()
	case "/delete":
		if err := r.chat.DeleteSession(ctx, arg); err != nil {
			return err
		}
		r.showActive()
	case "/agents":
		agents, err := v1.NewAgentLogic(ctx, r.a.core).ListAgents()
		if err != nil {
			return err
		}
		for _, ag := range agents {
			fmt.Fprintf(r.out, "%s  %s  %s\n", ag.ID, ag.DisplayName, metaStyle.Render(ag.Description))
		}
	case "/agent":
		return r.chat.SwitchAgent(ctx, arg)
	case "/thinking":
		r.chat.SetThinking(arg != "off")
		fmt.Fprintln(r.out, metaStyle.Render(fmt.Sprintf("thinking %v", r.chat.Thinking())))
	case "/search":
		return r.chat.Send(ctx, v1.SendInput{Text: arg, WebSearch: true})
	case "/attach":
		_, err := r.chat.AttachFile(ctx, arg)
		return err
	case "/detach":
		if !r.chat.DetachFile(ctx, arg) {
			return fmt.Errorf("no attached file %q", arg)
		}
	case "/files":
		for _, f := range r.chat.Files().Entries() {
			fmt.Fprintf(r.out, "%s  %s\n", f.ID, f.Name)
		}
	case "/space":
		if err := r.spaces.Select(ctx, arg); err != nil {
			return err
		}
		for _, f := range r.spaces.Files() {
			fmt.Fprintf(r.out, "%s  %s\n", f.ID, f.Filename)
		}
		r.showActive()
	case "/upload":
		report, err := r.spaces.UploadFiles(ctx, strings.Fields(arg))
		if err != nil {
			return err
		}
		printReport(r.out, report)
	case "/tab":
		if arg != string(types.TAB_THREAD) && arg != string(types.TAB_SPACE) {
			return fmt.Errorf("unknown tab %q", arg)
		}
		if err := r.chat.SelectTab(ctx, types.ChatTab(arg)); err != nil {
			return err
		}
		r.showActive()
	default:
		return fmt.Errorf("unknown command %s, try /help", name)
	}
	return nil
}

func printReport(out io.Writer, report v1.UploadReport) {
	for _, f := range report.Uploaded {
		fmt.Fprintf(out, "uploaded %s (%s)\n", f.Filename, f.ID)
	}
	for _, f := range report.Failed {
		fmt.Fprintln(out, noticeStyle.Render(f.Message))
	}
}
