package client

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	v1 "github.com/forptiter/study-assistant/app/logic/v1"
	"github.com/forptiter/study-assistant/pkg/types"
)

var (
	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	assistantStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Bold(true)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243")).
			Italic(true)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

func roleLabel(role types.MessageRole) string {
	switch role {
	case types.ROLE_USER:
		return userStyle.Render("you")
	case types.ROLE_ASSISTANT:
		return assistantStyle.Render("assistant")
	}
	return noticeStyle.Render("notice")
}

// printer writes controller events to a terminal. Streamed replies are printed
// incrementally: only the part of the content not yet written is emitted.
type printer struct {
	mu      sync.Mutex
	out     io.Writer
	written map[string]int
	open    string
}

func newPrinter(out io.Writer) *printer {
	return &printer{out: out, written: map[string]int{}}
}

func (p *printer) closeOpen() {
	if p.open != "" {
		fmt.Fprintln(p.out)
		p.open = ""
	}
}

func (p *printer) message(msg types.Message) {
	p.closeOpen()
	if msg.Role == types.ROLE_SYSTEM {
		fmt.Fprintln(p.out, noticeStyle.Render(msg.Content))
		return
	}
	fmt.Fprintf(p.out, "%s: %s", roleLabel(msg.Role), msg.Content)
	p.written[msg.ID] = len(msg.Content)
	p.open = msg.ID
}

func (p *printer) Handle(e v1.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch e.Type {
	case v1.EVENT_MESSAGE_APPENDED:
		if e.Message != nil {
			p.message(*e.Message)
		}
	case v1.EVENT_MESSAGE_UPDATED:
		// the message may already be gone, e.g. after a reload
		msg := e.Message
		if msg == nil {
			return
		}
		n, ok := p.written[msg.ID]
		if !ok {
			p.message(*msg)
			return
		}
		if p.open != msg.ID {
			return
		}
		if n < len(msg.Content) {
			fmt.Fprint(p.out, msg.Content[n:])
			p.written[msg.ID] = len(msg.Content)
		}
	case v1.EVENT_STATE_CHANGED:
		if e.State != v1.STATE_AWAITING_RESPONSE {
			p.closeOpen()
		}
	}
}

func (p *printer) Log(messages []types.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range messages {
		p.message(m)
	}
	p.closeOpen()
}

func (p *printer) Header(title, meta string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeOpen()
	fmt.Fprintln(p.out, headerStyle.Render(title))
	if meta != "" {
		fmt.Fprintln(p.out, metaStyle.Render(meta))
	}
}
