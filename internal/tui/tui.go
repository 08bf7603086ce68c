// Package tui implements the interactive terminal chat, a thin front end
// over the completion client.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/rs/zerolog"

	"chatctl/internal/client"
	"chatctl/pkg/types"
)

// Options configures a TUI session.
type Options struct {
	Client       *client.Client
	Model        string
	SystemPrompt string
	Temperature  float64
	TopP         float64
	MaxTokens    int
	Log          zerolog.Logger
}

type session struct {
	opts     Options
	app      *tview.Application
	view     *tview.TextView
	input    *tview.TextArea
	mu       sync.Mutex
	history  []types.Message
	inflight bool
}

// Run starts the interactive chat and blocks until the user quits.
func Run(opts Options) error {
	s := &session{opts: opts, app: tview.NewApplication()}
	s.app.EnablePaste(true)
	s.app.EnableMouse(true)

	s.view = tview.NewTextView().
		SetChangedFunc(func() { s.app.Draw() }).
		SetDynamicColors(true).
		SetWordWrap(true)
	s.view.SetTitle("Conversation").SetBorder(true)
	s.view.SetScrollable(true)
	s.view.ScrollToEnd()

	s.input = tview.NewTextArea()
	s.input.SetTitle("Prompt (Enter sends, /help for commands)").SetBorder(true)

	if opts.SystemPrompt != "" {
		s.history = append(s.history, types.Message{Role: types.RoleSystem, Content: opts.SystemPrompt})
	}

	s.input.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() != tcell.KeyEnter {
			return event
		}
		content := strings.TrimSpace(s.input.GetText())
		if content == "" {
			return nil
		}
		s.input.SetText("", true)
		if strings.HasPrefix(content, "/") {
			s.command(content)
			return nil
		}
		s.send(content)
		return nil
	})

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(s.view, 0, 1, false).
		AddItem(s.input, 5, 1, true)

	return s.app.SetRoot(flex, true).SetFocus(s.input).Run()
}

func (s *session) command(content string) {
	switch content {
	case "/help":
		fmt.Fprintf(s.view, "[green]Commands:[-]\n")
		fmt.Fprintf(s.view, "- /help   show this message\n")
		fmt.Fprintf(s.view, "- /models list server models\n")
		fmt.Fprintf(s.view, "- /clear  forget the conversation\n")
		fmt.Fprintf(s.view, "- /bye    quit\n\n")
	case "/models":
		go func() {
			models, err := s.opts.Client.Models(context.Background())
			s.app.QueueUpdateDraw(func() {
				if err != nil {
					fmt.Fprintf(s.view, "[red]models: %v[-]\n\n", err)
					return
				}
				for _, m := range models {
					fmt.Fprintf(s.view, "%s\n", m.ID)
				}
				fmt.Fprintln(s.view)
			})
		}()
	case "/clear":
		s.mu.Lock()
		s.history = s.history[:0]
		if s.opts.SystemPrompt != "" {
			s.history = append(s.history, types.Message{Role: types.RoleSystem, Content: s.opts.SystemPrompt})
		}
		s.mu.Unlock()
		s.view.SetText("")
	case "/bye", "/quit", "/exit":
		s.app.Stop()
	default:
		fmt.Fprintf(s.view, "[red]unknown command %s[-] (try /help)\n\n", content)
	}
}

// finishTurn records the outcome of an in-flight request. On success the
// assistant answer joins the history; on failure the user turn this request
// appended is dropped so a retry resends it cleanly. /clear may have emptied
// the history while the request was running, so only a trailing user turn
// is popped.
func (s *session) finishTurn(answer string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight = false
	if err == nil {
		s.history = append(s.history, types.Message{Role: types.RoleAssistant, Content: answer})
		return
	}
	if n := len(s.history); n > 0 && s.history[n-1].Role == types.RoleUser {
		s.history = s.history[:n-1]
	}
}

func (s *session) send(content string) {
	s.mu.Lock()
	if s.inflight {
		s.mu.Unlock()
		fmt.Fprintf(s.view, "[red]still waiting for the previous answer[-]\n\n")
		return
	}
	s.inflight = true
	s.history = append(s.history, types.Message{Role: types.RoleUser, Content: content})
	req := types.ChatRequest{
		Model:       s.opts.Model,
		Messages:    append([]types.Message(nil), s.history...),
		Temperature: s.opts.Temperature,
		TopP:        s.opts.TopP,
		MaxTokens:   s.opts.MaxTokens,
	}
	s.mu.Unlock()

	fmt.Fprintf(s.view, "[red]You:[-]\n%s\n\n[green]Bot:[-]\n", content)

	go func() {
		var answer strings.Builder
		err := s.opts.Client.ChatStream(context.Background(), req, func(chunk types.ChatStreamChunk) error {
			for _, ch := range chunk.Choices {
				piece := ch.Delta.Content
				if piece == "" {
					continue
				}
				answer.WriteString(piece)
				s.app.QueueUpdateDraw(func() {
					fmt.Fprint(s.view, piece)
				})
			}
			return nil
		})

		s.finishTurn(answer.String(), err)

		s.app.QueueUpdateDraw(func() {
			if err != nil {
				s.opts.Log.Error().Err(err).Msg("completion failed")
				fmt.Fprintf(s.view, "[red]error: %v[-]", err)
			}
			fmt.Fprint(s.view, "\n\n")
		})
	}()
}
