package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/tutorvoice/tutorvoice/pkg/core/chat"
	"github.com/tutorvoice/tutorvoice/pkg/core/session"
	"github.com/tutorvoice/tutorvoice/pkg/core/types"
	"github.com/tutorvoice/tutorvoice/pkg/core/voice"
)

type repl struct {
	coord    *chat.Coordinator
	store    *session.Store
	capture  *voice.CaptureController
	playback *voice.PlaybackController
	logger   *slog.Logger

	in  io.Reader
	out io.Writer

	mu         sync.Mutex
	lastAnswer string
}

func newREPL(coord *chat.Coordinator, store *session.Store, capture *voice.CaptureController, playback *voice.PlaybackController, logger *slog.Logger) *repl {
	return &repl{
		coord:    coord,
		store:    store,
		capture:  capture,
		playback: playback,
		logger:   logger,
		in:       os.Stdin,
		out:      os.Stdout,
	}
}

func (r *repl) run() error {
	r.capture.SetCallbacks(nil, nil, r.printNotice)
	r.playback.SetCallbacks(func(speaking bool) {
		r.coord.Avatar().SetSpeaking(speaking)
	}, r.printNotice)

	go r.consumeEvents()

	cur := r.store.Current()
	if cur.MessageCount() > 0 {
		fmt.Fprintln(r.out, renderTranscript(cur))
	}
	fmt.Fprintln(r.out, renderAvatar(r.coord.Avatar().Emotion(), false))
	fmt.Fprintln(r.out, metaStyle.Render("Type a question, or /help for commands."))

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := r.command(line); quit {
				return nil
			}
			continue
		}
		r.submit(line)
	}
}

func (r *repl) submit(text string) {
	err := r.coord.Submit(context.Background(), text)
	switch {
	case errors.Is(err, chat.ErrSendInFlight):
		r.printNotice("Still answering the previous question.")
	case err != nil:
		fmt.Fprintln(r.out, errorStyle.Render("! "+err.Error()))
	}
}

// command handles a slash command and reports whether the REPL should exit.
func (r *repl) command(line string) bool {
	parts := strings.Fields(line)
	cmd, args := parts[0], parts[1:]

	switch cmd {
	case "/quit", "/exit":
		r.playback.Stop()
		r.capture.StopListening()
		return true

	case "/help":
		fmt.Fprintln(r.out, longHelp)

	case "/new":
		r.coord.NewSession()
		fmt.Fprintln(r.out, metaStyle.Render("Started a new session."))

	case "/sessions":
		fmt.Fprintln(r.out, renderCatalog(r.store.Catalog()))

	case "/switch":
		id, ok := r.resolveSessionArg(args)
		if !ok {
			break
		}
		if err := r.coord.SwitchSession(id); err != nil {
			fmt.Fprintln(r.out, errorStyle.Render("! "+err.Error()))
			break
		}
		fmt.Fprintln(r.out, renderTranscript(r.store.Current()))

	case "/delete":
		id, ok := r.resolveSessionArg(args)
		if !ok {
			break
		}
		if err := r.coord.DeleteSession(id); err != nil {
			fmt.Fprintln(r.out, errorStyle.Render("! "+err.Error()))
			break
		}
		fmt.Fprintln(r.out, metaStyle.Render("Session deleted."))

	case "/listen":
		r.toggleListen()

	case "/say":
		r.mu.Lock()
		text := r.lastAnswer
		r.mu.Unlock()
		if text == "" {
			r.printNotice("Nothing to read aloud yet.")
			break
		}
		if err := r.playback.Speak(context.Background(), text, voice.SpeakRequest{Forced: true, Toggle: true}); err != nil {
			fmt.Fprintln(r.out, errorStyle.Render("! "+err.Error()))
		}

	case "/stop":
		r.playback.Stop()

	case "/speak":
		enabled := !r.playback.AutoSpeak()
		if len(args) > 0 {
			enabled = args[0] == "on"
		}
		r.playback.SetAutoSpeak(enabled)
		if enabled {
			fmt.Fprintln(r.out, metaStyle.Render("Answers will be read aloud."))
		} else {
			fmt.Fprintln(r.out, metaStyle.Render("Answers will stay silent."))
		}

	case "/dismiss":
		r.coord.Quota().Dismiss()

	default:
		r.printNotice("Unknown command " + cmd + ". Try /help.")
	}
	return false
}

// toggleListen starts dictation, or stops it and submits whatever was heard.
func (r *repl) toggleListen() {
	if r.capture.IsListening() {
		text := r.capture.TakeBuffer()
		if text == "" {
			r.printNotice("No speech detected.")
			return
		}
		fmt.Fprintln(r.out, userLabelStyle.Render("You said:")+" "+text)
		r.submit(text)
		return
	}
	if err := r.capture.StartListening(context.Background()); err != nil {
		// The controller already surfaced a notice for missing capability.
		r.logger.Debug("start listening", "error", err)
		return
	}
	fmt.Fprintln(r.out, metaStyle.Render("Listening... /listen again to stop and send."))
}

// resolveSessionArg turns "/switch 2" or "/switch <id>" into a session ID.
func (r *repl) resolveSessionArg(args []string) (string, bool) {
	if len(args) == 0 {
		r.printNotice("Which session? Use /sessions for the list.")
		return "", false
	}
	arg := args[0]
	if n, err := strconv.Atoi(arg); err == nil {
		catalog := r.store.Catalog()
		if n < 1 || n > len(catalog) {
			r.printNotice(fmt.Sprintf("No session %d; there are %d.", n, len(catalog)))
			return "", false
		}
		return catalog[n-1].ID, true
	}
	return arg, true
}

func (r *repl) consumeEvents() {
	for ev := range r.coord.Events() {
		switch e := ev.(type) {
		case *chat.MessageAppendedEvent:
			// The user's own line is already on screen.
			if e.Message.Role == types.RoleUser {
				continue
			}
			fmt.Fprintln(r.out, "\n"+renderMessage(e.Message))
			if e.Message.Role == types.RoleAssistant {
				r.mu.Lock()
				r.lastAnswer = e.Message.Content
				r.mu.Unlock()
			}
		case *chat.TurnCompletedEvent:
			fmt.Fprintln(r.out, renderAvatar(e.Emotion, r.coord.Avatar().Speaking()))
		case *chat.TurnFailedEvent:
			if e.RateLimited {
				fmt.Fprintln(r.out, renderQuotaNotice(e.RetryAfterSeconds))
			}
		case *chat.ResponseDiscardedEvent:
			fmt.Fprintln(r.out, metaStyle.Render("(answer for a previous session discarded)"))
		}
	}
}

func (r *repl) printNotice(notice string) {
	fmt.Fprintln(r.out, noticeStyle.Render(notice))
}
