// Package chat runs the line-based question and answer loop.
package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"ragchat/internal/domain"
	"ragchat/internal/logging"
)

// PromptBuilder renders the grounded prompt for a question.
type PromptBuilder interface {
	BuildPrompt(ctx context.Context, question string) (string, error)
}

// ModelFactory constructs the chat model at startup.
type ModelFactory func(ctx context.Context) (domain.ChatModel, error)

// selfCheckQuestion is sent through retrieval once before the loop starts.
const selfCheckQuestion = "test"

var exitWords = map[string]struct{}{"sair": {}, "exit": {}, "quit": {}}

// Options configures a Loop. Zero values fall back to no timeout and a
// no-op logger.
type Options struct {
	In      io.Reader
	Out     io.Writer
	Timeout time.Duration
	Logger  *zap.Logger
}

type styles struct {
	prompt lipgloss.Style
	answer lipgloss.Style
	err    lipgloss.Style
}

// StartupError is returned by Run when the chat could not start. Its
// diagnostic has already been written to the loop's output.
type StartupError struct {
	Err error
}

func (e *StartupError) Error() string { return e.Err.Error() }

func (e *StartupError) Unwrap() error { return e.Err }

// Reported marks the error as already shown to the user.
func (e *StartupError) Reported() bool { return true }

// Loop reads one question per line, answers it and keeps going until an exit
// word or end of input. Failures inside a turn are printed and the loop
// continues.
type Loop struct {
	prompts  PromptBuilder
	newModel ModelFactory
	in       *bufio.Scanner
	out      io.Writer
	timeout  time.Duration
	log      *zap.Logger
	styles   styles
}

func New(prompts PromptBuilder, newModel ModelFactory, opts Options) *Loop {
	scanner := bufio.NewScanner(opts.In)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	r := lipgloss.NewRenderer(opts.Out)
	return &Loop{
		prompts:  prompts,
		newModel: newModel,
		in:       scanner,
		out:      opts.Out,
		timeout:  opts.Timeout,
		log:      logging.OrNop(opts.Logger),
		styles: styles{
			prompt: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
			answer: r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
			err:    r.NewStyle().Foreground(lipgloss.Color("9")),
		},
	}
}

// Run performs the startup checks and then serves questions. It returns a
// non-nil error only when startup fails or ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	model, err := l.newModel(ctx)
	if err != nil {
		fmt.Fprintf(l.out, "Error starting chat: %v\n", err)
		fmt.Fprintln(l.out, "Check if environment variables are configured correctly.")
		return &StartupError{Err: err}
	}
	if err := l.selfCheck(ctx); err != nil {
		fmt.Fprintf(l.out, "Could not start chat. Initialization error: %v\n", err)
		fmt.Fprintln(l.out, "Check if environment variables are configured correctly.")
		return &StartupError{Err: err}
	}
	l.log.Debug("chat ready", zap.String("model", model.Name()))

	fmt.Fprint(l.out, "🤖 Chat started! Type 'sair' to exit.\n\n")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(l.out, l.styles.prompt.Render("Question:")+" ")
		if !l.in.Scan() {
			if err := l.in.Err(); err != nil {
				l.log.Warn("reading input", zap.Error(err))
			}
			fmt.Fprintln(l.out)
			fmt.Fprintln(l.out, "Goodbye!")
			return nil
		}
		question := strings.TrimSpace(l.in.Text())
		if _, ok := exitWords[strings.ToLower(question)]; ok {
			fmt.Fprintln(l.out, "Goodbye!")
			return nil
		}
		if question == "" {
			fmt.Fprint(l.out, "Please enter a valid question.\n\n")
			continue
		}

		answer, err := l.turn(ctx, model, question)
		if err != nil {
			l.log.Debug("turn failed", zap.Error(err))
			fmt.Fprintf(l.out, "%s %v\n\n", l.styles.err.Render("Error processing question:"), err)
			continue
		}
		fmt.Fprintf(l.out, "%s %s\n\n", l.styles.answer.Render("ANSWER:"), answer)
	}
}

func (l *Loop) selfCheck(ctx context.Context) error {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()
	prompt, err := l.prompts.BuildPrompt(ctx, selfCheckQuestion)
	if err != nil {
		return err
	}
	if prompt == "" {
		return errors.New("error in search function")
	}
	return nil
}

// turn answers one question. Panics are reported as UnknownError.
func (l *Loop) turn(ctx context.Context, model domain.ChatModel, question string) (answer string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &domain.UnknownError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	prompt, err := l.prompts.BuildPrompt(ctx, question)
	if err != nil {
		return "", domain.Classify(err)
	}
	resp, err := model.Invoke(ctx, prompt)
	if err != nil {
		return "", domain.Classify(err)
	}
	l.log.Debug("question answered", zap.Int("prompt_len", len(prompt)), zap.Duration("took", time.Since(start)))
	return resp.Content, nil
}

func (l *Loop) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, l.timeout)
}
