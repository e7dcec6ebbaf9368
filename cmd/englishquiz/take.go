package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pavelanni/englishquiz/internal/client"
	"github.com/pavelanni/englishquiz/internal/handler/views"
	appI18n "github.com/pavelanni/englishquiz/internal/i18n"
	"github.com/pavelanni/englishquiz/internal/model"
	"github.com/pavelanni/englishquiz/internal/quiz"
)

var errInputClosed = errors.New("input closed")

func takeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "take",
		Short: "Take the quiz in the terminal against a running server",
		RunE:  runTake,
	}
	f := cmd.Flags()
	f.String("server", "http://localhost:8080", "Quiz server base URL")
	f.String("name", "", "Your name (asked for when empty)")
	f.Int("time-limit", quiz.DefaultBudget, "Time limit in seconds")
	f.StringP("lang", "l", "en", "Language (en, id)")
	addLogFlags(f, "warn")
	return cmd
}

func runTake(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	if err := appI18n.Init(v.GetString("lang")); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	api := client.New(v.GetString("server"), nil)
	cfg := takeConfig{Name: v.GetString("name"), Budget: v.GetInt("time-limit")}
	return takeQuiz(ctx, api, cfg, cmd.InOrStdin(), cmd.OutOrStdout())
}

type quizAPI interface {
	FetchQuestions(ctx context.Context) ([]model.Question, error)
	Submit(ctx context.Context, sub model.SubmissionRequest) (model.SubmissionCreated, error)
}

type takeConfig struct {
	Name             string
	Budget           int
	Tick             time.Duration
	ExplanationDelay time.Duration
}

// takeQuiz runs attempts until the test-taker declines another one.
func takeQuiz(ctx context.Context, api quizAPI, cfg takeConfig, in io.Reader, out io.Writer) error {
	questions, err := api.FetchQuestions(ctx)
	if errors.Is(err, model.ErrNoQuestions) {
		fmt.Fprintln(out, appI18n.T(ctx, "NoQuestionsYet"))
		return nil
	}
	if err != nil {
		return fmt.Errorf("fetch questions: %w", err)
	}

	changes := make(chan quiz.Session, 8)
	d := quiz.NewDriver(quiz.New(questions, cfg.Budget), quiz.DriverConfig{
		TickInterval:     cfg.Tick,
		ExplanationDelay: cfg.ExplanationDelay,
		OnChange: func(s quiz.Session) {
			select {
			case changes <- s:
			default:
			}
		},
	})
	defer d.Close()

	t := &terminal{ctx: ctx, out: out, lines: readLines(in)}
	name := cfg.Name
	for {
		s, err := t.attempt(d, changes, name)
		if errors.Is(err, errInputClosed) || errors.Is(err, context.Canceled) {
			fmt.Fprintln(out)
			return nil
		}
		if err != nil {
			return err
		}
		name = s.Name
		t.report(api, s)

		if !t.confirm(appI18n.T(ctx, "PlayAgain")) {
			return nil
		}
		if err := d.Restart(); err != nil {
			return err
		}
	}
}

type terminal struct {
	ctx   context.Context
	out   io.Writer
	lines <-chan string
}

func readLines(in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	return lines
}

func (t *terminal) readLine() (string, error) {
	select {
	case <-t.ctx.Done():
		return "", t.ctx.Err()
	case line, ok := <-t.lines:
		if !ok {
			return "", errInputClosed
		}
		return strings.TrimSpace(line), nil
	}
}

// attempt starts the driver for name, asking for a name until one is
// accepted, and plays until the session finishes.
func (t *terminal) attempt(d *quiz.Driver, changes <-chan quiz.Session, name string) (quiz.Session, error) {
	for {
		if strings.TrimSpace(name) == "" {
			fmt.Fprint(t.out, appI18n.T(t.ctx, "EnterName")+" ")
			line, err := t.readLine()
			if err != nil {
				return quiz.Session{}, err
			}
			name = line
		}
		err := d.Start(t.ctx, name)
		if err == nil {
			break
		}
		if !errors.Is(err, model.ErrValidation) {
			return quiz.Session{}, err
		}
		fmt.Fprintln(t.out, userMessage(err))
		name = ""
	}

	lines := t.lines
	shown := -1
	for {
		s := d.Session()
		if s.State == quiz.StateFinished {
			return s, nil
		}
		if !s.Explaining && s.Index != shown {
			t.showQuestion(s)
			shown = s.Index
		}

		select {
		case <-t.ctx.Done():
			return quiz.Session{}, t.ctx.Err()
		case <-d.Done():
		case <-changes:
		case line, ok := <-lines:
			if !ok {
				// No more input: let the countdown run out.
				lines = nil
				continue
			}
			t.handle(d, line)
		}
	}
}

func (t *terminal) handle(d *quiz.Driver, line string) {
	var err error
	switch cmd := strings.ToLower(strings.TrimSpace(line)); cmd {
	case "":
		return
	case "n":
		if err = d.Next(); err == nil {
			if s := d.Session(); s.Explaining {
				q, _ := s.Current()
				fmt.Fprintln(t.out, appI18n.Td(t.ctx, "Explanation", map[string]any{"Text": q.Explanation}))
			}
		}
	case "p":
		err = d.Previous()
	case "q":
		d.Finish()
	default:
		s := d.Session()
		q, _ := s.Current()
		n, convErr := strconv.Atoi(cmd)
		if convErr != nil || n < 1 || n > len(q.Options) {
			fmt.Fprintln(t.out, appI18n.T(t.ctx, "AnswerHelp"))
			return
		}
		if err = d.Select(q.Options[n-1]); err == nil {
			fmt.Fprintf(t.out, "> %s\n", q.Options[n-1])
		}
	}
	if err != nil {
		fmt.Fprintln(t.out, userMessage(err))
	}
}

func (t *terminal) showQuestion(s quiz.Session) {
	q, ok := s.Current()
	if !ok {
		return
	}
	fmt.Fprintf(t.out, "\n%s   %s\n%s\n",
		appI18n.Td(t.ctx, "QuestionN", map[string]any{"N": s.Index + 1, "Total": len(s.Questions)}),
		appI18n.Td(t.ctx, "TimeLeft", map[string]any{"Time": views.FormatDuration(s.Remaining)}),
		q.Prompt)
	selected := s.Selected()
	for i, opt := range q.Options {
		mark := " "
		if selected != nil && *selected == opt {
			mark = "*"
		}
		fmt.Fprintf(t.out, " %s %d) %s\n", mark, i+1, opt)
	}
	fmt.Fprintln(t.out, appI18n.T(t.ctx, "AnswerHelp"))
}

// report prints the local result and posts the attempt. The server keeps
// its own score; a mismatch is only logged.
func (t *terminal) report(api quizAPI, s quiz.Session) {
	if s.Remaining == 0 {
		fmt.Fprintln(t.out, appI18n.T(t.ctx, "TimeUp"))
	}
	fmt.Fprintln(t.out, appI18n.Td(t.ctx, "YourScore", map[string]any{
		"Name":       s.Name,
		"Score":      s.Score(),
		"Total":      len(s.Questions),
		"Percentage": s.Percentage(),
		"Grade":      appI18n.Grade(t.ctx, s.Grade()),
	}))

	req, err := s.SubmissionRequest()
	if err != nil {
		slog.Error("build submission", "error", err)
		return
	}
	created, err := api.Submit(t.ctx, req)
	if err != nil {
		slog.Warn("submission failed", "error", err)
		fmt.Fprintln(t.out, appI18n.Td(t.ctx, "SubmissionFailed", map[string]any{"Error": userMessage(err)}))
		return
	}
	fmt.Fprintln(t.out, appI18n.T(t.ctx, "SubmissionSaved"))
	if created.Score != s.Score() {
		slog.Warn("server score differs from local score", "server", created.Score, "local", s.Score())
	}
}

func (t *terminal) confirm(prompt string) bool {
	fmt.Fprint(t.out, prompt+" ")
	line, err := t.readLine()
	if err != nil {
		fmt.Fprintln(t.out)
		return false
	}
	switch strings.ToLower(line) {
	case "y", "yes", "ya":
		return true
	}
	return false
}

func userMessage(err error) string {
	return strings.Replace(err.Error(), model.ErrValidation.Error()+": ", "", 1)
}
