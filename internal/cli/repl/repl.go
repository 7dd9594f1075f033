package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"codejudge/internal/cli/command"
	"codejudge/internal/cli/state"
	"codejudge/internal/codec"
	"codejudge/internal/judgeclient"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
)

const Prompt = "judge> "

// ErrExit is returned by Execute when the user asks to leave.
var ErrExit = errors.New("exit requested")

// Workflows is the judge client surface the REPL drives.
type Workflows interface {
	Run(ctx context.Context, in judgeclient.ExecutionInput, reporter judgeclient.StatusReporter) string
	Submit(ctx context.Context, in judgeclient.SubmissionInput, reporter judgeclient.StatusReporter) string
	Languages() codec.LanguageTable
}

// Session holds REPL state.
type Session struct {
	workflows   Workflows
	commands    map[string]command.Command
	state       *state.SessionState
	statePath   string
	defaultCase judgeclient.TestCase
	timeout     time.Duration
	out         io.Writer
	prompt      func(label string) (string, error)
}

func New(workflows Workflows, commands map[string]command.Command, st *state.SessionState, statePath string, defaultCase judgeclient.TestCase, out io.Writer) *Session {
	return &Session{
		workflows:   workflows,
		commands:    commands,
		state:       st,
		statePath:   statePath,
		defaultCase: defaultCase,
		out:         out,
	}
}

// SetTimeout bounds each workflow; zero leaves only the client's own limits.
func (s *Session) SetTimeout(d time.Duration) {
	s.timeout = d
}

// Run reads lines from rl until exit or end of input. Ctrl-C cancels the
// workflow in flight, not the session.
func (s *Session) Run(ctx context.Context, rl *readline.Instance) error {
	s.prompt = func(label string) (string, error) {
		rl.SetPrompt(label + ": ")
		defer rl.SetPrompt(Prompt)
		line, err := rl.Readline()
		return strings.TrimSpace(line), err
	}
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input failed: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		cmdCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
		err = s.Execute(cmdCtx, line)
		stop()
		if errors.Is(err, ErrExit) {
			s.printLine("bye")
			return nil
		}
		if err != nil {
			s.printLine("error: %v", err)
		}
	}
}

// Execute handles one command line.
func (s *Session) Execute(ctx context.Context, line string) error {
	tokens, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse command failed: %w", err)
	}
	return s.ExecuteArgs(ctx, tokens)
}

// ExecuteArgs handles one already tokenized command.
func (s *Session) ExecuteArgs(ctx context.Context, tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}
	switch tokens[0] {
	case "exit", "quit":
		return ErrExit
	case "help":
		s.printHelp()
		return nil
	case "languages":
		s.printLanguages()
		return nil
	case "set":
		return s.handleSet(tokens[1:])
	case "show":
		return s.handleShow(tokens[1:])
	}

	cmd, ok := s.commands[tokens[0]]
	if !ok {
		return fmt.Errorf("unknown command: %s (try help)", tokens[0])
	}
	params, err := command.Parse(cmd, tokens[1:])
	if err != nil {
		return err
	}
	defaults := s.defaults()
	if err := s.promptMissing(cmd, params, defaults); err != nil {
		return err
	}
	inv, err := command.Build(cmd, params, defaults)
	if err != nil {
		return err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	reporter := judgeclient.ReporterFunc(func(_ context.Context, u judgeclient.StatusUpdate) {
		s.printLine("%s", u.Text)
	})
	switch inv.Workflow {
	case judgeclient.WorkflowRun:
		s.workflows.Run(ctx, inv.Run, reporter)
	case judgeclient.WorkflowSubmit:
		s.workflows.Submit(ctx, inv.Submit, reporter)
	}
	return nil
}

func (s *Session) defaults() command.Defaults {
	d := command.Defaults{Language: s.state.Language, TestCase: s.defaultCase}
	if s.state.TestCase != nil {
		d.TestCase = *s.state.TestCase
	}
	return d
}

func (s *Session) promptMissing(cmd command.Command, params command.Params, defaults command.Defaults) error {
	for _, field := range command.MissingFields(cmd, params, defaults) {
		if s.prompt == nil {
			return fmt.Errorf("missing %s (usage: %s)", field.Name, cmd.Usage)
		}
		value, err := s.prompt(field.Prompt)
		if err != nil {
			return fmt.Errorf("read input failed: %w", err)
		}
		params.Set(field.Name, value)
	}
	return nil
}

func (s *Session) handleSet(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: set language|stdin|expected|timeout <value> | set reset")
	}
	if args[0] == "reset" {
		*s.state = state.SessionState{}
		s.timeout = 0
		if err := state.Clear(s.statePath); err != nil {
			return err
		}
		s.printLine("session reset")
		return nil
	}
	if len(args) < 2 {
		return fmt.Errorf("usage: set %s <value>", args[0])
	}
	value := args[1]
	switch args[0] {
	case "language", "lang":
		if _, err := s.workflows.Languages().Resolve(value); err != nil {
			return fmt.Errorf("unsupported language: %s", value)
		}
		s.state.Language = strings.ToLower(value)
		s.printLine("language set to %s", s.state.Language)
	case "stdin", "expected":
		tc := s.defaults().TestCase
		if args[0] == "stdin" {
			tc.Stdin = value
		} else {
			tc.ExpectedOutput = value
		}
		s.state.TestCase = &tc
		s.printLine("%s updated", args[0])
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}
		s.timeout = d
		s.printLine("timeout set to %s", d)
		return nil
	default:
		return fmt.Errorf("unknown set command: %s", args[0])
	}
	return state.Save(s.statePath, *s.state)
}

func (s *Session) handleShow(args []string) error {
	what := ""
	if len(args) > 0 {
		what = args[0]
	}
	switch what {
	case "config":
		language := s.state.Language
		if language == "" {
			language = "<unset>"
		}
		timeout := "<none>"
		if s.timeout > 0 {
			timeout = s.timeout.String()
		}
		s.printLine("language: %s", language)
		s.printLine("timeout: %s", timeout)
		s.printLine("statePath: %s", s.statePath)
	case "testcase":
		tc := s.defaults().TestCase
		s.printLine("stdin: %q", tc.Stdin)
		s.printLine("expected: %q", tc.ExpectedOutput)
	default:
		return fmt.Errorf("usage: show config|testcase")
	}
	return nil
}

// Completer offers command names and language keys.
func (s *Session) Completer() readline.AutoCompleter {
	languages := func() readline.PrefixCompleterInterface {
		return readline.PcItemDynamic(func(string) []string { return s.workflows.Languages().Keys() })
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("run", languages()),
		readline.PcItem("submit", languages()),
		readline.PcItem("languages"),
		readline.PcItem("set",
			readline.PcItem("language", languages()),
			readline.PcItem("stdin"),
			readline.PcItem("expected"),
			readline.PcItem("timeout"),
			readline.PcItem("reset"),
		),
		readline.PcItem("show", readline.PcItem("config"), readline.PcItem("testcase")),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

func (s *Session) printLanguages() {
	table := s.workflows.Languages()
	for _, key := range table.Keys() {
		id, _ := table.Resolve(key)
		s.printLine("  %-12s %d", key, id)
	}
}

func (s *Session) printHelp() {
	s.printLine("commands:")
	for _, name := range []string{command.CommandRun, command.CommandSubmit} {
		if cmd, ok := s.commands[name]; ok {
			s.printLine("  %s", cmd.Usage)
		}
	}
	s.printLine("system: help | exit | languages | set language|stdin|expected|timeout|reset | show config|testcase")
	s.printLine("examples:")
	s.printLine("  run python ./main.py stdin=\"1 2\"")
	s.printLine("  submit cpp ./fact.cpp")
	s.printLine("  submit java ./Main.java stdin_file=./in.txt expected_file=./out.txt")
}

func (s *Session) printLine(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.out, format+"\n", args...)
}
