package command

import (
	"fmt"
	"strings"

	"codejudge/internal/judgeclient"
)

const (
	CommandRun    = "run"
	CommandSubmit = "submit"
)

// Registry returns the workflow commands keyed by name.
func Registry() map[string]Command {
	sourceFields := []Field{
		{Name: "language", Aliases: []string{"lang"}, Prompt: "language", Type: FieldString},
		{Name: "file", Aliases: []string{"source_file"}, Prompt: "source file", Type: FieldFile},
		{Name: "code", Aliases: []string{"source", "source_code"}, Type: FieldString},
		{Name: "stdin", Aliases: []string{"input"}, Type: FieldString},
		{Name: "stdin_file", Aliases: []string{"input_file"}, Type: FieldFile},
	}
	commands := []Command{
		{
			Name:       CommandRun,
			Usage:      "run <language> <file> [stdin=...|stdin_file=...]",
			Positional: []string{"language", "file"},
			Fields:     sourceFields,
		},
		{
			Name:       CommandSubmit,
			Usage:      "submit <language> <file> [stdin=... expected=...|expected_file=...]",
			Positional: []string{"language", "file"},
			Fields: append(append([]Field{}, sourceFields...),
				Field{Name: "expected", Aliases: []string{"expected_output"}, Type: FieldString},
				Field{Name: "expected_file", Type: FieldFile},
			),
		},
	}

	result := make(map[string]Command, len(commands))
	for _, cmd := range commands {
		result[cmd.Name] = cmd
	}
	return result
}

// Defaults fill in what a command line leaves out.
type Defaults struct {
	Language string
	TestCase judgeclient.TestCase
}

// Invocation is a command resolved into workflow input.
type Invocation struct {
	Workflow judgeclient.Workflow
	Run      judgeclient.ExecutionInput
	Submit   judgeclient.SubmissionInput
}

// MissingFields lists the required params still absent, so the caller can
// prompt for them.
func MissingFields(cmd Command, params Params, defaults Defaults) []Field {
	var missing []Field
	for _, field := range cmd.Fields {
		switch field.Name {
		case "language":
			if params.Get("language") == "" && defaults.Language == "" {
				missing = append(missing, field)
			}
		case "file":
			if params.Get("file") == "" && !params.Has("code") {
				missing = append(missing, field)
			}
		}
	}
	return missing
}

// Build resolves params into an invocation. File fields are read here.
func Build(cmd Command, params Params, defaults Defaults) (Invocation, error) {
	language := params.Get("language")
	if language == "" {
		language = defaults.Language
	}
	if language == "" {
		return Invocation{}, fmt.Errorf("missing language")
	}
	source, err := textOrFile(params, "code", "file")
	if err != nil {
		return Invocation{}, err
	}
	if strings.TrimSpace(source) == "" {
		return Invocation{}, fmt.Errorf("missing source code")
	}
	stdin, err := textOrFile(params, "stdin", "stdin_file")
	if err != nil {
		return Invocation{}, err
	}

	switch cmd.Name {
	case CommandRun:
		return Invocation{
			Workflow: judgeclient.WorkflowRun,
			Run:      judgeclient.ExecutionInput{SourceCode: source, Language: language, Stdin: stdin},
		}, nil
	case CommandSubmit:
		testCase := defaults.TestCase
		expected, err := textOrFile(params, "expected", "expected_file")
		if err != nil {
			return Invocation{}, err
		}
		if params.Has("expected") || params.Has("expected_file") {
			testCase = judgeclient.TestCase{Stdin: stdin, ExpectedOutput: expected}
		} else if params.Has("stdin") || params.Has("stdin_file") {
			return Invocation{}, fmt.Errorf("stdin needs expected or expected_file on submit")
		}
		return Invocation{
			Workflow: judgeclient.WorkflowSubmit,
			Submit:   judgeclient.SubmissionInput{SourceCode: source, Language: language, TestCase: testCase},
		}, nil
	}
	return Invocation{}, fmt.Errorf("unknown command: %s", cmd.Name)
}

// textOrFile prefers the inline param over the file param.
func textOrFile(params Params, inline, file string) (string, error) {
	if params.Has(inline) {
		return params.Get(inline), nil
	}
	if path := params.Get(file); path != "" {
		return ReadFile(path)
	}
	return "", nil
}
