package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codejudge/internal/cli/command"
	"codejudge/internal/cli/repl"
	"codejudge/internal/cli/state"
	"codejudge/internal/config"
	"codejudge/internal/judgeclient"
	"codejudge/pkg/utils/logger"

	"github.com/chzyer/readline"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/cli.yaml"

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	execURL := flag.String("exec", "", "Override execution endpoint URL")
	language := flag.String("language", "", "Override default language")
	statePath := flag.String("state", "", "Override session state path")
	timeout := flag.Duration("timeout", 0, "Per-workflow timeout (e.g. 2m)")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] [run|submit ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.LoadCLI(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		return 1
	}
	if *execURL != "" {
		cfg.Client.ExecutionURL = *execURL
	}
	if *statePath != "" {
		cfg.StatePath = *statePath
	}
	if *timeout > 0 {
		cfg.Timeout = *timeout
	}

	if err := logger.Init(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	clientCfg, err := cfg.Client.JudgeClientConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid client config: %v\n", err)
		return 1
	}
	client, err := judgeclient.New(clientCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v (set %s or client.judge.apiKey)\n", judgeclient.MsgNotConfigured, err, config.EnvAPIKey)
		return 1
	}

	st, err := state.Load(cfg.StatePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load session state failed: %v\n", err)
		return 1
	}
	if *language != "" {
		st.Language = *language
	}

	session := repl.New(client, command.Registry(), &st, cfg.StatePath, cfg.TestCase, os.Stdout)
	session.SetTimeout(cfg.Timeout)
	ctx := context.Background()

	if args := flag.Args(); len(args) > 0 {
		cmdCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		if err := session.ExecuteArgs(cmdCtx, args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		return 0
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            repl.Prompt,
		HistoryFile:       cfg.HistoryFile,
		AutoComplete:      session.Completer(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "init terminal failed: %v\n", err)
		return 1
	}
	defer func() { _ = rl.Close() }()

	logger.Debug(ctx, "judge cli started", zap.String("judge", clientCfg.Judge.BaseURL), zap.String("execution", clientCfg.ExecutionURL))
	if err := session.Run(ctx, rl); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return 0
}
