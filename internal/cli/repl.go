// Package cli implements the interactive chat prompt.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/toolgate/toolgate/internal/bridge"
	"github.com/toolgate/toolgate/internal/client"
	"github.com/toolgate/toolgate/pkg/version"
)

const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorGray  = "\033[90m"
	colorCyan  = "\033[36m"
)

// Run drives the prompt loop until /exit or EOF. The backend is only used
// for /tools; prompts go through the orchestrator.
func Run(ctx context.Context, orchestrator *bridge.Orchestrator, backend client.Backend) error {
	fmt.Printf("%s%s v%s%s\n", colorCyan, version.ServerName, version.Version, colorReset)
	fmt.Printf("%sType /help for commands, /exit to quit%s\n\n", colorGray, colorReset)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            colorGreen + "you> " + colorReset,
		HistoryFile:       historyFilePath(),
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			fmt.Printf("%sType /exit to quit%s\n", colorGray, colorReset)
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Println("bye")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if !runCommand(ctx, input, backend) {
				return nil
			}
			continue
		}

		answer, err := orchestrator.Answer(ctx, input)
		if err != nil {
			fmt.Printf("%serror: %v%s\n\n", colorRed, err, colorReset)
			continue
		}
		fmt.Printf("\n%s\n\n", answer)
	}
}

// runCommand handles slash commands. It returns false when the loop should
// end.
func runCommand(ctx context.Context, input string, backend client.Backend) bool {
	switch strings.ToLower(strings.Fields(input)[0]) {
	case "/help":
		printHelp()
	case "/tools":
		printTools(ctx, backend)
	case "/exit", "/quit", "/q":
		fmt.Println("bye")
		return false
	default:
		fmt.Printf("%sunknown command: %s (try /help)%s\n", colorGray, input, colorReset)
	}
	return true
}

func printHelp() {
	fmt.Print(`
Commands:
  /help   show this message
  /tools  list the tools the server exposes
  /exit   quit

Anything else is sent to the model, which may call tools to answer.

`)
}

func printTools(ctx context.Context, backend client.Backend) {
	catalog, err := backend.ListTools(ctx)
	if err != nil {
		fmt.Printf("%serror: %v%s\n", colorRed, err, colorReset)
		return
	}
	for _, t := range catalog {
		fmt.Printf("  %s%-12s%s %s\n", colorCyan, t.Name, colorReset, t.Description)
	}
	fmt.Println()
}

func historyFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	dir := filepath.Join(home, ".toolgate")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ""
	}
	return filepath.Join(dir, "history")
}
