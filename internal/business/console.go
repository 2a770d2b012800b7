package business

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/openkcm/implicit-flow/internal/navigation"
	"github.com/openkcm/implicit-flow/internal/ui"
)

const consoleHelp = `Commands:
  login           open the provider login in the browser
  refresh         refresh the session silently
  logout          clear the session
  status          show the session
  complete <url>  hand over the address the browser ended up on
  quit            stop serving`

var consoleCommands = []string{"login", "refresh", "logout", "status", "complete", "help", "quit"}

// consoleLines reads commands from a terminal with line editing and
// history, or line by line from stdin when it is not a terminal.
func consoleLines(ctx context.Context) (<-chan string, func(), error) {
	if !readline.DefaultIsTerminal() {
		return scanLines(ctx, os.Stdin), func() {}, nil
	}

	items := make([]readline.PrefixCompleterInterface, 0, len(consoleCommands))
	for _, name := range consoleCommands {
		items = append(items, readline.PcItem(name))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "implicit-flow> ",
		HistoryFile:     filepath.Join(os.TempDir(), ".implicit_flow_history"),
		AutoComplete:    readline.NewPrefixCompleter(items...),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create readline instance: %w", err)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)

		for {
			line, err := rl.Readline()
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if err != nil {
				return
			}

			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	return lines, func() { _ = rl.Close() }, nil
}

func scanLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	return lines
}

// runConsole runs commands until quit, the end of input or ctx is done.
func runConsole(ctx context.Context, lines <-chan string, term *ui.Terminal, browser *navigation.BrowserSurface) error {
	term.ShowMessage(consoleHelp)

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}

			quit, err := consoleCommand(ctx, line, term, browser)
			if err != nil {
				term.ShowMessage(err.Error())
			}
			if quit {
				return nil
			}
		}
	}
}

func consoleCommand(ctx context.Context, line string, term *ui.Terminal, browser *navigation.BrowserSurface) (bool, error) {
	command, arg, _ := strings.Cut(strings.TrimSpace(line), " ")

	switch command {
	case "":
		return false, nil
	case "quit", "exit":
		return true, nil
	case "login", "refresh", "logout", "status":
		return false, term.Do(ctx, command)
	case "complete":
		arg = strings.TrimSpace(arg)
		if arg == "" {
			return false, errors.New("usage: complete <url>")
		}
		return false, browser.Report(ctx, arg)
	case "help":
		term.ShowMessage(consoleHelp)
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %q, try help", command)
	}
}
