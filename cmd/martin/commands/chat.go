package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/martinhq/martin/pkg/martin/assistant"
	"github.com/martinhq/martin/pkg/martin/llm"
)

// newChatCmd creates the `martin chat` command for terminal conversations.
func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat with the assistant via terminal",
		Long: `Talk to the assistant directly in the terminal. Pass a message as
argument for a single reply, or run without arguments for an
interactive REPL session.

The terminal chat goes through the same resolution pipeline and tools
as the Mini-App API.

Examples:
  martin chat "добавь задачу купить молоко"
  martin chat                               # interactive mode`,
		Args: cobra.MaximumNArgs(1),
		RunE: runChat,
	}

	cmd.Flags().String("user", "cli", "user ID the conversation runs as")
	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	a, err := buildApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	userID, _ := cmd.Flags().GetString("user")

	// ── Single message mode ──
	if len(args) > 0 {
		env := a.assistant.Handle(cmd.Context(), userID, nil, args[0])
		printEnvelope(env)
		return nil
	}

	return runInteractiveChat(a, userID)
}

// chatHistoryFile returns the readline history path, or "" when the
// home directory is unknown.
func chatHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	dir := filepath.Join(home, ".martin")
	_ = os.MkdirAll(dir, 0o700)
	return filepath.Join(dir, "chat_history")
}

func chatCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("/quit"),
		readline.PcItem("/exit"),
		readline.PcItem("/clear"),
		readline.PcItem("/help"),
	)
}

// runInteractiveChat runs the REPL, accumulating conversation history
// so follow-up messages keep their context.
func runInteractiveChat(a *app, userID string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "\033[36myou>\033[0m ",
		HistoryFile:       chatHistoryFile(),
		HistoryLimit:      1000,
		AutoComplete:      chatCompleter(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	defer rl.Close()

	fmt.Println()
	fmt.Println("  \033[1mMartin\033[0m — терминальный чат")
	fmt.Println("  ─────────────────────────")
	fmt.Println("  Напишите сообщение и нажмите Enter.")
	fmt.Println("  \033[2mКоманды: /help, /clear, /quit · Ctrl+D — выход\033[0m")
	fmt.Println()

	var history []llm.Message

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			if err == io.EOF {
				fmt.Println("\n  До встречи!")
				return nil
			}
			return err
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "/quit", "/exit", "/q":
			fmt.Println("  До встречи!")
			return nil
		case "/clear":
			history = nil
			fmt.Println("  \033[33m[история очищена]\033[0m")
			fmt.Println()
			continue
		case "/help":
			fmt.Println()
			fmt.Println("  \033[36m/help\033[0m   эта справка")
			fmt.Println("  \033[36m/clear\033[0m  начать разговор заново")
			fmt.Println("  \033[36m/quit\033[0m   выход (/exit, /q)")
			fmt.Println()
			continue
		}

		env := a.assistant.Handle(context.Background(), userID, history, input)

		fmt.Println()
		printEnvelope(env)
		fmt.Println()

		history = append(history,
			llm.Message{Role: "user", Content: input},
			llm.Message{Role: "assistant", Content: env.Text},
		)
	}
}

// printEnvelope renders the reply text plus any structured cards.
func printEnvelope(env *assistant.Envelope) {
	fmt.Printf("\033[32mmartin>\033[0m %s\n", env.Text)

	if len(env.Todos) > 0 {
		if env.TodoTitle != "" {
			fmt.Printf("  \033[1m%s\033[0m\n", env.TodoTitle)
		}
		for _, todo := range env.Todos {
			mark := "☐"
			if todo.Completed {
				mark = "☑"
			}
			fmt.Printf("  %s %s\n", mark, todo.Text)
		}
	}

	for _, ev := range env.Events {
		fmt.Printf("  📅 %s  %s — %s", ev.Title, ev.StartTime, ev.EndTime)
		if ev.Location != "" {
			fmt.Printf("  (%s)", ev.Location)
		}
		fmt.Println()
	}

	if env.EmailDraft != nil {
		fmt.Printf("  ✉ Кому: %s\n", env.EmailDraft.To)
		fmt.Printf("    Тема: %s\n", env.EmailDraft.Subject)
		for _, line := range strings.Split(env.EmailDraft.Body, "\n") {
			fmt.Printf("    %s\n", line)
		}
	}
}
