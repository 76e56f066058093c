package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"mcp-okta-support/internal/okta"
)

// errExit is a sentinel error used to signal REPL exit
var errExit = errors.New("exit")

// debugCmd represents the debug command
var debugCmd = &cobra.Command{
	Use:   "debug",
	Short: "Interactive shell against the Okta API",
	Long: `The debug command starts an interactive shell that calls the Okta API
directly, bypassing the MCP layer. It is a smoke tool for operators:
verify credentials, inspect users and applications, search the system
log, and watch the rate limiter state.

Available commands:
  user <identifier>       Show a user with groups and app links
  users [filter]          List users, optionally filtered
  app <id>                Show an application
  apps [filter]           List applications, optionally filtered
  logs [since]            Show recent system log events
  search <query>          Search the system log (filter or free text)
  limits                  Show the rate limiter state
  help, exit

Configuration is read the same way as for the server.`,
	RunE: runDebug,
}

func init() {
	rootCmd.AddCommand(debugCmd)
}

// debugREPL is the interactive shell over the Okta client.
type debugREPL struct {
	client          *okta.Client
	rl              *readline.Instance
	commandHandlers map[string]debugCommand
}

// debugCommand defines a REPL command with its handler and argument requirements
type debugCommand struct {
	minArgs int
	usage   string
	handler func(ctx context.Context, parts []string) error
}

func runDebug(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	initLogging(settings)

	client, err := okta.NewClient(settings)
	if err != nil {
		return err
	}
	defer client.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	setupSignalHandler(cancel)

	r := &debugREPL{client: client}
	r.commandHandlers = r.buildCommandHandlers()
	return r.run(ctx)
}

func (r *debugREPL) run(ctx context.Context) error {
	historyFile := filepath.Join(os.TempDir(), ".mcp_okta_support_history")

	config := &readline.Config{
		Prompt:          "okta> ",
		HistoryFile:     historyFile,
		AutoComplete:    r.createCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold: true,
	}

	rl, err := readline.NewEx(config)
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer func() { _ = rl.Close() }()
	r.rl = rl

	fmt.Println("Okta debug shell. Type 'help' for available commands. Use TAB for completion.")
	fmt.Println()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				continue
			}
		} else if err == io.EOF {
			fmt.Println("Goodbye!")
			return nil
		} else if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		if err := r.executeCommand(ctx, input); err != nil {
			if errors.Is(err, errExit) {
				fmt.Println("Goodbye!")
				return nil
			}
			fmt.Printf("Error: %v\n", err)
		}

		fmt.Println()
	}
}

func (r *debugREPL) createCompleter() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("user"),
		readline.PcItem("users"),
		readline.PcItem("app"),
		readline.PcItem("apps"),
		readline.PcItem("logs"),
		readline.PcItem("search"),
		readline.PcItem("limits"),
		readline.PcItem("help"),
		readline.PcItem("?"),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
	)
}

// buildCommandHandlers creates the map of command handlers
func (r *debugREPL) buildCommandHandlers() map[string]debugCommand {
	return map[string]debugCommand{
		"help": {minArgs: 1, handler: func(ctx context.Context, parts []string) error {
			return r.showHelp()
		}},
		"?": {minArgs: 1, handler: func(ctx context.Context, parts []string) error {
			return r.showHelp()
		}},
		"exit": {minArgs: 1, handler: func(ctx context.Context, parts []string) error {
			return errExit
		}},
		"quit": {minArgs: 1, handler: func(ctx context.Context, parts []string) error {
			return errExit
		}},
		"user": {
			minArgs: 2,
			usage:   "usage: user <identifier>",
			handler: func(ctx context.Context, parts []string) error {
				return r.handleUser(ctx, strings.Join(parts[1:], " "))
			},
		},
		"users": {
			minArgs: 1,
			handler: func(ctx context.Context, parts []string) error {
				return r.handleUsers(ctx, strings.Join(parts[1:], " "))
			},
		},
		"app": {
			minArgs: 2,
			usage:   "usage: app <id>",
			handler: func(ctx context.Context, parts []string) error {
				return r.handleApp(ctx, parts[1])
			},
		},
		"apps": {
			minArgs: 1,
			handler: func(ctx context.Context, parts []string) error {
				return r.handleApps(ctx, strings.Join(parts[1:], " "))
			},
		},
		"logs": {
			minArgs: 1,
			handler: func(ctx context.Context, parts []string) error {
				var since string
				if len(parts) > 1 {
					since = parts[1]
				}
				return r.handleLogs(ctx, since)
			},
		},
		"search": {
			minArgs: 2,
			usage:   "usage: search <query>",
			handler: func(ctx context.Context, parts []string) error {
				return r.handleSearch(ctx, strings.Join(parts[1:], " "))
			},
		},
		"limits": {minArgs: 1, handler: func(ctx context.Context, parts []string) error {
			return r.handleLimits()
		}},
	}
}

func (r *debugREPL) executeCommand(ctx context.Context, input string) error {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	command := strings.ToLower(parts[0])

	handler, exists := r.commandHandlers[command]
	if !exists {
		return fmt.Errorf("unknown command: %s. Type 'help' for available commands", command)
	}

	if len(parts) < handler.minArgs {
		return errors.New(handler.usage)
	}

	return handler.handler(ctx, parts)
}

func (r *debugREPL) showHelp() error {
	fmt.Println("Available commands:")
	fmt.Println("  user <identifier>   Show a user with groups and app links")
	fmt.Println("  users [filter]      List users, optionally filtered")
	fmt.Println("  app <id>            Show an application")
	fmt.Println("  apps [filter]       List applications, optionally filtered")
	fmt.Println("  logs [since]        Show recent system log events")
	fmt.Println("  search <query>      Search the system log (filter or free text)")
	fmt.Println("  limits              Show the rate limiter state")
	fmt.Println("  help, ?             Show this help")
	fmt.Println("  exit, quit          Leave the shell")
	return nil
}

func (r *debugREPL) handleUser(ctx context.Context, identifier string) error {
	user, err := r.client.Users.GetUser(ctx, identifier)
	if err != nil {
		return err
	}
	printJSON(user.AsMap())

	groups, err := r.client.Users.Groups(ctx, identifier)
	if err != nil {
		return err
	}
	fmt.Printf("Groups (%d):\n", len(groups))
	printJSON(groups)

	links, err := r.client.Users.AppLinks(ctx, identifier)
	if err != nil {
		return err
	}
	fmt.Printf("App links (%d):\n", len(links))
	printJSON(links)
	return nil
}

func (r *debugREPL) handleUsers(ctx context.Context, filter string) error {
	result, err := r.client.Users.ListUsers(ctx, okta.ListUsersOptions{Filter: filter, Limit: 25})
	if err != nil {
		return err
	}
	fmt.Printf("Users (%d, more=%t):\n", result.Count(), result.Links.HasMore())
	printJSON(result.Items)
	return nil
}

func (r *debugREPL) handleApp(ctx context.Context, id string) error {
	app, err := r.client.Applications.Get(ctx, id)
	if err != nil {
		return err
	}
	printJSON(app.AsMap())
	return nil
}

func (r *debugREPL) handleApps(ctx context.Context, filter string) error {
	result, err := r.client.Applications.List(ctx, okta.ListApplicationsOptions{Filter: filter})
	if err != nil {
		return err
	}
	fmt.Printf("Applications (%d, more=%t):\n", result.Count(), result.Links.HasMore())
	printJSON(result.Items)
	return nil
}

func (r *debugREPL) handleLogs(ctx context.Context, since string) error {
	result, err := r.client.Logs.GetLogs(ctx, okta.LogQuery{Since: since, Limit: 25})
	if err != nil {
		return err
	}
	fmt.Printf("Events (%d):\n", result.Count())
	printJSON(result.Items)
	return nil
}

func (r *debugREPL) handleSearch(ctx context.Context, query string) error {
	result, err := r.client.Logs.SearchLogs(ctx, query, "", "", 25)
	if err != nil {
		return err
	}
	fmt.Printf("Events (%d):\n", result.Count())
	printJSON(result.Items)
	return nil
}

func (r *debugREPL) handleLimits() error {
	printJSON(r.client.RateLimit())
	return nil
}

// printJSON pretty-prints a value to stdout.
func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%+v\n", v)
		return
	}
	fmt.Println(string(data))
}
