package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/effective-security/agentloop/assistants"
	"github.com/effective-security/agentloop/callbacks"
	"github.com/effective-security/agentloop/pkg/llmutils"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat with the assistant",
	Long: `Starts an interactive chat. Type /clear to reset the conversation,
/history to print it, /stats to print the session statistics,
and /exit to quit.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")

		ctx := cmd.Context()
		a, err := loadApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.closer()

		mode := callbacks.ModeDefault
		if verbose {
			mode = callbacks.ModeVerbose
		}
		stats := callbacks.NewScratchpad(mode)
		cb := callbacks.NewFanout(stats, assistants.NewPackageLoggerCallback(logger))

		assistant, err := assistants.NewAssistant(a.llm, a.registry,
			a.cfg.AssistantOptions(assistants.WithCallback(cb))...)
		if err != nil {
			return err
		}

		printf(cmd, "Chatting with %s on %s, tools: %s\n", a.cfg.LLM.Model, a.cfg.LLM.Endpoint,
			strings.Join(a.registry.Names(), ", "))
		return runREPL(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), assistant, stats, verbose)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().BoolP("verbose", "v", false, "Print each turn with its tool calls as YAML")
}

// runREPL reads one input per line until EOF or /exit.
// stats may be nil.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, a assistants.IAssistant, stats *callbacks.Scratchpad, verbose bool) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(input) {
		case "":
			continue
		case "/exit", "/quit", "exit", "quit":
			fmt.Fprintln(out, "Bye!")
			return nil
		case "/clear":
			a.ClearHistory()
			if stats != nil {
				stats.Reset()
			}
			fmt.Fprintln(out, "Conversation cleared.")
			continue
		case "/stats":
			if stats == nil {
				fmt.Fprintln(out, "Statistics are not collected.")
				continue
			}
			fmt.Fprint(out, stats.Summary())
			continue
		case "/history":
			llmutils.PrintMessages(out, a.History())
			continue
		}

		turn := a.Chat(ctx, input)
		if verbose {
			fmt.Fprint(out, llmutils.ToYAML(turnView(turn)))
			continue
		}
		fmt.Fprint(out, llmutils.EnsureEndsWithNewline(turn.Answer))
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// turnOutput is the verbose output of a turn.
type turnOutput struct {
	Answer    string         `yaml:"answer"`
	Succeeded bool           `yaml:"succeeded"`
	States    []string       `yaml:"states"`
	ToolCalls []toolCallView `yaml:"tool_calls,omitempty"`
}

type toolCallView struct {
	Tool       string         `yaml:"tool"`
	Parameters map[string]any `yaml:"parameters"`
	Succeeded  bool           `yaml:"succeeded"`
	Output     string         `yaml:"output"`
}

func turnView(turn *assistants.Turn) *turnOutput {
	v := &turnOutput{
		Answer:    turn.Answer,
		Succeeded: turn.Succeeded(),
	}
	for _, s := range turn.States {
		v.States = append(v.States, s.String())
	}
	for _, c := range turn.ToolCalls {
		v.ToolCalls = append(v.ToolCalls, toolCallView{
			Tool:       c.ToolName,
			Parameters: c.Parameters,
			Succeeded:  c.Succeeded,
			Output:     c.Output,
		})
	}
	return v
}
