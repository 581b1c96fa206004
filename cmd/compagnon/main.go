package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/keshon/compagnon/internal/app"
	"github.com/keshon/compagnon/internal/discord"
	"github.com/keshon/compagnon/internal/mind"
	"github.com/keshon/compagnon/internal/reasoning"
	"github.com/keshon/compagnon/internal/temporal"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "compagnon",
		Short:        "compagnon - a French-speaking Discord companion backed by Ollama",
		SilenceUsage: true,
	}
	root.AddCommand(
		discordCmd(),
		chatCmd(),
		classifyCmd(),
		moodCmd(),
		memoryCmd(),
		searchCmd(),
	)
	return root
}

func discordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discord",
		Short: "Run the Discord bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.Load()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a.StartStatus(ctx)
			return discord.NewBot(a.Config, a.Engine, a.Logger.WithPrefix("discord")).Run(ctx)
		},
	}
}

func chatCmd() *cobra.Command {
	var user string
	c := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the bot from the terminal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := app.Load()
			if err != nil {
				return err
			}
			defer a.Close()
			return repl(cmd.Context(), a.Engine, user, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	c.Flags().StringVarP(&user, "user", "u", "local", "user name to chat as")
	return c
}

// repl feeds every input line to the engine as a direct message from user.
func repl(ctx context.Context, engine *mind.Engine, user string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			fmt.Fprint(out, "> ")
			continue
		}
		res := engine.HandleMessage(ctx, mind.Incoming{
			AuthorID:   user,
			AuthorName: user,
			ChannelID:  "local",
			Content:    line,
			IsDM:       true,
		})
		if res.Reaction != "" {
			fmt.Fprintf(out, "[%s]\n", res.Reaction)
		}
		for _, r := range res.Replies {
			fmt.Fprintln(out, r)
		}
		fmt.Fprint(out, "> ")
	}
	return scanner.Err()
}

func classifyCmd() *cobra.Command {
	var facts []string
	c := &cobra.Command{
		Use:   "classify <message>",
		Short: "Show the intent, inferences and reasoning context of a message",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg := strings.Join(args, " ")
			in := reasoning.Classify(msg)
			inf := reasoning.Infer(msg, reasoning.MemoryView{Facts: facts})
			d := reasoning.Decompose(msg, in)

			if err := printJSON(cmd.OutOrStdout(), map[string]any{
				"intent":        in,
				"inferences":    inf,
				"decomposition": d,
			}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), reasoning.BuildContext(in, inf, d))
			return nil
		},
	}
	c.Flags().StringArrayVarP(&facts, "fact", "f", nil, "memorized fact to check contradictions against (repeatable)")
	return c
}

func moodCmd() *cobra.Command {
	var at string
	c := &cobra.Command{
		Use:   "mood",
		Short: "Resolve the temporal mood for now or a given time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now()
			if at != "" {
				t, err := time.ParseInLocation("2006-01-02 15:04", at, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --at %q: %w", at, err)
				}
				now = t
			}
			m := temporal.DefaultRules().Resolve(now)
			fmt.Fprintln(cmd.OutOrStdout(), m.String())
			return printJSON(cmd.OutOrStdout(), m)
		},
	}
	c.Flags().StringVar(&at, "at", "", `local time as "2006-01-02 15:04"`)
	return c
}

func memoryCmd() *cobra.Command {
	var name string
	c := &cobra.Command{
		Use:   "memory <userID>",
		Short: "Print what the bot remembers about a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Load()
			if err != nil {
				return err
			}
			defer a.Close()

			uid, out := args[0], cmd.OutOrStdout()
			s := a.Engine.Stores()
			stats, ok := s.Memory.Stats(uid)
			if !ok {
				fmt.Fprintf(out, "no memory for %s\n", uid)
				return nil
			}
			if name == "" {
				name = uid
			}
			if err := printJSON(out, stats); err != nil {
				return err
			}
			fmt.Fprintln(out, s.Memory.Summary(uid))
			fmt.Fprintln(out, s.History.BuildContext(uid, name))
			return nil
		},
	}
	c.Flags().StringVarP(&name, "name", "n", "", "display name used in the rendered context")
	return c
}

func searchCmd() *cobra.Command {
	var limit int
	c := &cobra.Command{
		Use:   "search <userID> <query>",
		Short: "Search a user's conversation log",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Load()
			if err != nil {
				return err
			}
			defer a.Close()

			hits := a.Engine.Stores().History.Search(args[0], strings.Join(args[1:], " "), limit)
			out := cmd.OutOrStdout()
			if len(hits) == 0 {
				fmt.Fprintln(out, "no match")
				return nil
			}
			for _, h := range hits {
				fmt.Fprintf(out, "[%s] (%d) %s: %s\n", h.Message.Timestamp.Format("02/01/2006 15:04"), h.Score, h.Message.Role, h.Message.Content)
			}
			return nil
		},
	}
	c.Flags().IntVarP(&limit, "limit", "l", 10, "maximum number of results")
	return c
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
