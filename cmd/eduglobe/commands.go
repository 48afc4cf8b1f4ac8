package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"eduglobe/internal/client"
	"eduglobe/internal/conversation"
	"eduglobe/internal/language"
	"eduglobe/internal/state"
	"eduglobe/pkg/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type app struct {
	cfg		*config.Config
	store		state.Store
	controller	*client.Controller
}

func newRootCmd() *cobra.Command {
	cfg := config.LoadConfig()
	a := &app{cfg: cfg}
	var verbose bool

	root := &cobra.Command{
		Use:		"eduglobe",
		Short:		"Terminal client for the EduGlobe math tutor",
		SilenceUsage:	true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
			return a.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.store != nil {
				return a.store.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfg.APIBaseURL, "api", cfg.APIBaseURL, "orchestrator base URL")
	root.PersistentFlags().StringVar(&cfg.StateDriver, "state", cfg.StateDriver, "state driver: memory, sqlite, postgres or redis")
	root.PersistentFlags().StringVar(&cfg.StatePath, "state-path", cfg.StatePath, "sqlite state file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		a.chatCmd(),
		a.sendCmd(),
		a.newCmd(),
		a.listCmd(),
		a.selectCmd(),
		a.deleteCmd(),
		a.languageCmd(),
		a.loginCmd(),
		a.usageCmd(),
	)
	return root
}

func (a *app) open(ctx context.Context) error {
	store, err := state.Open(ctx, a.cfg)
	if err != nil {
		return fmt.Errorf("не удалось открыть хранилище состояния: %w", err)
	}
	a.store = store

	exchanger := client.NewHTTPExchanger(a.cfg.APIBaseURL, &http.Client{})
	a.controller = client.NewController(ctx, store, exchanger, client.Options{
		FreeMessageLimit:	a.cfg.FreeMessageLimit,
		GuestChatLimit:		a.cfg.GuestChatLimit,
		Timeout:		a.cfg.ClientTimeout,
	})
	return nil
}

func (a *app) chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:	"chat",
		Short:	"Interactive session; lines starting with / are commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if err := a.controller.Watch(ctx); err != nil {
				logrus.Warnf("Синхронизация с другими клиентами недоступна: %v", err)
			}
			if a.controller.Active() == nil {
				if _, err := a.controller.NewConversation(ctx); err != nil {
					fmt.Fprintln(out, err)
				}
			}
			printConversation(out, a.controller.Active())

			return a.repl(ctx, cmd.InOrStdin(), out)
		},
	}
}

func (a *app) repl(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "%s > ", a.controller.Placeholder())
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, "/") {
			a.send(ctx, out, line)
			continue
		}

		fields := strings.Fields(line)
		arg := strings.TrimSpace(strings.TrimPrefix(line, fields[0]))
		switch fields[0] {
		case "/quit", "/exit":
			return nil
		case "/new":
			if _, err := a.controller.NewConversation(ctx); err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			printConversation(out, a.controller.Active())
		case "/list":
			printList(out, a.controller.Conversations(), a.controller.ActiveID())
		case "/select":
			if err := a.selectByRef(ctx, arg); err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			printConversation(out, a.controller.Active())
		case "/delete":
			if err := a.controller.DeleteActive(ctx); err != nil {
				fmt.Fprintln(out, err)
			}
		case "/lang":
			if err := a.setLanguage(ctx, arg); err != nil {
				fmt.Fprintln(out, err)
			}
		case "/login":
			printLogin(out, a.controller.ToggleLogin(ctx))
		case "/usage":
			printUsage(out, a.controller.Usage())
		default:
			fmt.Fprintln(out, "commands: /new /list /select N /delete /lang L /login /usage /quit")
		}
	}
}

func (a *app) send(ctx context.Context, out io.Writer, text string) {
	reply, err := a.controller.Send(ctx, text)
	switch {
	case errors.Is(err, client.ErrLimitReached):
		fmt.Fprintln(out, a.controller.Language().UI().LimitReached)
	case reply != nil:
		fmt.Fprintf(out, "AI: %s\n", reply.Text)
	case err != nil:
		fmt.Fprintln(out, err)
	}
}

func (a *app) selectByRef(ctx context.Context, ref string) error {
	list := a.controller.Conversations()
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(list) {
			return client.ErrConversationNotFound
		}
		return a.controller.Select(ctx, list[n-1].ID)
	}
	return a.controller.Select(ctx, ref)
}

func (a *app) setLanguage(ctx context.Context, name string) error {
	lang, ok := language.Parse(name)
	if !ok {
		return fmt.Errorf("%w: %q", client.ErrUnknownLanguage, name)
	}
	return a.controller.SetLanguage(ctx, lang)
}

func (a *app) sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:	"send TEXT...",
		Short:	"Send one message in the active conversation",
		Args:	cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if a.controller.Active() == nil {
				if _, err := a.controller.NewConversation(ctx); err != nil {
					return err
				}
			}
			reply, err := a.controller.Send(ctx, strings.Join(args, " "))
			if reply != nil {
				fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
			}
			return err
		},
	}
}

func (a *app) newCmd() *cobra.Command {
	return &cobra.Command{
		Use:	"new",
		Short:	"Start a new conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			conv, err := a.controller.NewConversation(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", conv.ID, conv.Name)
			return nil
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:	"list",
		Short:	"List conversations, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			printList(cmd.OutOrStdout(), a.controller.Conversations(), a.controller.ActiveID())
			return nil
		},
	}
}

func (a *app) selectCmd() *cobra.Command {
	return &cobra.Command{
		Use:	"select N|ID",
		Short:	"Make a conversation active",
		Args:	cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.selectByRef(cmd.Context(), args[0]); err != nil {
				return err
			}
			printConversation(cmd.OutOrStdout(), a.controller.Active())
			return nil
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:	"delete [ID]",
		Short:	"Delete a conversation, the active one by default",
		Args:	cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return a.controller.DeleteActive(cmd.Context())
			}
			return a.controller.DeleteConversation(cmd.Context(), args[0])
		},
	}
}

func (a *app) languageCmd() *cobra.Command {
	return &cobra.Command{
		Use:	"language [NAME]",
		Short:	"Show or set the tutoring language",
		Args:	cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				current := a.controller.Language()
				for _, l := range language.All() {
					marker := " "
					if l == current {
						marker = "*"
					}
					fmt.Fprintf(out, "%s %s (%s)\n", marker, l.Label(), l.Code())
				}
				return nil
			}
			return a.setLanguage(cmd.Context(), args[0])
		},
	}
}

func (a *app) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:	"login",
		Short:	"Toggle the logged-in flag",
		RunE: func(cmd *cobra.Command, args []string) error {
			printLogin(cmd.OutOrStdout(), a.controller.ToggleLogin(cmd.Context()))
			return nil
		},
	}
}

func (a *app) usageCmd() *cobra.Command {
	return &cobra.Command{
		Use:	"usage",
		Short:	"Show the free-message counter",
		RunE: func(cmd *cobra.Command, args []string) error {
			printUsage(cmd.OutOrStdout(), a.controller.Usage())
			return nil
		},
	}
}

func printConversation(out io.Writer, conv *conversation.Conversation) {
	if conv == nil {
		return
	}
	fmt.Fprintf(out, "== %s ==\n", conv.Name)
	for _, m := range conv.Messages {
		who := "You"
		if m.Role == conversation.RoleAI {
			who = "AI"
		}
		fmt.Fprintf(out, "%s: %s\n", who, m.Text)
	}
}

func printList(out io.Writer, list conversation.List, activeID string) {
	for i, conv := range list {
		marker := " "
		if conv.ID == activeID {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %d. %s (%d)\n", marker, i+1, conv.Name, len(conv.Messages))
	}
}

func printLogin(out io.Writer, authenticated bool) {
	if authenticated {
		fmt.Fprintln(out, "logged in")
		return
	}
	fmt.Fprintln(out, "logged out")
}

func printUsage(out io.Writer, u client.Usage) {
	fmt.Fprintf(out, "messages: %d/%d  blocked: %t  logged in: %t\n",
		u.TotalMessageCount, u.FreeMessageLimit, u.PermanentlyBlocked, u.Authenticated)
}
