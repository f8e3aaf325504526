package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ajitpratap0/mdchat/internal/secret"
)

func keyCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the stored API key",
	}
	cmd.PersistentFlags().StringVar(&provider, "provider", "", "provider the key belongs to (default: llm.provider)")

	name := func() string {
		if provider != "" {
			return secret.APIKeyName(strings.ToLower(provider))
		}
		return secret.APIKeyName(cfg.LLM.Provider)
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set",
		Short: "Store an API key (prompted, or read from stdin when piped)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				value string
				err   error
			)
			if term.IsTerminal(int(os.Stdin.Fd())) {
				value, err = secret.TerminalPrompter(os.Stdin, cmd.ErrOrStderr())("Enter " + strings.ReplaceAll(name(), "_", " "))
			} else {
				value, err = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && value != "" {
					err = nil
				}
				value = strings.TrimSpace(value)
			}
			if err != nil {
				return fmt.Errorf("key set: %w", err)
			}
			st := newSecretStore()
			if err := st.Set(name(), value); err != nil {
				return fmt.Errorf("key set: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s in %s\n", name(), st.Path())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newSecretStore().Delete(name()); err != nil {
				return fmt.Errorf("key clear: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", name())
			return nil
		},
	})

	return cmd
}
