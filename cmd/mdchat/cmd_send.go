package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajitpratap0/mdchat/internal/chat"
	"github.com/ajitpratap0/mdchat/internal/editor"
)

func sendCmd() *cobra.Command {
	var (
		line  int
		model string
		echo  bool
	)

	cmd := &cobra.Command{
		Use:   "send FILE",
		Short: "Send the conversation around --line and write the reply into FILE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			ctx := cmd.Context()

			cursor, err := toCoreLine(line)
			if err != nil {
				return fmt.Errorf("send: %w", err)
			}
			llmCfg := cfg.LLM
			if model != "" {
				llmCfg.Model = model
			}

			buf, err := editor.OpenFile(args[0], logger)
			if err != nil {
				return fmt.Errorf("send: %w", err)
			}
			defer func() { _ = buf.Close() }()

			// Fail on a bad cursor before asking for credentials.
			if _, err := chat.Preview(buf.Text(), cursor); err != nil {
				return fmt.Errorf("send: %w", err)
			}

			completer, err := newCompleter(llmCfg, logger, true)
			if err != nil {
				return fmt.Errorf("send: %w", err)
			}

			opts := chatOptions()
			if echo {
				opts.OnFragment = func(f string) { fmt.Fprint(cmd.OutOrStdout(), f) }
			}
			runner := chat.NewRunner(completer, opts, logger)

			res, runErr := runner.Run(ctx, chat.Request{
				Key:        buf.Path(),
				CursorLine: cursor,
				Model:      llmCfg.Model,
			}, buf)
			if res != nil {
				if echo && res.Reply != "" {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				for _, w := range res.Warnings {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: line %d: %s\n", w.Line+1, w.Message)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d fragments, %d lost, %d headings demoted, cursor at %d:%d\n",
					buf.Path(), res.Fragments, res.LostFragments, res.Demoted, res.Cursor.Line+1, res.Cursor.Column+1)
			}
			if runErr != nil {
				return fmt.Errorf("send: %w", runErr)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&line, "line", "l", 0, "1-based line inside the conversation to send (required)")
	cmd.Flags().StringVarP(&model, "model", "m", "", "model name (default: llm.model)")
	cmd.Flags().BoolVar(&echo, "echo", false, "also print the reply to stdout as it streams")
	_ = cmd.MarkFlagRequired("line")
	return cmd
}
