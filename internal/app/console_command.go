package app

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	clierr "github.com/openwallet-labs/defi-agent/internal/errors"
	"github.com/openwallet-labs/defi-agent/internal/tui"
	"github.com/openwallet-labs/defi-agent/internal/version"
)

func (s *runtimeState) newConsoleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Open the interactive agent console",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := s.ensureSession()
			if err != nil {
				return err
			}
			if err := sess.connect(cmd.Context()); err != nil {
				return err
			}

			if s.settings.OutputMode == "plain" {
				return s.runPlainConsole(cmd, sess)
			}
			if err := tui.Start(sess.interp, sess.tracker, sess.ledger, sess.sink, sess.mock, version.CLIVersion); err != nil {
				return clierr.Wrap(clierr.CodeInternal, "run console", err)
			}
			return nil
		},
	}
	return cmd
}

// runPlainConsole is the non-TTY fallback: read commands from stdin, print
// new log entries after each one.
func (s *runtimeState) runPlainConsole(cmd *cobra.Command, sess *session) error {
	out := cmd.OutOrStdout()
	printed := 0
	flush := func() {
		entries := sess.sink.Entries()
		for _, e := range entries[printed:] {
			_, _ = fmt.Fprintf(out, "[%s] %s %s\n", e.Timestamp, strings.ToUpper(string(e.Severity)), e.Message)
		}
		printed = len(entries)
	}
	flush()

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}
		// Errors are already reflected in the log stream.
		_, _ = sess.interp.Execute(cmd.Context(), line)
		flush()
	}
	return scanner.Err()
}

func (s *runtimeState) newExecCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <command...>",
		Short: "Run one console command and print the result envelope",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := s.ensureSession()
			if err != nil {
				return err
			}
			if err := sess.connect(cmd.Context()); err != nil {
				return err
			}
			result, err := sess.interp.Execute(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return s.emitSuccess(trimRootPath(cmd.CommandPath()), result, nil, cacheMetaBypass())
		},
	}
	return cmd
}
