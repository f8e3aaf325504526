package secret

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNoTerminal means a Prompter had nobody to ask.
var ErrNoTerminal = errors.New("stdin is not a terminal")

// Prompter asks the user for the secret described by label.
type Prompter func(label string) (string, error)

// TerminalPrompter reads a secret from in without echoing it. It fails with
// ErrNoTerminal when in is not a terminal.
func TerminalPrompter(in *os.File, out io.Writer) Prompter {
	return func(label string) (string, error) {
		fd := int(in.Fd())
		if !term.IsTerminal(fd) {
			return "", ErrNoTerminal
		}
		_, _ = fmt.Fprintf(out, "%s: ", label)
		b, err := term.ReadPassword(fd)
		_, _ = fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", label, err)
		}
		return strings.TrimSpace(string(b)), nil
	}
}

// Resolve finds the secret called name. It tries the store first, then
// moves legacy into the store, then asks prompt and stores the answer. It
// returns ErrNotFound when all of them come up empty.
func Resolve(s Store, name, legacy string, prompt Prompter, logger *slog.Logger) (string, error) {
	v, err := s.Get(name)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", err
	}

	if legacy != "" {
		if err := s.Set(name, legacy); err != nil {
			logger.Warn("secret: could not migrate legacy key", "name", name, "error", err)
		} else {
			logger.Info("secret: migrated legacy key into credential store", "name", name)
		}
		return legacy, nil
	}

	if prompt != nil {
		v, err := prompt("Enter " + strings.ReplaceAll(name, "_", " "))
		switch {
		case err != nil:
			logger.Debug("secret: prompt unavailable", "name", name, "error", err)
		case v != "":
			if err := s.Set(name, v); err != nil {
				logger.Warn("secret: could not store key", "name", name, "error", err)
			}
			return v, nil
		}
	}

	return "", fmt.Errorf("%s: %w", name, ErrNotFound)
}
