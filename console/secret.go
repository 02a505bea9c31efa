package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"
)

func readSecretTerminal(prompt string) (secret string, err error) {
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return "", err
	}
	defer func() {
		err = errors.Join(err, term.Restore(int(os.Stdin.Fd()), oldState))
	}()

	screen := struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}
	terminal := term.NewTerminal(screen, "")
	return terminal.ReadPassword(prompt)
}

// readSecretFallback reads one line of r, echoed by whatever feeds it.
func readSecretFallback(r io.Reader, w io.Writer, prompt string) (string, error) {
	_, _ = fmt.Fprint(w, prompt)
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(scanner.Text()), nil
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// ReadSecret prompts for a secret such as an API key, without echo when attached to a terminal.
func ReadSecret(prompt string) (string, error) {
	if !isTerminal() {
		slog.Warn("Not terminal, switch to fallback secret echo mode.")
		return readSecretFallback(os.Stdin, os.Stdout, prompt)
	}
	return readSecretTerminal(prompt)
}
