// Package console provides helpers for user and app interacts with console, a.k.a. TTY or terminal.
package console

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"strings"
)

type Controller struct {
	handler LineHandler
	opts    Options
}

// NewController creates *Controller, use NewDefaultOptions to provide a workable opts or make it yourself.
func NewController(handler LineHandler, opts Options) *Controller {
	return &Controller{handler: handler, opts: opts}
}

type Options struct {
	EscapeLine string
	EchoInput  bool
	Input      io.Reader
	Output     io.Writer
}

func NewDefaultOptions() Options {
	return Options{
		EscapeLine: "exit()",
		EchoInput:  false,
		Input:      os.Stdin,
		Output:     os.Stdout,
	}
}

type LineHandler interface {
	HandleLine(line string)
}

type HandleLineFunc func(line string)

func (f HandleLineFunc) HandleLine(line string) {
	f(line)
}

// Run feeds every line of input to the handler until the escape line or the end of input.
// Blank lines are ignored.
func (c *Controller) Run() error {
	scanner := bufio.NewScanner(c.opts.Input)
	_, _ = fmt.Fprintf(c.opts.Output, "hint: input %s to escape\n", c.opts.EscapeLine)
	for scanner.Scan() {
		line := scanner.Text()
		if line == c.opts.EscapeLine {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if c.opts.EchoInput {
			slog.Debug("read line", "line", line)
		}
		c.handler.HandleLine(line)
	}
	return scanner.Err()
}

// PrintWords writes every word as it comes, then a line break once words is drained.
func PrintWords(w io.Writer, words iter.Seq2[string, error]) error {
	for word, err := range words {
		if err != nil {
			_, _ = fmt.Fprintln(w)
			return err
		}
		_, _ = fmt.Fprint(w, word)
	}
	_, _ = fmt.Fprintln(w)
	return nil
}
