package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexflint/go-arg"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"gptchat/clients/chat"
	"gptchat/clients/db"
	"gptchat/clients/openai"
	"gptchat/clients/session"
	"gptchat/config"
	"gptchat/console"
	"gptchat/metrics"
	"gptchat/service"
)

const ProgramName = "gptchat"

type serveCmd struct {
	Listen string `arg:"--listen,-l" help:"address to listen on, overrides the config"`
	DB     string `arg:"--db" help:"sqlite DSN of the transcript archive, in memory if empty"`
}

type chatCmd struct {
	Prompt string `arg:"positional" help:"ask once and exit, otherwise read prompts line by line"`
}

type args struct {
	Config  string    `arg:"--config,-c" default:"gptchat.yaml" help:"YAML config file, ignored if absent"`
	BaseURL string    `arg:"--base-url" help:"chat completions endpoint prefix"`
	Model   string    `arg:"--model,-m" help:"model to chat with"`
	Strict  bool      `arg:"--strict" help:"fail a stream on a malformed event instead of dropping it"`
	Serve   *serveCmd `arg:"subcommand:serve" help:"serve sessions over HTTP"`
	Chat    *chatCmd  `arg:"subcommand:chat" help:"chat in this terminal"`
}

func (args) Description() string {
	return "Chat with an OpenAI-compatible model, in a terminal or over HTTP."
}

func main() {
	var args args
	p, err := arg.NewParser(arg.Config{Program: ProgramName}, &args)
	if err != nil {
		log.Fatalf("there was an error in the definition of the Go struct: %v", err)
	}
	p.MustParse(os.Args[1:])
	if p.Subcommand() == nil {
		p.WriteUsage(os.Stdout)
		os.Exit(0)
	}

	conf, err := config.Read(args.Config)
	if err != nil {
		log.Fatalf("read config: %v", err)
	}
	args.override(conf)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: conf.Level()}))
	slog.SetDefault(logger)

	switch cmd := p.Subcommand().(type) {
	case *serveCmd:
		if cmd.Listen != "" {
			conf.Listen = cmd.Listen
		}
		if cmd.DB != "" {
			conf.DB = cmd.DB
		}
		err = serve(conf)
	case *chatCmd:
		err = chatInTerminal(conf, cmd.Prompt)
	default:
		p.FailSubcommand("unrecognized command", p.SubcommandNames()...)
	}
	if err != nil {
		slog.Error("exit", "err", err)
		os.Exit(1)
	}
}

func (a *args) override(conf *config.Config) {
	if a.BaseURL != "" {
		conf.BaseURL = a.BaseURL
	}
	if a.Model != "" {
		conf.Model = a.Model
	}
	if a.Strict {
		conf.Strict = true
	}
}

func serve(conf *config.Config) error {
	if conf.APIKey == "" {
		return fmt.Errorf("no API key, set %s or api_key in config", config.EnvAPIKey)
	}
	conn, err := db.Open(conf.DB)
	if err != nil {
		return err
	}
	sessionRepository, err := session.NewRepository(conn)
	if err != nil {
		return err
	}
	chatRepository, err := chat.NewRepository(conn)
	if err != nil {
		return err
	}

	opts := conf.Options()
	opts.Observer = metrics.New(prometheus.DefaultRegisterer)
	factory := func() *openai.Client {
		return openai.New(conf.BaseURL, conf.APIKey, opts)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", service.New(factory, sessionRepository, chatRepository))
	server := &http.Server{
		Addr:              conf.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("listening", "addr", conf.Listen, "model", opts.Model)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func chatInTerminal(conf *config.Config, prompt string) error {
	if conf.APIKey == "" {
		key, err := console.ReadSecret("API key: ")
		if err != nil {
			return fmt.Errorf("read API key: %w", err)
		}
		conf.APIKey = key
	}
	client := openai.New(conf.BaseURL, conf.APIKey, conf.Options())

	// Ctrl-C aborts the prompt being answered, and the process while waiting for input.
	ask := func(line string) error {
		ctx, stop := console.WithInterrupt(context.Background())
		defer stop()
		stream, err := client.StreamText(ctx, line)
		if err != nil {
			return err
		}
		return console.PrintWords(os.Stdout, stream.All())
	}
	if prompt != "" {
		return ask(prompt)
	}

	controller := console.NewController(console.HandleLineFunc(func(line string) {
		if err := ask(line); err != nil {
			slog.Error("chat", "err", err)
		}
	}), console.NewDefaultOptions())
	return controller.Run()
}
