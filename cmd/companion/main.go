// Command companion runs an interactive chat with a persona-driven companion.
//
//	companion --session alice --persona tsundere --store sqlite
//
// Settings come from the environment (and .env); flags override them.
package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	companion "github.com/cyberFlowTech/companion-sdk-go"
	"github.com/cyberFlowTech/companion-sdk-go/completion"
	"github.com/cyberFlowTech/companion-sdk-go/config"
	"github.com/cyberFlowTech/companion-sdk-go/events"
	"github.com/cyberFlowTech/companion-sdk-go/logging"
	"github.com/cyberFlowTech/companion-sdk-go/persona"
	"github.com/cyberFlowTech/companion-sdk-go/store"
	"github.com/jessevdk/go-flags"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
)

type options struct {
	Session  string   `short:"s" long:"session" default:"default" description:"Session id to open or create"`
	Persona  string   `short:"p" long:"persona" description:"Switch to this persona on start"`
	Store    string   `long:"store" choice:"memory" choice:"file" choice:"redis" choice:"sqlite" description:"Persistence backend"`
	DataDir  string   `long:"data-dir" description:"Directory for the file backend"`
	EnvFiles []string `long:"env-file" description:"Env file to load (repeatable)"`
	Verbose  bool     `short:"v" long:"verbose" description:"Debug logging"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.ShortDescription = "AI companion chat"
	if _, err := parser.Parse(); err != nil {
		if flags.WroteHelp(err) {
			os.Exit(0)
		}
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdin, os.Stdout); err != nil {
		log.Fatal("Companion stopped", "err", err)
	}
}

func run(ctx context.Context, opts options, in io.Reader, out io.Writer) error {
	conf, err := config.LoadConfig(opts.EnvFiles...)
	if err != nil {
		return err
	}
	if opts.Store != "" {
		conf.Store = opts.Store
	}
	if opts.DataDir != "" {
		conf.DataDir = opts.DataDir
	}
	if opts.Verbose {
		conf.LogLevel = "debug"
	}

	base, err := logging.New(os.Stderr, conf.LogLevel)
	if err != nil {
		return err
	}
	levels, err := logging.ParseComponentLevels(conf.LogLevels)
	if err != nil {
		return err
	}
	logs := logging.NewFactory(base, levels)
	logger := logs.ForComponent("main")

	registry, err := loadRegistry(conf, logs.ForComponent("persona"))
	if err != nil {
		return err
	}

	persistence, closeStore, err := openStore(ctx, conf, logs.ForComponent("store"))
	if err != nil {
		return err
	}
	defer closeStore()

	bus := events.NewBus(logs.ForComponent("events"))
	bus.Subscribe(events.MilestoneReached, func(_ context.Context, e events.Event) error {
		_, err := fmt.Fprintf(out, "✨ milestone: %v conversations together!\n", e.Data["milestone"])
		return err
	})
	if conf.NatsURL != "" {
		nc, err := nats.Connect(conf.NatsURL, nats.Name("companion-"+opts.Session))
		if err != nil {
			return errors.Wrapf(err, "connect nats %s", conf.NatsURL)
		}
		defer nc.Close()
		events.NewNATSForwarder(nc, conf.NatsSubjectPrefix).Attach(bus, events.MilestoneReached)
		logger.Info("Forwarding events to NATS", "url", conf.NatsURL, "prefix", conf.NatsSubjectPrefix)
	}

	sessionOpts := []companion.SessionOption{
		companion.WithPersistence(persistence),
		companion.WithAutoSave(),
		companion.WithSessionLogger(logs.ForComponent("session")),
		companion.WithMilestoneSinks(bus.MilestoneSink(opts.Session)),
		companion.WithMemoryOptions(
			companion.WithMemoryCaps(conf.MemoryCategoryCap, conf.MemoryGlobalCap),
			companion.WithAuditLogger(companion.LogAuditLogger{Logger: logs.ForComponent("memory")}),
		),
	}
	if conf.VoiceModulation {
		sessionOpts = append(sessionOpts, companion.WithSelectorOptions(companion.WithVoiceModulation()))
	}
	if conf.CompletionsEnabled() {
		completer, err := completion.NewOpenAI(completion.Config{
			BaseURL: conf.CompletionsAPIURL,
			APIKey:  conf.CompletionsAPIKey,
			Model:   conf.CompletionsModel,
			Timeout: conf.CompletionsTimeout,
			Logger:  logs.ForComponent("completion"),
		})
		if err != nil {
			return err
		}
		sessionOpts = append(sessionOpts, companion.WithCompleter(completer))
		logger.Info("Completions enabled", "model", conf.CompletionsModel)
	}

	sess, err := companion.OpenSession(ctx, opts.Session, registry, sessionOpts...)
	if err != nil {
		return err
	}
	if opts.Persona != "" {
		if err := sess.SetPersona(opts.Persona); err != nil {
			return err
		}
	}
	logger.Info("Session ready",
		"session", sess.ID(),
		"store", conf.Store,
		"interactions", sess.State().TotalInteractions,
	)

	go sess.RunConsolidation(ctx, conf.ConsolidationInterval)

	replErr := newREPL(sess, registry, out).Run(ctx, in)
	if err := sess.Save(context.WithoutCancel(ctx)); err != nil {
		logger.Error("Final save failed", "err", err)
	}
	return replErr
}

func loadRegistry(conf *config.Config, logger *log.Logger) (*persona.Registry, error) {
	opts := []persona.Option{persona.WithLogger(logger)}
	if conf.RandSeed != 0 {
		opts = append(opts, persona.WithRand(rand.New(rand.NewSource(conf.RandSeed))))
	}
	if conf.Persona != "" {
		opts = append(opts, persona.WithDefault(conf.Persona))
	}
	if conf.PersonasFile != "" {
		return persona.LoadFile(conf.PersonasFile, opts...)
	}
	return persona.LoadDefault(opts...)
}

func openStore(ctx context.Context, conf *config.Config, logger *log.Logger) (companion.Persistence, func(), error) {
	noop := func() {}
	switch conf.Store {
	case config.StoreMemory:
		return store.NewMemory(), noop, nil
	case config.StoreFile:
		f, err := store.NewFile(conf.DataDir, conf.FileFormat)
		return f, noop, err
	case config.StoreRedis:
		client, err := store.DialRedis(ctx, conf.RedisAddr, conf.RedisPassword, conf.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return store.NewRedis(client), func() { client.Close() }, nil
	case config.StoreSQLite:
		db, err := store.NewSQLite(conf.SQLitePath, store.WithSQLiteLogger(logger))
		if err != nil {
			return nil, nil, err
		}
		return db, func() { db.Close() }, nil
	}
	return nil, nil, errors.Errorf("unknown store %q", conf.Store)
}
