package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/babarot/sift/internal/association"
	"github.com/babarot/sift/internal/config"
	"github.com/babarot/sift/internal/env"
	historyjson "github.com/babarot/sift/internal/history/json"
	"github.com/babarot/sift/internal/trash"
	"github.com/babarot/sift/internal/trash/factory"
	"github.com/babarot/sift/internal/undo"
	"github.com/babarot/sift/internal/utils/debug"
	"github.com/babarot/sift/internal/utils/log"
	"github.com/jessevdk/go-flags"
	"github.com/k0kubun/pp/v3"
	"github.com/rs/xid"
)

type Option struct {
	Config string `long:"config" description:"Path to config file" default:""`

	Meta MetaOption `group:"Meta Options"`

	Search  SearchCommand  `command:"search" description:"Search folders and stream matching entries"`
	Put     PutCommand     `command:"put" description:"Move paths to the trash as one transaction"`
	History HistoryCommand `command:"history" description:"List recent delete transactions"`
	Restore RestoreCommand `command:"restore" description:"Put a transaction's files back where they were"`
	Prune   PruneCommand   `command:"prune" description:"Drop invalid history entries or orphaned trash metadata"`
	Assoc   AssocCommand   `command:"assoc" description:"Manage files associated with an owner path"`
}

type MetaOption struct {
	Version    bool   `short:"V" long:"version" description:"Show version"`
	Debug      string `long:"debug" description:"View debug logs (default: \"full\")" optional-value:"full" optional:"yes" choice:"full" choice:"live"`
	ShowConfig bool   `long:"show-config" description:"Print the effective config"`
}

type CLI struct {
	version Version
	option  Option
	config  config.Config
	runID   string
	out     io.Writer
	errOut  io.Writer

	trash        *trash.Manager
	undo         *undo.Manager
	associations *association.Store
}

var runID = sync.OnceValue(func() string {
	id := xid.New().String()
	return id
})

var ErrNoCommand = errors.New("no command given (try --help)")

func Run(v Version) error {
	var opt Option
	parser := flags.NewParser(&opt, flags.Default)
	parser.Name = v.AppName
	parser.SubcommandsOptional = true
	args, err := parser.Parse()
	if err != nil {
		if flags.WroteHelp(err) {
			return nil
		}
		return err
	}

	cfg, err := config.Parse(opt.Config)
	if err != nil {
		var verr *config.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintln(os.Stderr, verr.Render())
		}
		return err
	}

	log.Setup(cfg.Logging, env.SIFT_LOG_PATH, runID())

	defer slog.Debug("main function finished\n\n\n")
	slog.Debug("main function started", "version", v.Version, "revision", v.Revision, "buildDate", v.BuildDate)

	cli := CLI{
		version: v,
		option:  opt,
		config:  cfg,
		runID:   runID(),
		out:     os.Stdout,
		errOut:  os.Stderr,
	}

	command := ""
	if parser.Active != nil {
		command = parser.Active.Name
	}
	if err := cli.Run(command, args); err != nil {
		slog.Error("exit", "error", fmt.Errorf("cli.run failed: %w", err))
		return err
	}
	return nil
}

func (c *CLI) Run(command string, args []string) error {
	switch {
	case c.option.Meta.Version:
		fmt.Fprint(c.out, c.version.Print())
		return nil

	case c.option.Meta.ShowConfig:
		pp.Default.SetColoringEnabled(false)
		_, err := pp.Fprintln(c.out, c.config)
		return err

	case c.option.Meta.Debug != "":
		return debug.Logs(c.out, env.SIFT_LOG_PATH, c.config.Logging, c.option.Meta.Debug == "live")
	}

	switch command {
	case "search":
		return c.Search(args)
	case "put":
		return c.Put(args)
	case "history":
		return c.History(args)
	case "restore":
		return c.Restore(args)
	case "prune":
		return c.Prune(args)
	case "assoc":
		return c.Assoc(args)
	}
	return ErrNoCommand
}

// setup builds the trash manager, the delete engine and the association
// store. Commands that only read configuration never call it.
func (c *CLI) setup() error {
	if c.undo != nil {
		return nil
	}

	manager, err := factory.NewManager(c.config.Core.Trash)
	if err != nil {
		return fmt.Errorf("failed to initialize storage manager: %w", err)
	}
	c.trash = manager

	assoc := association.New()
	if err := assoc.Load(c.config.AssociationsPath()); err != nil {
		return fmt.Errorf("failed to load associations: %w", err)
	}
	c.associations = assoc

	opts := []undo.Option{
		undo.WithCapacity(c.config.Core.History.Capacity),
		undo.WithObserver(associationSaver{store: assoc, path: c.config.AssociationsPath()}),
		undo.WithLogger(slog.Default().With("component", "undo")),
	}
	if c.config.Core.History.Persist {
		opts = append(opts, undo.WithStore(historyjson.NewStore(c.config.HistoryPath())))
	}
	m, err := undo.New(manager, opts...)
	if err != nil {
		return err
	}
	c.undo = m
	return nil
}

// associationSaver forgets deleted orphans and writes the store back
type associationSaver struct {
	store *association.Store
	path  string
}

func (a associationSaver) PathsDeleted(paths []string) {
	a.store.PathsDeleted(paths)
	if err := a.store.Save(a.path); err != nil {
		slog.Warn("failed to save associations", "path", a.path, "error", err)
	}
}
