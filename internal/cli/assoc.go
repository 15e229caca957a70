package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/babarot/sift/internal/association"
)

type AssocCommand struct{}

var ErrAssocUsage = errors.New("usage: assoc add OWNER ORPHAN... | rm OWNER ORPHAN... | ls OWNER | clear OWNER | check PATH")

func (c *CLI) Assoc(args []string) error {
	slog.Debug("cli.assoc started")
	defer slog.Debug("cli.assoc finished")

	if len(args) < 2 {
		return ErrAssocUsage
	}
	action, paths := args[0], make([]string, 0, len(args)-1)
	for _, p := range args[1:] {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		paths = append(paths, abs)
	}

	path := c.config.AssociationsPath()
	store := association.New()
	if err := store.Load(path); err != nil {
		return fmt.Errorf("failed to load associations: %w", err)
	}

	switch action {
	case "add":
		if len(paths) < 2 {
			return ErrAssocUsage
		}
		for _, orphan := range paths[1:] {
			store.AddAssociation(paths[0], orphan)
		}
	case "rm":
		if len(paths) < 2 {
			return ErrAssocUsage
		}
		for _, orphan := range paths[1:] {
			store.RemoveAssociation(paths[0], orphan)
		}
	case "clear":
		store.ClearAssociations(paths[0])
	case "ls":
		for _, f := range store.AssociatedFiles(paths[0]) {
			fmt.Fprintln(c.out, f)
		}
		return nil
	case "check":
		if !store.IsPathAssociated(paths[0]) {
			fmt.Fprintf(c.out, "%s is not associated\n", paths[0])
			return nil
		}
		for _, owner := range store.Owners(paths[0]) {
			fmt.Fprintf(c.out, "%s belongs to %s\n", paths[0], owner)
		}
		return nil
	default:
		return ErrAssocUsage
	}

	return store.Save(path)
}
