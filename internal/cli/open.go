package cli

import (
	"log/slog"

	"github.com/leitmotif-dev/stratum/internal/schema"
	"github.com/leitmotif-dev/stratum/internal/store"
)

// openStore loads the CUE model and opens the store behind the global flags.
// The caller owns the returned store and must Close it.
func openStore(opts *RootOptions) (*store.Store, error) {
	model, err := schema.Load(opts.ModelDir)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load model", err)
	}

	s, err := store.Open(model, opts.DBFile, store.Options{
		Dir:    opts.DataDir,
		Logger: slog.Default(),
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	return s, nil
}
