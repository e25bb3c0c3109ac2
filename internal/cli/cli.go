// Package cli holds the config loading and exit reporting shared by the
// command line tools.
package cli

import (
	"errors"
	"fmt"
	"io"

	"ragchat/internal/config"
	"ragchat/internal/domain"
)

// LoadConfig reads path, or the default locations when path is empty. The
// in-memory store is rejected because ingest and chat run as separate
// processes and would never see each other's vectors.
func LoadConfig(path string) (*config.AppConfig, error) {
	var (
		cfg *config.AppConfig
		err error
	)
	if path == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(path)
	}
	if err != nil {
		return nil, err
	}
	if cfg.VectorStore.Type == config.StoreMemory {
		return nil, &domain.ConfigurationError{
			Err: errors.New("vector_store.type memory does not persist between ingest and chat; use pgvector or qdrant"),
		}
	}
	return cfg, nil
}

// Report writes a diagnostic for err to w and returns the process exit code.
// Errors that were already shown to the user are not printed again.
func Report(w io.Writer, command string, err error) int {
	if err == nil {
		return 0
	}
	var shown interface{ Reported() bool }
	if errors.As(err, &shown) && shown.Reported() {
		return 1
	}
	if !domain.IsFatal(err) {
		fmt.Fprintf(w, "%s failed: %v\n", command, domain.Classify(err))
		return 1
	}
	fmt.Fprintf(w, "%s: %v\n", command, err)
	var cfgErr *domain.ConfigurationError
	if errors.As(err, &cfgErr) {
		fmt.Fprintln(w, "Check if environment variables are configured correctly.")
	}
	return 1
}
