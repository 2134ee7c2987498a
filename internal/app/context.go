package app

import (
	"context"
	"errors"
	"fmt"

	"tiller/internal/config"
	"tiller/internal/repo"
)

// ResolveJournalConfig picks the active journal and ensures a config exists
// in DB. It prefers the override, then the single journal already in the DB,
// then a fresh journal seeded from the workspace's tiller.yml when one is
// present, falling back to built-in defaults.
func ResolveJournalConfig(ctx context.Context, workspace, journalOverride string, r repo.Repo) (string, *config.Config, error) {
	journalID := journalOverride
	if journalID == "" {
		id, cfg, err := r.SingleJournalConfig(ctx)
		if err == nil {
			return id, cfg, nil
		}
		if !errors.Is(err, repo.ErrNotFound) {
			return "", nil, err
		}
		journalID = "journal"
	}
	cfg, err := r.GetJournalConfig(ctx, journalID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			return "", nil, err
		}
		cfg, err = seedConfig(workspace, journalID)
		if err != nil {
			return "", nil, err
		}
		if journalOverride == "" && cfg.Journal.ID != "" {
			journalID = cfg.Journal.ID
		}
		if err := r.UpsertJournalConfig(ctx, journalID, cfg); err != nil {
			return "", nil, fmt.Errorf("seed journal config: %w", err)
		}
	}
	cfg.Journal.ID = journalID
	return journalID, cfg, nil
}

func seedConfig(workspace, journalID string) (*config.Config, error) {
	cfg, err := config.LoadOptional(workspace)
	if err != nil {
		return nil, fmt.Errorf("workspace config: %w", err)
	}
	if cfg == nil {
		return config.Default(journalID), nil
	}
	return cfg, nil
}
