package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cognicore/puremark/pkg/puremark/config"
	"github.com/cognicore/puremark/pkg/puremark/kb"
	"github.com/cognicore/puremark/pkg/puremark/store"
	"github.com/cognicore/puremark/pkg/puremark/store/sqlite"
)

func newKBCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Validate and snapshot knowledge base registries",
	}
	cmd.AddCommand(newKBValidateCmd(a), newKBSnapshotCmd(a), newKBListCmd(a))
	return cmd
}

// kbSummary describes a loaded knowledge base.
type kbSummary struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	ENumbers  int    `json:"e_numbers"`
	Alcohol   int    `json:"alcohol_rules"`
	Allergens int    `json:"allergens"`
	Certifier int    `json:"certification_schemes"`
}

func summarize(k *kb.KnowledgeBase) kbSummary {
	return kbSummary{
		Name:      k.Name,
		Version:   k.Version,
		ENumbers:  k.ENumbers.Len(),
		Alcohol:   len(k.Alcohol),
		Allergens: len(k.Allergens.Entries),
		Certifier: len(k.Certification),
	}
}

func (a *app) loader(args []string) *config.Loader {
	l := a.settings.Loader()
	if len(args) > 0 {
		l.Dir = args[0]
	}
	return l
}

func newKBValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [dir]",
		Short: "Load and validate registries; missing files fall back to the embedded copies",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := a.loader(args).Load()
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), summarize(k))
		},
	}
}

func openStore(cmd *cobra.Command, a *app, dbPath string) (store.Store, error) {
	if dbPath == "" {
		dbPath = a.settings.Store.Path
	}
	if dbPath == "" {
		return nil, fmt.Errorf("--db or store.path required")
	}
	return sqlite.OpenSQLite(cmd.Context(), dbPath)
}

func newKBSnapshotCmd(a *app) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "snapshot [dir]",
		Short: "Store the current registry files as a versioned snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l := a.loader(args)
			files, err := l.Files()
			if err != nil {
				return err
			}
			k, err := config.Build(l.Name, files)
			if err != nil {
				return err
			}

			st, err := openStore(cmd, a, dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			snap := store.Snapshot{Name: k.Name, Version: k.Version, Files: files, CreatedAt: time.Now().UTC()}
			if err := st.PutSnapshot(cmd.Context(), snap); err != nil {
				return err
			}
			a.logger.Info("knowledge base snapshot stored", zap.String("kb", k.Key()))
			return writeJSON(cmd.OutOrStdout(), snap.Info())
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database (default store.path)")
	return cmd
}

func newKBListCmd(a *app) *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored snapshots of the configured knowledge base",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(cmd, a, dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			infos, err := st.ListSnapshots(cmd.Context(), a.settings.KB.Name)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), infos)
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database (default store.path)")
	return cmd
}
