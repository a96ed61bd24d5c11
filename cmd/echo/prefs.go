package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/MarcoLSC/echo-emergent/internal/config"
	"github.com/MarcoLSC/echo-emergent/internal/store"
	"github.com/spf13/cobra"
)

var (
	prefsDBOverride string
	prefsJSONOutput bool
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Inspect and manage stored preferences",
	Long:  "Show, clear, and toggle the durable preference record without running the server.",
}

func init() {
	prefsCmd.PersistentFlags().StringVar(&prefsDBOverride, "db", "",
		"Database path (overrides config and ECHO_DB_PATH)")
	prefsCmd.PersistentFlags().BoolVar(&prefsJSONOutput, "json", false,
		"Output in JSON format")

	prefsCmd.AddCommand(prefsShowCmd)
	prefsCmd.AddCommand(prefsCategoriesCmd)
	prefsCmd.AddCommand(prefsClearCmd)
	prefsCmd.AddCommand(prefsToggleCmd)

	rootCmd.AddCommand(prefsCmd)
}

// resolvePrefsStore opens the preference store at the configured path with
// the optional --db override.
func resolvePrefsStore() (store.Store, error) {
	dbPath := prefsDBOverride
	if dbPath == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		dbPath = cfg.Database.Path
	}
	return store.NewSQLiteStore(dbPath, store.DefaultRecordName)
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the preference record",
	Args:  cobra.NoArgs,
	RunE:  runPrefsShow,
}

func runPrefsShow(cmd *cobra.Command, args []string) error {
	s, err := resolvePrefsStore()
	if err != nil {
		return err
	}
	defer s.Close()

	record := s.History(context.Background())

	if prefsJSONOutput {
		return printJSON(cmd.OutOrStdout(), record)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Data collection: %v\n", record.DataCollectionEnabled)
	fmt.Fprintf(out, "Total interactions: %d\n\n", record.TotalInteractions)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CATEGORY\tWEIGHT")
	for _, c := range s.PreferredCategories(context.Background()) {
		fmt.Fprintf(w, "%s\t%d\n", c, record.CategoryPreferences[c])
	}
	return w.Flush()
}

var prefsCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List categories by preference weight",
	Args:  cobra.NoArgs,
	RunE:  runPrefsCategories,
}

func runPrefsCategories(cmd *cobra.Command, args []string) error {
	s, err := resolvePrefsStore()
	if err != nil {
		return err
	}
	defer s.Close()

	categories := s.PreferredCategories(context.Background())

	if prefsJSONOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{"categories": categories})
	}

	for _, c := range categories {
		fmt.Fprintln(cmd.OutOrStdout(), c)
	}
	return nil
}

var prefsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all stored preference history",
	Args:  cobra.NoArgs,
	RunE:  runPrefsClear,
}

func runPrefsClear(cmd *cobra.Command, args []string) error {
	s, err := resolvePrefsStore()
	if err != nil {
		return err
	}
	defer s.Close()

	s.ClearHistory(context.Background())
	fmt.Fprintln(cmd.OutOrStdout(), "Preference history cleared.")
	return nil
}

var prefsToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle preference data collection",
	Args:  cobra.NoArgs,
	RunE:  runPrefsToggle,
}

func runPrefsToggle(cmd *cobra.Command, args []string) error {
	s, err := resolvePrefsStore()
	if err != nil {
		return err
	}
	defer s.Close()

	enabled := s.ToggleDataCollection(context.Background())

	if prefsJSONOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{"enabled": enabled})
	}

	if enabled {
		fmt.Fprintln(cmd.OutOrStdout(), "Data collection enabled.")
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Data collection disabled; accumulated data destroyed.")
	}
	return nil
}

// printJSON marshals v to JSON and writes to the given writer.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
