package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"evstore"
	"evstore/catalog"
)

func main() {
	var (
		verbose     bool
		catalogPath string
	)

	rootCmd := &cobra.Command{
		Use:   "evstore",
		Short: "Format-tagged event dataset store CLI",
		Long:  "evstore manages format-tagged dataset files: create mutable logs, inspect tags, and dump committed rows.",
	}
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging")
	rootCmd.PersistentFlags().StringVar(&catalogPath, "catalog", "evstore-catalog.db", "Catalog database path")

	newStore := func() *evstore.Store {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return evstore.New(evstore.BuiltinTypes(), evstore.Options{Logger: logger, Verbose: verbose})
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a mutable dataset, record rows and commit",
		RunE: func(cmd *cobra.Command, args []string) error {
			typeName, _ := cmd.Flags().GetString("type")
			path, _ := cmd.Flags().GetString("path")
			name, _ := cmd.Flags().GetString("name")
			rowSpecs, _ := cmd.Flags().GetStringArray("row")

			ds, err := newStore().Create(typeName, path)
			if err != nil {
				return err
			}
			defer ds.Close()

			for _, spec := range rowSpecs {
				rowID, entry, err := parseRowSpec(spec)
				if err != nil {
					return err
				}
				if err := ds.RecordRow(rowID, []evstore.Entry{entry}); err != nil {
					return err
				}
			}
			if err := ds.Commit(); err != nil {
				return err
			}

			if name != "" {
				c, err := catalog.Open(catalogPath, catalog.Options{})
				if err != nil {
					return err
				}
				defer c.Close()
				err = c.Put(catalog.Entry{Name: name, Type: typeName, Path: path, Created: time.Now()})
				if err != nil {
					return err
				}
			}
			fmt.Printf("created %s (%s), %d rows committed\n", path, typeName, len(rowSpecs))
			return nil
		},
	}
	createCmd.Flags().String("type", "row-log.mutable", "Declared dataset type")
	createCmd.Flags().String("path", "", "Dataset file path")
	createCmd.Flags().String("name", "", "Catalog name to register (optional)")
	createCmd.Flags().StringArray("row", nil, "Row to record, as rowID:column:timestamp:value (repeatable)")
	createCmd.MarkFlagRequired("path")
	rootCmd.AddCommand(createCmd)

	infoCmd := &cobra.Command{
		Use:   "info",
		Short: "Print a dataset file's format tag",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("path")
			tag, err := evstore.ReadTag(path)
			if err != nil {
				return err
			}
			fmt.Printf("%s: %v\n", path, tag)
			return nil
		},
	}
	infoCmd.Flags().String("path", "", "Dataset file path")
	infoCmd.MarkFlagRequired("path")
	rootCmd.AddCommand(infoCmd)

	dumpCmd := &cobra.Command{
		Use:   "dump",
		Short: "Open a dataset under a declared type and print its rows",
		RunE: func(cmd *cobra.Command, args []string) error {
			typeName, _ := cmd.Flags().GetString("type")
			path, _ := cmd.Flags().GetString("path")
			name, _ := cmd.Flags().GetString("name")

			if name != "" {
				c, err := catalog.Open(catalogPath, catalog.Options{})
				if err != nil {
					return err
				}
				e, err := c.Get(name)
				c.Close()
				if err != nil {
					return err
				}
				path = e.Path
				if !cmd.Flags().Changed("type") {
					typeName = e.Type
				}
			}

			ds, err := newStore().Open(typeName, path)
			if err != nil {
				return err
			}
			defer ds.Close()

			rows, err := ds.Rows()
			if err != nil {
				return err
			}
			for _, row := range rows {
				for _, e := range row.Entries {
					fmt.Printf("%s\t%s\t%v\t%d\n", row.ID, e.Column, e.Value, e.Timestamp)
				}
			}
			return nil
		},
	}
	dumpCmd.Flags().String("type", "row-log", "Declared dataset type")
	dumpCmd.Flags().String("path", "", "Dataset file path")
	dumpCmd.Flags().String("name", "", "Catalog name (overrides --path)")
	rootCmd.AddCommand(dumpCmd)

	lsCmd := &cobra.Command{
		Use:   "ls",
		Short: "List catalogued datasets",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := catalog.Open(catalogPath, catalog.Options{})
			if err != nil {
				return err
			}
			defer c.Close()
			entries, err := c.List()
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Printf("%s\t%s\t%s\t%s\n", e.Name, e.Type, e.Path, e.Created.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
	rootCmd.AddCommand(lsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// parseRowSpec parses rowID:column:timestamp:value; the value may contain
// colons. Values parse as int, then float, then bool, falling back to string.
func parseRowSpec(spec string) (string, evstore.Entry, error) {
	parts := strings.SplitN(spec, ":", 4)
	if len(parts) != 4 {
		return "", evstore.Entry{}, fmt.Errorf("invalid --row %q; want rowID:column:timestamp:value", spec)
	}
	ts, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return "", evstore.Entry{}, fmt.Errorf("invalid timestamp in --row %q: %w", spec, err)
	}
	return parts[0], evstore.Entry{Column: parts[1], Value: parseScalar(parts[3]), Timestamp: ts}, nil
}

func parseScalar(s string) any {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	return s
}
