package cmd

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/demystify/internal"
	"github.com/spf13/cobra"
)

var (
	inspectFormat     string
	inspectSampleRows int
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect the local database",
	Long: `Inspect the local database that keeps the session token and the usage
statistics.

This command provides:
  • Database schema (tables, columns, types)
  • Row counts
  • The stored keys, with the session token masked

Examples:
  demystify inspect                    # Human readable
  demystify inspect --format json      # Machine readable`,
	Args: cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, args []string, a *app) error {
		report, err := inspectDatabase(a.store.DB(), inspectSampleRows)
		if err != nil {
			return err
		}
		report.Path = a.cfg.DatabasePath()

		switch inspectFormat {
		case "json":
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		case "text":
			printInspection(cmd.OutOrStdout(), report)
			return nil
		default:
			return fmt.Errorf("unsupported format: %s (supported: text, json)", inspectFormat)
		}
	}),
}

// ColumnInfo describes one column of a table
type ColumnInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"not_null"`
	PrimaryKey bool   `json:"primary_key"`
}

// TableInfo describes one table
type TableInfo struct {
	Name    string       `json:"name"`
	Rows    int          `json:"rows"`
	Columns []ColumnInfo `json:"columns"`
}

// DatabaseReport is the outcome of inspect
type DatabaseReport struct {
	Path   string                  `json:"path"`
	Tables []TableInfo             `json:"tables"`
	Keys   []internal.KeyValuePair `json:"keys"`
}

func inspectDatabase(db *sql.DB, sample int) (*DatabaseReport, error) {
	tables, err := getTables(db)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	report := &DatabaseReport{}
	for _, name := range tables {
		info := TableInfo{Name: name}
		if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %q", name)).Scan(&info.Rows); err != nil {
			return nil, fmt.Errorf("failed to get row count: %w", err)
		}
		if info.Columns, err = getTableSchema(db, name); err != nil {
			return nil, fmt.Errorf("failed to get schema: %w", err)
		}
		report.Tables = append(report.Tables, info)
	}

	pairs, err := internal.QueryKV(db, "%")
	if err != nil {
		return nil, err
	}
	for i, pair := range pairs {
		if sample > 0 && i >= sample {
			break
		}
		report.Keys = append(report.Keys, internal.KeyValuePair{Key: pair.Key, Value: displayValue(pair)})
	}
	return report, nil
}

func getTables(db *sql.DB) ([]string, error) {
	rows, err := db.Query(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			continue
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func getTableSchema(db *sql.DB, tableName string) ([]ColumnInfo, error) {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%q)", tableName))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var columns []ColumnInfo
	for rows.Next() {
		var col ColumnInfo
		var cid int
		var notNull, pk int
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &defaultValue, &pk); err != nil {
			continue
		}
		col.NotNull = notNull == 1
		col.PrimaryKey = pk == 1
		columns = append(columns, col)
	}
	return columns, rows.Err()
}

// displayValue masks the token and compacts long values
func displayValue(pair internal.KeyValuePair) string {
	if pair.Key == internal.TokenKey {
		if len(pair.Value) <= 4 {
			return "****"
		}
		return pair.Value[:4] + strings.Repeat("*", 8)
	}
	value := strings.Join(strings.Fields(pair.Value), " ")
	if len(value) > 200 {
		value = value[:200] + "..."
	}
	return value
}

func printInspection(out io.Writer, report *DatabaseReport) {
	fmt.Fprintf(out, "📊 Inspecting local database: %s\n\n", report.Path)
	for _, table := range report.Tables {
		fmt.Fprintf(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
		fmt.Fprintf(out, "📦 Table: %s\n", table.Name)
		fmt.Fprintf(out, "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
		fmt.Fprintf(out, "📊 Rows: %d\n\n", table.Rows)

		fmt.Fprintf(out, "📐 Schema:\n")
		for _, col := range table.Columns {
			pk := ""
			if col.PrimaryKey {
				pk = " [PRIMARY KEY]"
			}
			notNull := ""
			if col.NotNull {
				notNull = " NOT NULL"
			}
			fmt.Fprintf(out, "  • %s: %s%s%s\n", col.Name, col.Type, notNull, pk)
		}
		fmt.Fprintln(out)
	}

	if len(report.Keys) == 0 {
		fmt.Fprintln(out, "📄 No keys stored")
		return
	}
	fmt.Fprintln(out, "📄 Keys:")
	for _, pair := range report.Keys {
		fmt.Fprintf(out, "    %s: %s\n", pair.Key, pair.Value)
	}
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "text", "Output format (text, json)")
	inspectCmd.Flags().IntVar(&inspectSampleRows, "sample", 10, "Maximum number of keys to show (0 for all)")
}
