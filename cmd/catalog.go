package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mspro-labs/bean-scout/internal/catalog"
	"mspro-labs/bean-scout/internal/db"
	"mspro-labs/bean-scout/internal/models"
)

var (
	listNation string
	listNote   string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the local coffee catalog",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Seed the catalog from a YAML list of records",
	Long: `Reads a YAML sequence of records (keys as in the coffee_info table) and
inserts them in one transaction; a bad row leaves the catalog untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd.Context(), cmd.OutOrStdout(), args[0])
	},
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog records, newest first",
	Long: `Lists records filtered by comma-separated nations and notes.
Examples:
  bean-scout catalog list --nation Ethiopia,Kenya
  bean-scout catalog list --note 자스민`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runList(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	catalogListCmd.Flags().StringVar(&listNation, "nation", "", "comma-separated nations")
	catalogListCmd.Flags().StringVar(&listNote, "note", "", "comma-separated tasting notes")
	catalogCmd.AddCommand(catalogImportCmd, catalogListCmd)
	rootCmd.AddCommand(catalogCmd)
}

// loadSeed decodes a YAML sequence of records.
func loadSeed(r io.Reader) ([]models.CoffeeRecord, error) {
	var recs []models.CoffeeRecord
	if err := yaml.NewDecoder(r).Decode(&recs); err != nil && err != io.EOF {
		return nil, eris.Wrap(err, "parse seed YAML")
	}
	return recs, nil
}

func runImport(ctx context.Context, out io.Writer, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "open seed file %s", path)
	}
	defer f.Close()

	recs, err := loadSeed(f)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Fprintln(out, "No records to import.")
		return nil
	}

	database, err := db.Connect(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer database.Close()

	n, err := catalog.NewService(database).InsertMany(ctx, recs)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Imported %d records into %s\n", n, cfg.DBPath)
	return nil
}

func runList(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	database, err := db.Connect(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer database.Close()

	criteria := catalog.ParseCriteria(listNation, listNote)
	recs, err := catalog.NewService(database).Select(ctx, criteria)
	if err != nil {
		return err
	}
	return printRecords(out, recs)
}

func printRecords(out io.Writer, recs []models.CoffeeRecord) error {
	if len(recs) == 0 {
		_, err := fmt.Fprintln(out, "No records match.")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tNATION\tNOTES\tPRICE")
	for _, r := range recs {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			r.ID,
			models.Deref(r.NameKR),
			models.Deref(r.Nations),
			strings.Join(r.Notes, ", "),
			models.Deref(r.Price),
		)
	}
	return w.Flush()
}
