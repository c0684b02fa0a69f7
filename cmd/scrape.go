package cmd

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mspro-labs/bean-scout/internal/metrics"
	"mspro-labs/bean-scout/internal/models"
)

var extractPageType string

// extractCmd runs the pipeline once and prints the result.
var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Extract a coffee record from one page",
	Long: `Routes the URL to a dedicated parser, the rendered-page parser or the
model fallback, and prints the resulting record as JSON.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(cmd.Context(), cmd.OutOrStdout(), args[0])
	},
}

var unspecialtyCmd = &cobra.Command{
	Use:     "unspecialty <url>",
	Short:   "Render an unspecialty.com product page and print the classified payload",
	Example: "  bean-scout unspecialty 'https://unspecialty.com/product/detail.html?product_no=390'",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runUnspecialty(cmd.Context(), cmd.OutOrStdout(), args[0])
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractPageType, "page-type", "t", string(models.PageProduct), "declared page type")
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(unspecialtyCmd)
}

func runExtract(ctx context.Context, out io.Writer, rawURL string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	dispatcher, closeModel := newDispatcher(ctx, cfg, metrics.New())
	defer closeModel()

	rec, err := dispatcher.Extract(ctx, rawURL, extractPageType)
	if err != nil {
		return err
	}
	return printJSON(out, rec)
}

func runUnspecialty(ctx context.Context, out io.Writer, rawURL string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	dispatcher, closeModel := newDispatcher(ctx, cfg, metrics.New())
	defer closeModel()

	res, err := dispatcher.Unspecialty(ctx, rawURL)
	if err != nil {
		return err
	}
	return printJSON(out, res)
}

func printJSON(out io.Writer, v any) error {
	if out == nil {
		out = os.Stdout
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
