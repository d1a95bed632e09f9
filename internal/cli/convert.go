package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/FadliGr1/abd-to-csv/internal/core"
)

func newConvertCmd() *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "convert <file>...",
		Short: "Convert KML/KMZ files to CSV",
		Long: `Convert one or more KML or KMZ files to CSV. Each KML document produces
one CSV file named after the document. A KMZ archive may produce several.

The batch is all-or-nothing: if any file fails, no CSV files are written.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args, outputDir)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", ".", "directory to write CSV files to")

	return cmd
}

func runConvert(cmd *cobra.Command, paths []string, outputDir string) error {
	files := make([]core.InputFile, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return &core.IOError{FileName: path, Err: err}
		}
		files = append(files, core.InputFile{Name: filepath.Base(path), Data: data})
	}

	// Fail-fast: any error aborts before anything is written
	results, err := core.ConvertBatch(files)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	totalRows := 0
	for _, doc := range results {
		outPath := filepath.Join(outputDir, doc.CSVFileName())
		if dir := filepath.Dir(outPath); dir != outputDir {
			// KMZ entries may carry subdirectories in their names
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
		}
		if err := os.WriteFile(outPath, doc.CSV, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", outPath, err)
		}
		totalRows += doc.RowCount
	}

	printSummary(cmd, results, totalRows)
	return nil
}

// printSummary renders a per-document summary table.
func printSummary(cmd *cobra.Command, results []core.ConversionResult, totalRows int) {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Document", "Source", "Rows"})
	for _, doc := range results {
		table.Append([]string{doc.CSVFileName(), doc.SourceFile, strconv.Itoa(doc.RowCount)})
	}
	table.SetFooter([]string{"", "Total", strconv.Itoa(totalRows)})
	table.Render()
}
