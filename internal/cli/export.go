package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/noah-isme/sma-report-api/internal/service"
	"github.com/noah-isme/sma-report-api/pkg/storage"
)

func newExportCommand(open Opener) *cobra.Command {
	var (
		term     int
		yearly   bool
		fileType string
		outDir   string
		pruneAge time.Duration
	)
	cmd := &cobra.Command{
		Use:   "export <class-id>",
		Short: "Write a class report to a CSV or PDF file",
		Example: `  reportctl export c1 --term 2 --as csv
  reportctl export c1 --yearly --out ./archive --prune 720h`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.NewLocalStorage(outDir)
			if err != nil {
				return err
			}
			if pruneAge > 0 {
				removed, err := store.Prune(pruneAge)
				if err != nil {
					return err
				}
				for _, name := range removed {
					fmt.Fprintf(cmd.OutOrStdout(), "pruned %s\n", name)
				}
			}
			return withBackend(cmd, open, func(ctx context.Context, b *Backend) error {
				var file *service.ExportFile
				if yearly {
					file, err = b.Exports.ClassYearly(ctx, args[0], fileType)
				} else {
					file, err = b.Exports.ClassTerm(ctx, args[0], term, fileType)
				}
				if err != nil {
					return err
				}
				path, err := store.Save(file.Filename, file.Payload)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", path, len(file.Payload))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&term, "term", "t", 1, "Term (1-3)")
	cmd.Flags().BoolVar(&yearly, "yearly", false, "Export the yearly report instead of a single term")
	cmd.Flags().StringVar(&fileType, "as", service.ExportFormatPDF, "File type (csv|pdf)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "./exports", "Output directory")
	cmd.Flags().DurationVar(&pruneAge, "prune", 0, "Remove exports older than this before writing")
	return cmd
}
