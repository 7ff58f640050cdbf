// Package cli implements the reportctl command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-report-api/internal/dto"
	"github.com/noah-isme/sma-report-api/internal/repository"
	"github.com/noah-isme/sma-report-api/internal/service"
	"github.com/noah-isme/sma-report-api/pkg/config"
	"github.com/noah-isme/sma-report-api/pkg/database"
)

// ReportSource is the subset of the report service the CLI drives.
type ReportSource interface {
	TermReport(ctx context.Context, studentID string, term int) (*dto.TermReport, error)
	YearlyReport(ctx context.Context, studentID string) (*dto.YearlyReport, error)
	ClassTermReport(ctx context.Context, classID string, term int) ([]dto.TermReport, error)
	ClassYearlyReport(ctx context.Context, classID string) ([]dto.YearlyReport, error)
}

// Exporter renders class reports as files.
type Exporter interface {
	ClassTerm(ctx context.Context, classID string, term int, format string) (*service.ExportFile, error)
	ClassYearly(ctx context.Context, classID string, format string) (*service.ExportFile, error)
}

// Backend bundles what a command run needs. Close may be nil.
type Backend struct {
	Reports ReportSource
	Exports Exporter
	Close   func()
}

// Opener builds a Backend. It is called once per command run.
type Opener func(ctx context.Context) (*Backend, error)

var exitFunc = os.Exit

const (
	formatTable = "table"
	formatJSON  = "json"
)

type options struct {
	format  string
	noColor bool
}

// NewRootCommand assembles reportctl.
func NewRootCommand(open Opener, out io.Writer) *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "reportctl",
		Short: "Generate academic term and yearly reports from the command line",
		Long: `reportctl builds the same ranked term and yearly reports as the report API,
reading directly from the database configured through the usual environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.format {
			case formatTable, formatJSON:
				return nil
			default:
				return fmt.Errorf("unknown format %q (table|json)", opts.format)
			}
		},
	}
	root.SetOut(out)
	root.SetErr(out)
	root.PersistentFlags().StringVarP(&opts.format, "format", "f", formatTable, "Output format (table|json)")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		newTermCommand(open, opts),
		newYearlyCommand(open, opts),
		newClassCommand(open, opts),
		newExportCommand(open),
	)
	return root
}

func newTermCommand(open Opener, opts *options) *cobra.Command {
	var term int
	cmd := &cobra.Command{
		Use:   "term <student-id>",
		Short: "Show a student's report for one term",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, open, func(ctx context.Context, b *Backend) error {
				report, err := b.Reports.TermReport(ctx, args[0], term)
				if err != nil {
					return err
				}
				return newRenderer(cmd.OutOrStdout(), opts).termReport(report)
			})
		},
	}
	cmd.Flags().IntVarP(&term, "term", "t", 1, "Term (1-3)")
	return cmd
}

func newYearlyCommand(open Opener, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "yearly <student-id>",
		Short: "Show a student's yearly report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, open, func(ctx context.Context, b *Backend) error {
				report, err := b.Reports.YearlyReport(ctx, args[0])
				if err != nil {
					return err
				}
				return newRenderer(cmd.OutOrStdout(), opts).yearlyReport(report)
			})
		},
	}
}

func newClassCommand(open Opener, opts *options) *cobra.Command {
	var (
		term   int
		yearly bool
	)
	cmd := &cobra.Command{
		Use:   "class <class-id>",
		Short: "Show the ranked report of a whole class",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, open, func(ctx context.Context, b *Backend) error {
				r := newRenderer(cmd.OutOrStdout(), opts)
				if yearly {
					reports, err := b.Reports.ClassYearlyReport(ctx, args[0])
					if err != nil {
						return err
					}
					return r.classYearly(reports)
				}
				reports, err := b.Reports.ClassTermReport(ctx, args[0], term)
				if err != nil {
					return err
				}
				return r.classTerm(reports)
			})
		},
	}
	cmd.Flags().IntVarP(&term, "term", "t", 1, "Term (1-3)")
	cmd.Flags().BoolVar(&yearly, "yearly", false, "Rank on yearly averages instead of a single term")
	return cmd
}

func withBackend(cmd *cobra.Command, open Opener, fn func(ctx context.Context, b *Backend) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	backend, err := open(ctx)
	if err != nil {
		return fmt.Errorf("open report backend: %w", err)
	}
	if backend.Close != nil {
		defer backend.Close()
	}
	return fn(ctx, backend)
}

// DatabaseOpener connects to PostgreSQL using the environment configuration.
func DatabaseOpener(ctx context.Context) (*Backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.Database.ApplicationName = "reportctl"
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	reports := service.NewReportService(
		repository.NewStudentRepository(db),
		repository.NewClassRepository(db),
		repository.NewSubjectRepository(db),
		repository.NewAssessmentRepository(db),
		nil, nil,
		service.ReportOptions{Workers: cfg.Reports.WorkerConcurrency, Timeout: cfg.Reports.Timeout},
		zap.NewNop(),
	)
	return &Backend{
		Reports: reports,
		Exports: service.NewExportService(reports, nil, nil, zap.NewNop()),
		Close:   func() { _ = db.Close() },
	}, nil
}

// Execute runs reportctl against the configured database.
func Execute() {
	if err := NewRootCommand(DatabaseOpener, os.Stdout).Execute(); err != nil {
		exitFunc(1)
	}
}
