package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/MrTarik2112/FileCreator/internal/progress"
	"github.com/MrTarik2112/FileCreator/internal/report"
)

func buildReportCommand(stdout io.Writer) *cobra.Command {
	var (
		bucketURL string
		list      bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "report [job-id]",
		Short: "Show stored run reports",
		Long: `Show a run report saved by create --report-url, or list the stored job IDs.
The bucket URL defaults to report.url from the config file or FILECREATOR_REPORT_URL.`,
		Example: `  filecreator report --list --report-url file:///var/lib/filecreator
  filecreator report 0b6f3c1e-... --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("report-url") {
				cfg.Report.URL = bucketURL
			}
			if cfg.Report.URL == "" {
				return usageError("a report bucket URL is required (--report-url)")
			}
			if !list && len(args) == 0 {
				return usageError("a job ID or --list is required")
			}

			ctx := cmd.Context()
			store, err := report.Open(ctx, cfg.Report.URL)
			if err != nil {
				return withCode(ExitSinkError, err)
			}
			defer store.Close()

			if list {
				ids, err := store.List(ctx)
				if err != nil {
					return withCode(ExitSinkError, err)
				}
				for _, id := range ids {
					fmt.Fprintln(stdout, id)
				}
				return nil
			}

			r, err := store.Load(ctx, args[0])
			if errors.Is(err, report.ErrNotFound) {
				return withCode(ExitGeneralError, fmt.Errorf("no report for job %s", args[0]))
			}
			if err != nil {
				return withCode(ExitSinkError, err)
			}
			if asJSON {
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(r)
			}
			printReport(stdout, r)
			return nil
		},
	}

	cmd.Flags().StringVar(&bucketURL, "report-url", "", "Bucket URL holding the reports")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "List stored job IDs")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw report")

	return cmd
}

func printReport(w io.Writer, r *report.Report) {
	status := "succeeded"
	if !r.Result.Succeeded {
		status = "failed"
	}
	fmt.Fprintf(w, "Job:        %s (%s)\n", r.JobID, status)
	if r.Host != "" {
		fmt.Fprintf(w, "Host:       %s\n", r.Host)
	}
	fmt.Fprintf(w, "File:       %s\n", r.Config.Path)
	fmt.Fprintf(w, "Size:       %s\n", progress.FormatBytes(r.Config.Size))
	fmt.Fprintf(w, "Workers:    %d x %s buffers, %s fill\n",
		r.Config.Workers, progress.FormatBytes(int64(r.Config.BufferSize)), r.Config.Fill)
	fmt.Fprintf(w, "Started:    %s\n", r.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "Duration:   %s\n", progress.FormatDuration(r.Result.Elapsed()))
	fmt.Fprintf(w, "Written:    %s\n", progress.FormatBytes(r.Result.BytesWritten))
	fmt.Fprintf(w, "Average:    %s\n", progress.FormatRate(r.Result.AverageSpeed))
	fmt.Fprintf(w, "Peak:       %s\n", progress.FormatRate(r.Result.PeakSpeed))
	fmt.Fprintf(w, "Efficiency: %.1f%%\n", r.Result.Efficiency)
	fmt.Fprintf(w, "Operations: %d\n", r.Result.Operations)
	if r.Result.Error != "" {
		fmt.Fprintf(w, "Error:      %s\n", r.Result.Error)
	}
}
