package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/MrTarik2112/FileCreator/internal/progress"
	"github.com/MrTarik2112/FileCreator/pkg/rangefill"
)

func buildPlanCommand(stdout io.Writer) *cobra.Command {
	var f createFlags

	cmd := &cobra.Command{
		Use:   "plan [path] [size]",
		Short: "Show how a file would be split between workers",
		Long: `Show the byte range and write count of every worker for a job without
creating the file. Accepts the same path, size and tuning inputs as create.`,
		Example: `  filecreator plan disk.img 10GB --workers 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg, err = applyCreateArgs(cmd, cfg, args, &f)
			if err != nil {
				return err
			}
			job, err := cfg.Job()
			if err != nil {
				return withCode(ExitInvalidArgs, err)
			}
			if err := job.Validate(); err != nil {
				return err
			}
			extents, err := rangefill.Partition(job.Size, job.Workers)
			if err != nil {
				return err
			}
			printPlan(stdout, job, extents)
			return nil
		},
	}

	fl := cmd.Flags()
	fl.IntVarP(&f.workers, "workers", "w", 0, "Number of parallel workers (0 = auto)")
	fl.VarP(newSizeFlag(&f.bufferSize), "buffer", "b", "Buffer size per worker (default 32MB)")
	fl.StringVar(&f.fill, "fill", "", "Data pattern: zero or random (default zero)")
	fl.BoolVar(&f.turbo, "turbo", false, "Use at least 4 workers and 32MB buffers")

	return cmd
}

// writeCount is the number of buffer-sized writes needed to cover e.
func writeCount(e rangefill.Extent, bufferSize int) int64 {
	return (e.Len() + int64(bufferSize) - 1) / int64(bufferSize)
}

func printPlan(w io.Writer, job rangefill.Config, extents []rangefill.Extent) {
	fmt.Fprintf(w, "File:    %s\n", job.Path)
	fmt.Fprintf(w, "Size:    %s (%d bytes)\n", progress.FormatBytes(job.Size), job.Size)
	fmt.Fprintf(w, "Workers: %d\n", job.Workers)
	fmt.Fprintf(w, "Buffer:  %s\n", progress.FormatBytes(int64(job.BufferSize)))
	fmt.Fprintf(w, "Fill:    %s\n\n", job.Fill)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WORKER\tSTART\tEND\tLENGTH\tWRITES")
	var total int64
	for i, e := range extents {
		n := writeCount(e, job.BufferSize)
		total += n
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\t%d\n", i, e.Start, e.End, progress.FormatBytes(e.Len()), n)
	}
	tw.Flush()
	fmt.Fprintf(w, "\nTotal writes: %d\n", total)
}
