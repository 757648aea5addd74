// Package progress renders file creation progress for a terminal.
//
// This package outputs human-readable progress information to stdout,
// including completion percentage, write speed, a speed indicator and ETA,
// followed by a summary once the job ends. It also parses and formats byte
// sizes and durations for the command line.
//
// # Usage
//
//	reporter := progress.NewReporter(progress.Options{
//	    Path:      "disk.img",
//	    TotalSize: size,
//	    Workers:   8,
//	    Output:    os.Stdout,
//	})
//
//	reporter.Start()
//	summary, err := rangefill.Run(ctx, cfg, opts, reporter.Update)
//	reporter.Finish(summary)
//
// # Output Format
//
//	[filecreator] Creating: disk.img
//	[filecreator] Size: 10.00 GB | Workers: 8 | Buffer: 32.00 MB | Fill: zero | Mode: turbo
//	[filecreator] [=============>                ]  45.20% | 4.52 GB / 10.00 GB | 1.20 GB/s | FAST | workers 8/8 | ETA 4.571s
package progress
