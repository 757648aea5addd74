package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrTarik2112/FileCreator/internal/config"
	"github.com/MrTarik2112/FileCreator/internal/progress"
)

// loadConfig builds the configuration from defaults, the --config file and
// FILECREATOR_ environment variables, in increasing precedence. Flags are
// applied by the caller.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()

	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return config.Config{}, usageError("%v", err)
		}
		cfg = loaded
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return config.Config{}, usageError("%v", err)
	}
	return cfg, nil
}

// parseSize joins size arguments so that both "100MB" and "100 MB" work.
func parseSize(args []string) (int64, error) {
	text := strings.Join(args, " ")
	size, err := progress.ParseBytes(text)
	if err != nil {
		return 0, usageError("invalid size: %v", err)
	}
	if size <= 0 {
		return 0, usageError("invalid size %q: must be positive", text)
	}
	return size, nil
}

// sizeFlag is a pflag.Value accepting human-readable byte sizes.
type sizeFlag struct {
	value *int64
}

func newSizeFlag(p *int64) *sizeFlag {
	return &sizeFlag{value: p}
}

func (f *sizeFlag) String() string {
	if f.value == nil || *f.value == 0 {
		return ""
	}
	return progress.FormatBytes(*f.value)
}

func (f *sizeFlag) Set(s string) error {
	v, err := progress.ParseBytes(s)
	if err != nil {
		return err
	}
	*f.value = v
	return nil
}

func (f *sizeFlag) Type() string {
	return "size"
}
