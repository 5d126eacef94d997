package batch

import (
	"fmt"
	"os"
	"strings"

	"vidsub/internal/config"
	"vidsub/internal/services"
	"vidsub/internal/subtitles"
)

const defaultWorkers = 4

// Options carries everything the runner needs. It is built from config once;
// nothing below the runner reads the environment.
type Options struct {
	Workers   int
	Format    subtitles.Format
	OutputDir string
	WorkDir   string
	Recursive bool
	Resume    bool
}

// OptionsFromConfig derives runner options from loaded configuration.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	if cfg == nil {
		return Options{}, services.Wrap(services.ErrConfiguration, "batch", "options", "config is nil", nil)
	}
	format, err := subtitles.ParseFormat(cfg.Output.Format)
	if err != nil {
		return Options{}, services.Wrap(services.ErrConfiguration, "batch", "options", "", err)
	}
	opts := Options{
		Workers:   cfg.Batch.Workers,
		Format:    format,
		OutputDir: cfg.Output.Dir,
		WorkDir:   cfg.Paths.WorkDir,
		Recursive: cfg.Batch.Recursive,
		Resume:    cfg.Batch.Resume,
	}
	return opts, opts.validate()
}

func (o *Options) normalize() {
	if o.Workers <= 0 {
		o.Workers = defaultWorkers
	}
	if o.Format == "" {
		o.Format = subtitles.FormatSRT
	}
	if strings.TrimSpace(o.WorkDir) == "" {
		o.WorkDir = os.TempDir()
	}
	o.OutputDir = strings.TrimSpace(o.OutputDir)
}

func (o Options) validate() error {
	if _, err := subtitles.ParseFormat(string(o.Format)); err != nil && o.Format != "" {
		return services.Wrap(services.ErrConfiguration, "batch", "options", "", err)
	}
	if o.Workers < 0 {
		return services.Wrap(services.ErrConfiguration, "batch", "options", fmt.Sprintf("workers must be positive, got %d", o.Workers), nil)
	}
	return nil
}
