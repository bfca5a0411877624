package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that the configuration is internally consistent. All
// problems are reported at once so a broken file can be fixed in one pass.
func (c *Config) Validate() error {
	var problems []string

	if len(c.Paths.LibraryDirs) == 0 {
		problems = append(problems, "paths.library_dirs must list at least one directory")
	}
	for _, dir := range c.Paths.LibraryDirs {
		if strings.TrimSpace(dir) == "" {
			problems = append(problems, "paths.library_dirs entries must not be empty")
			break
		}
	}
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		problems = append(problems, "paths.data_dir must not be empty")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		problems = append(problems, "paths.log_dir must not be empty")
	}

	if c.Resolution.MatchThreshold < 0 || c.Resolution.MatchThreshold > 1 {
		problems = append(problems, fmt.Sprintf("resolution.match_threshold must be between 0 and 1, got %g", c.Resolution.MatchThreshold))
	}
	if len(c.Resolution.VideoExtensions) == 0 {
		problems = append(problems, "resolution.video_extensions must list at least one extension")
	}

	if c.Watch.DebounceMS < 0 {
		problems = append(problems, fmt.Sprintf("watch.debounce_ms must not be negative, got %d", c.Watch.DebounceMS))
	}

	switch c.Logging.Format {
	case "console", "json":
	default:
		problems = append(problems, fmt.Sprintf("logging.format must be console or json, got %q", c.Logging.Format))
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level))
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration:\n  - " + strings.Join(problems, "\n  - "))
	}
	return nil
}
