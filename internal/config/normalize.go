package config

import "strings"

func (c *Config) normalize() error {
	for i, dir := range c.Paths.LibraryDirs {
		expanded, err := expandPath(dir)
		if err != nil {
			return err
		}
		c.Paths.LibraryDirs[i] = expanded
	}

	dataDir, err := expandPath(c.Paths.DataDir)
	if err != nil {
		return err
	}
	c.Paths.DataDir = dataDir

	logDir, err := expandPath(c.Paths.LogDir)
	if err != nil {
		return err
	}
	c.Paths.LogDir = logDir

	c.Resolution.VideoExtensions = normalizeExtensions(c.Resolution.VideoExtensions)
	c.Resolution.SubtitleExtensions = normalizeExtensions(c.Resolution.SubtitleExtensions)
	c.Resolution.ImageExtensions = normalizeExtensions(c.Resolution.ImageExtensions)

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	return nil
}

func normalizeExtensions(exts []string) []string {
	normalized := make([]string, 0, len(exts))
	seen := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		normalized = append(normalized, ext)
	}
	return normalized
}
