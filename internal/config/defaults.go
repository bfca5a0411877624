package config

// DefaultMatchThreshold is the resolver confidence above which an existing
// entity is matched rather than a new one created.
const DefaultMatchThreshold = 0.7

// Default returns a Config populated with default values. Paths are kept in
// their unexpanded form; Load expands them after merging the file.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDirs: []string{"~/Videos/anime"},
			DataDir:     "~/.local/share/animehub",
			LogDir:      "~/.local/share/animehub/logs",
		},
		Resolution: Resolution{
			MatchThreshold:     DefaultMatchThreshold,
			VideoExtensions:    []string{".mkv", ".mp4", ".avi", ".webm", ".mov", ".ts", ".m2ts"},
			SubtitleExtensions: []string{".srt", ".ass", ".ssa", ".vtt", ".sub"},
			ImageExtensions:    []string{".jpg", ".jpeg", ".png", ".webp"},
		},
		Watch: Watch{
			DebounceMS: 1500,
		},
		Logging: Logging{
			Format: "console",
			Level:  "info",
		},
	}
}
