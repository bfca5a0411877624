package resolution

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"animehub/internal/domain"
)

// Source identifies where a parsed value came from.
type Source string

const (
	SourceFilename Source = "filename"
	SourceFolder   Source = "folder"
	SourceCombined Source = "combined"
)

// Parsing rules are explicit and ordered; the first pattern that captures
// wins.
var (
	titlePatterns = []*regexp.Regexp{
		// [Group] Anime Title - 01 [Quality].mkv
		regexp.MustCompile(`^\[.+?\]\s*(.+?)\s*-\s*\d+`),
		// Anime Title - 01.mkv
		regexp.MustCompile(`^(.+?)\s*-\s*\d+`),
		// Anime Title S01E01.mkv
		regexp.MustCompile(`^(.+?)\s*S\d+E\d+`),
		// Anime Title Episode 01.mkv
		regexp.MustCompile(`^(.+?)\s*[Ee]pisode\s*\d+`),
	}

	episodePatterns = []*regexp.Regexp{
		// - 01, - 001
		regexp.MustCompile(`-\s*(\d{1,4})(?:\s|\.|\[|$)`),
		// S01E01, S1E01
		regexp.MustCompile(`S\d+E(\d+)`),
		// Episode 01, Ep 01, EP01
		regexp.MustCompile(`[Ee](?:pisode|p)?\s*(\d+)`),
		// #01, #001
		regexp.MustCompile(`#(\d+)`),
	}

	specialPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(OVA\s*\d*)`),
		regexp.MustCompile(`(OAD\s*\d*)`),
		regexp.MustCompile(`(Special\s*\d*|SP\s*\d+)`),
		regexp.MustCompile(`(Movie|Film)`),
	}

	groupTagPattern      = regexp.MustCompile(`^\[.+?\]\s*`)
	titleCleanupPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*\[.*?\]\s*$`),
		regexp.MustCompile(`\s*\(.*?\)\s*$`),
		regexp.MustCompile(`\s*1080p\s*$`),
		regexp.MustCompile(`\s*720p\s*$`),
		regexp.MustCompile(`\s*480p\s*$`),
		regexp.MustCompile(`\s*HEVC\s*$`),
		regexp.MustCompile(`\s*x264\s*$`),
		regexp.MustCompile(`\s*x265\s*$`),
	}
	folderCleanupPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s*\[.*?\]\s*$`),
		regexp.MustCompile(`\s*\(.*?\)\s*$`),
		regexp.MustCompile(`\s*S\d+\s*$`),
		regexp.MustCompile(`\s*Season\s*\d+\s*$`),
	}

	titlePunctReplacer = strings.NewReplacer(
		":", "", ";", "", "!", "", "?", "", ".", "", ",", "",
		"_", " ", "-", " ",
	)
)

// ParseTitle extracts the anime title from a path, trying the filename
// first and falling back to the parent folder name.
func ParseTitle(path string) (string, Source, bool) {
	stem := fileStem(path)
	for _, pattern := range titlePatterns {
		if captures := pattern.FindStringSubmatch(stem); captures != nil {
			if cleaned := cleanTitle(captures[1]); cleaned != "" {
				return cleaned, SourceFilename, true
			}
		}
	}

	folder := filepath.Base(filepath.Dir(path))
	if folder != "." && folder != string(filepath.Separator) {
		if cleaned := cleanFolderName(folder); len(cleaned) > 2 {
			return cleaned, SourceFolder, true
		}
	}

	return "", "", false
}

// ParseEpisode extracts the episode number from a path's filename. Special
// labels (OVA, SP, Movie) take precedence over regular numbers.
func ParseEpisode(path string) (domain.EpisodeNumber, Source, bool) {
	stem := fileStem(path)

	for _, pattern := range specialPatterns {
		if captures := pattern.FindStringSubmatch(stem); captures != nil {
			label := strings.TrimSpace(captures[1])
			return domain.SpecialEpisode(label), SourceFilename, true
		}
	}

	for _, pattern := range episodePatterns {
		if captures := pattern.FindStringSubmatch(stem); captures != nil {
			if number, err := strconv.Atoi(captures[1]); err == nil {
				return domain.RegularEpisode(number), SourceFilename, true
			}
		}
	}

	return domain.EpisodeNumber{}, "", false
}

// NormalizeTitle folds case, punctuation, and whitespace so that variant
// spellings of the same title compare equal.
func NormalizeTitle(title string) string {
	lowered := strings.ToLower(title)
	stripped := titlePunctReplacer.Replace(lowered)
	return strings.Join(strings.Fields(stripped), " ")
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func cleanTitle(title string) string {
	cleaned := strings.TrimSpace(title)
	for _, pattern := range titleCleanupPatterns {
		cleaned = pattern.ReplaceAllString(cleaned, "")
	}
	return strings.TrimSpace(cleaned)
}

func cleanFolderName(folder string) string {
	cleaned := groupTagPattern.ReplaceAllString(folder, "")
	for _, pattern := range folderCleanupPatterns {
		cleaned = pattern.ReplaceAllString(cleaned, "")
	}
	return strings.TrimSpace(cleaned)
}
