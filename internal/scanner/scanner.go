// Package scanner turns the filesystem into observations. A scan walks the
// configured library roots, records what it sees in the file catalog, and
// hands the observations to the pipeline; the watcher does the same for
// files as they appear.
package scanner

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"animehub/internal/config"
	"animehub/internal/domain"
	"animehub/internal/library"
	"animehub/internal/logging"
	"animehub/internal/resolution"
)

// Scanner walks library roots and records file observations.
type Scanner struct {
	cfg   *config.Config
	store *library.Store
	log   *slog.Logger
}

func New(cfg *config.Config, store *library.Store, logger *slog.Logger) *Scanner {
	return &Scanner{
		cfg:   cfg,
		store: store,
		log:   logging.NewComponentLogger(logger, "scanner"),
	}
}

// Scan walks every library root, upserts a catalog record per recognized
// file, and returns the observations. Unrecognized extensions and hidden
// entries are ignored; unreadable subtrees are logged and skipped.
func (s *Scanner) Scan(ctx context.Context) ([]resolution.Observation, error) {
	var observations []resolution.Observation

	for _, root := range s.cfg.Paths.LibraryDirs {
		err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				s.log.Warn("skipping unreadable entry", "path", path, "error", walkErr.Error())
				if entry != nil && entry.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if strings.HasPrefix(entry.Name(), ".") {
				if entry.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if entry.IsDir() {
				return nil
			}

			obs, ok, err := s.observe(ctx, path, entry)
			if err != nil {
				return err
			}
			if ok {
				observations = append(observations, obs)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	s.log.Info("scan complete", "roots", len(s.cfg.Paths.LibraryDirs), "observed", len(observations))
	return observations, nil
}

// observe records one file in the catalog and builds its observation.
// Returns ok=false for files whose extension no role claims.
func (s *Scanner) observe(ctx context.Context, path string, entry fs.DirEntry) (resolution.Observation, bool, error) {
	role := s.roleFor(path)
	if role == domain.FileRoleOther {
		return resolution.Observation{}, false, nil
	}

	info, err := entry.Info()
	if err != nil {
		s.log.Warn("stat failed", "path", path, "error", err.Error())
		return resolution.Observation{}, false, nil
	}

	file, err := s.store.UpsertFileByPath(ctx, path, role, info.Size(), info.ModTime(), domain.FileOriginScan)
	if err != nil {
		return resolution.Observation{}, false, err
	}
	return resolution.Observation{
		FileID:     file.ID,
		Path:       file.Path,
		Role:       file.Role,
		Size:       file.Size,
		ModifiedAt: file.ModifiedAt,
	}, true, nil
}

func (s *Scanner) roleFor(path string) domain.FileRole {
	return roleForPath(s.cfg, path)
}

// roleForPath classifies a path by its extension against the configured
// lists.
func roleForPath(cfg *config.Config, path string) domain.FileRole {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case contains(cfg.Resolution.VideoExtensions, ext):
		return domain.FileRoleVideo
	case contains(cfg.Resolution.SubtitleExtensions, ext):
		return domain.FileRoleSubtitle
	case contains(cfg.Resolution.ImageExtensions, ext):
		return domain.FileRoleImage
	default:
		return domain.FileRoleOther
	}
}

func contains(list []string, value string) bool {
	for _, candidate := range list {
		if candidate == value {
			return true
		}
	}
	return false
}
