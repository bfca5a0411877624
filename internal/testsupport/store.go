package testsupport

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"animehub/internal/config"
	"animehub/internal/domain"
	"animehub/internal/library"
)

// MustOpenStore opens a library.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *library.Store {
	t.Helper()

	store, err := library.Open(cfg)
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewAnime creates and persists an anime for tests.
func NewAnime(t testing.TB, store *library.Store, title string) *domain.Anime {
	t.Helper()

	anime, err := domain.NewAnime(title, domain.AnimeKindTV)
	if err != nil {
		t.Fatalf("NewAnime: %v", err)
	}
	if err := store.CreateAnime(context.Background(), anime); err != nil {
		t.Fatalf("CreateAnime: %v", err)
	}
	return anime
}

// NewEpisode creates and persists an episode for tests.
func NewEpisode(t testing.TB, store *library.Store, animeID uuid.UUID, number int) *domain.Episode {
	t.Helper()

	episode, err := domain.NewEpisode(animeID, domain.RegularEpisode(number))
	if err != nil {
		t.Fatalf("NewEpisode: %v", err)
	}
	if err := store.CreateEpisode(context.Background(), episode); err != nil {
		t.Fatalf("CreateEpisode: %v", err)
	}
	return episode
}

// NewVideoFile creates and persists a video file record for tests.
func NewVideoFile(t testing.TB, store *library.Store, path string) *domain.File {
	t.Helper()

	file, err := domain.NewFile(path, domain.FileRoleVideo, 1024, time.Now().UTC(), domain.FileOriginScan)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	if err := store.CreateFile(context.Background(), file); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	return file
}
