package resolution_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"animehub/internal/domain"
	"animehub/internal/resolution"
)

type fakeCatalog struct {
	anime    []*domain.Anime
	episodes map[uuid.UUID]map[string]*domain.Episode
}

func (c *fakeCatalog) ListAnime(context.Context) ([]*domain.Anime, error) {
	return c.anime, nil
}

func (c *fakeCatalog) FindEpisode(_ context.Context, animeID uuid.UUID, number domain.EpisodeNumber) (*domain.Episode, error) {
	return c.episodes[animeID][number.Label()], nil
}

func (c *fakeCatalog) addAnime(t *testing.T, title string, createdAt time.Time) *domain.Anime {
	t.Helper()
	anime, err := domain.NewAnime(title, domain.AnimeKindTV)
	if err != nil {
		t.Fatal(err)
	}
	anime.CreatedAt = createdAt
	c.anime = append(c.anime, anime)
	return anime
}

func (c *fakeCatalog) addEpisode(t *testing.T, animeID uuid.UUID, number domain.EpisodeNumber) *domain.Episode {
	t.Helper()
	episode, err := domain.NewEpisode(animeID, number)
	if err != nil {
		t.Fatal(err)
	}
	if c.episodes == nil {
		c.episodes = make(map[uuid.UUID]map[string]*domain.Episode)
	}
	if c.episodes[animeID] == nil {
		c.episodes[animeID] = make(map[string]*domain.Episode)
	}
	c.episodes[animeID][number.Label()] = episode
	return episode
}

func videoObservation(path string) resolution.Observation {
	return resolution.Observation{
		FileID:     uuid.New(),
		Path:       path,
		Role:       domain.FileRoleVideo,
		Size:       1024,
		ModifiedAt: time.Now(),
	}
}

func mustResolve(t *testing.T, resolver *resolution.Resolver, obs resolution.Observation) *resolution.Resolution {
	t.Helper()
	outcome, err := resolver.Resolve(context.Background(), obs)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Failure != nil {
		t.Fatalf("expected resolution, got failure %s: %s", outcome.Failure.Reason, outcome.Failure.Detail)
	}
	return outcome.Resolution
}

func TestParseTitleFromFilename(t *testing.T) {
	cases := []struct {
		path   string
		title  string
		source resolution.Source
	}{
		{"/lib/[SubGroup] Frieren - 01 [1080p].mkv", "Frieren", resolution.SourceFilename},
		{"/lib/Frieren - 01.mkv", "Frieren", resolution.SourceFilename},
		{"/lib/Cowboy Bebop S01E05.mkv", "Cowboy Bebop", resolution.SourceFilename},
		{"/lib/Mushishi Episode 12.mkv", "Mushishi", resolution.SourceFilename},
		{"/lib/Monogatari - 03 (720p).mkv", "Monogatari", resolution.SourceFilename},
	}
	for _, tc := range cases {
		title, source, ok := resolution.ParseTitle(tc.path)
		if !ok {
			t.Fatalf("ParseTitle(%q) failed", tc.path)
		}
		if title != tc.title || source != tc.source {
			t.Fatalf("ParseTitle(%q) = %q from %s, want %q from %s", tc.path, title, source, tc.title, tc.source)
		}
	}
}

func TestParseTitleFallsBackToFolder(t *testing.T) {
	title, source, ok := resolution.ParseTitle("/lib/[Subs] Planetes [1080p]/Episode 03.mkv")
	if !ok {
		t.Fatal("expected folder fallback to produce a title")
	}
	if title != "Planetes" {
		t.Fatalf("title = %q, want Planetes", title)
	}
	if source != resolution.SourceFolder {
		t.Fatalf("source = %s, want folder", source)
	}
}

func TestParseTitleRejectsShortFolder(t *testing.T) {
	if _, _, ok := resolution.ParseTitle("/x/ep.mkv"); ok {
		t.Fatal("expected no title from a two-character folder")
	}
}

func TestParseEpisodeNumbers(t *testing.T) {
	cases := []struct {
		path  string
		label string
	}{
		{"/lib/Show - 07.mkv", "7"},
		{"/lib/Show - 007 [BD].mkv", "7"},
		{"/lib/Show S02E11.mkv", "11"},
		{"/lib/Show Episode 4.mkv", "4"},
		{"/lib/Show #13.mkv", "13"},
	}
	for _, tc := range cases {
		number, source, ok := resolution.ParseEpisode(tc.path)
		if !ok {
			t.Fatalf("ParseEpisode(%q) failed", tc.path)
		}
		if number.IsSpecial() {
			t.Fatalf("ParseEpisode(%q) returned special %q", tc.path, number.Special)
		}
		if number.Label() != tc.label {
			t.Fatalf("ParseEpisode(%q) = %s, want %s", tc.path, number.Label(), tc.label)
		}
		if source != resolution.SourceFilename {
			t.Fatalf("ParseEpisode(%q) source = %s, want filename", tc.path, source)
		}
	}
}

func TestParseEpisodeSpecialsPrecedeNumbers(t *testing.T) {
	cases := []struct {
		path  string
		label string
	}{
		{"/lib/Show OVA 2.mkv", "OVA 2"},
		{"/lib/Show OAD.mkv", "OAD"},
		{"/lib/Show SP 01.mkv", "SP 01"},
		{"/lib/Show Movie.mkv", "Movie"},
	}
	for _, tc := range cases {
		number, _, ok := resolution.ParseEpisode(tc.path)
		if !ok {
			t.Fatalf("ParseEpisode(%q) failed", tc.path)
		}
		if !number.IsSpecial() || number.Label() != tc.label {
			t.Fatalf("ParseEpisode(%q) = %q, want special %q", tc.path, number.Label(), tc.label)
		}
	}
}

func TestNormalizeTitle(t *testing.T) {
	cases := map[string]string{
		"Frieren: Beyond Journey's End": "frieren beyond journey's end",
		"NEON_GENESIS-EVANGELION":       "neon genesis evangelion",
		"  Mushishi  ":                  "mushishi",
	}
	for input, want := range cases {
		if got := resolution.NormalizeTitle(input); got != want {
			t.Fatalf("NormalizeTitle(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestResolveProposesCreationWhenCatalogEmpty(t *testing.T) {
	resolver := resolution.NewResolver(&fakeCatalog{}, 0.7)
	res := mustResolve(t, resolver, videoObservation("/lib/Frieren - 01.mkv"))

	if res.MatchedAnimeID != uuid.Nil || res.MatchedEpisodeID != uuid.Nil {
		t.Fatal("empty catalog should yield a creation proposal, not a match")
	}
	if res.AnimeTitle != "Frieren" {
		t.Fatalf("title = %q", res.AnimeTitle)
	}
	// base 0.5, filename title and filename episode 0.1 each, regular number 0.05
	if math.Abs(res.Confidence-0.75) > 1e-9 {
		t.Fatalf("confidence = %v, want 0.75", res.Confidence)
	}
}

func TestResolveMatchesExistingAnimeAndEpisode(t *testing.T) {
	catalog := &fakeCatalog{}
	anime := catalog.addAnime(t, "Frieren", time.Now())
	episode := catalog.addEpisode(t, anime.ID, domain.RegularEpisode(1))

	resolver := resolution.NewResolver(catalog, 0.7)
	res := mustResolve(t, resolver, videoObservation("/lib/[Subs] Frieren - 01.mkv"))

	if res.MatchedAnimeID != anime.ID {
		t.Fatalf("matched anime %s, want %s", res.MatchedAnimeID, anime.ID)
	}
	if res.MatchedEpisodeID != episode.ID {
		t.Fatalf("matched episode %s, want %s", res.MatchedEpisodeID, episode.ID)
	}
	if res.Confidence != 1.0 {
		t.Fatalf("confidence = %v, want clamp at 1.0", res.Confidence)
	}
}

func TestResolveMatchesThroughAlternativeTitle(t *testing.T) {
	catalog := &fakeCatalog{}
	anime := catalog.addAnime(t, "Sousou no Frieren", time.Now())
	anime.AlternativeTitles = []string{"Frieren Beyond Journey's End"}

	resolver := resolution.NewResolver(catalog, 0.7)
	res := mustResolve(t, resolver, videoObservation("/lib/Frieren Beyond Journey's End - 02.mkv"))

	if res.MatchedAnimeID != anime.ID {
		t.Fatal("expected match through alternative title")
	}
}

func TestResolveBelowThresholdProposesCreation(t *testing.T) {
	catalog := &fakeCatalog{}
	catalog.addAnime(t, "Completely Different Series", time.Now())

	resolver := resolution.NewResolver(catalog, 0.7)
	res := mustResolve(t, resolver, videoObservation("/lib/Frieren - 01.mkv"))

	if res.MatchedAnimeID != uuid.Nil {
		t.Fatal("dissimilar catalog entry should not match")
	}
}

func TestResolveShortTitlePenalty(t *testing.T) {
	resolver := resolution.NewResolver(&fakeCatalog{}, 0.7)
	res := mustResolve(t, resolver, videoObservation("/lib/K - 01.mkv"))

	// base 0.5 + 0.1 + 0.1 + 0.05 regular, minus 0.2 for the one-letter title
	if math.Abs(res.Confidence-0.55) > 1e-9 {
		t.Fatalf("confidence = %v, want 0.55", res.Confidence)
	}
}

func TestResolveTieBreaksByCreationTime(t *testing.T) {
	catalog := &fakeCatalog{}
	newer := catalog.addAnime(t, "Frieren", time.Now())
	older := catalog.addAnime(t, "Frieren", time.Now().Add(-time.Hour))

	resolver := resolution.NewResolver(catalog, 0.7)
	for i := 0; i < 5; i++ {
		res := mustResolve(t, resolver, videoObservation("/lib/Frieren - 01.mkv"))
		if res.MatchedAnimeID != older.ID {
			t.Fatalf("matched %s, want the older entry %s over %s", res.MatchedAnimeID, older.ID, newer.ID)
		}
	}
}

func TestResolveFailures(t *testing.T) {
	resolver := resolution.NewResolver(&fakeCatalog{}, 0.7)

	obs := videoObservation("/x/randomfile.mkv")
	outcome, err := resolver.Resolve(context.Background(), obs)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Failure == nil || outcome.Failure.Reason != resolution.ReasonUnparsableTitle {
		t.Fatalf("outcome = %+v, want unparsable title failure", outcome)
	}

	obs = videoObservation("/lib/Some Show/extras.mkv")
	outcome, err = resolver.Resolve(context.Background(), obs)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Failure == nil || outcome.Failure.Reason != resolution.ReasonUnparsableEpisode {
		t.Fatalf("outcome = %+v, want unparsable episode failure", outcome)
	}

	obs = videoObservation("/lib/Frieren - 01.nfo")
	obs.Role = domain.FileRoleOther
	outcome, err = resolver.Resolve(context.Background(), obs)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Failure == nil || outcome.Failure.Reason != resolution.ReasonUnsupportedFileType {
		t.Fatalf("outcome = %+v, want unsupported file type failure", outcome)
	}
}

func TestGroupByEpisodeCollectsVideoAndSubtitles(t *testing.T) {
	videoID, subID := uuid.New(), uuid.New()
	groups := resolution.GroupByEpisode([]*resolution.Resolution{
		{FileID: subID, AnimeTitle: "Frieren", EpisodeNumber: domain.RegularEpisode(1), Role: domain.FileRoleSubtitle, Confidence: 0.75},
		{FileID: videoID, AnimeTitle: "frieren", EpisodeNumber: domain.RegularEpisode(1), Role: domain.FileRoleVideo, Confidence: 0.8},
		{FileID: uuid.New(), AnimeTitle: "Frieren", EpisodeNumber: domain.RegularEpisode(2), Role: domain.FileRoleVideo, Confidence: 0.8},
	})

	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	first := groups[0]
	if first.VideoFileID != videoID {
		t.Fatalf("video file = %s, want %s", first.VideoFileID, videoID)
	}
	if len(first.SubtitleFileIDs) != 1 || first.SubtitleFileIDs[0] != subID {
		t.Fatalf("subtitles = %v, want [%s]", first.SubtitleFileIDs, subID)
	}
	if first.Confidence != 0.8 {
		t.Fatalf("group confidence = %v, want the max 0.8", first.Confidence)
	}
}

func TestGroupByEpisodeHighestConfidenceVideoWins(t *testing.T) {
	weak, strong := uuid.New(), uuid.New()
	groups := resolution.GroupByEpisode([]*resolution.Resolution{
		{FileID: weak, AnimeTitle: "Frieren", EpisodeNumber: domain.RegularEpisode(1), Role: domain.FileRoleVideo, Confidence: 0.6},
		{FileID: strong, AnimeTitle: "Frieren", EpisodeNumber: domain.RegularEpisode(1), Role: domain.FileRoleVideo, Confidence: 0.9},
	})

	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	if groups[0].VideoFileID != strong {
		t.Fatal("expected the higher-confidence video to win the slot")
	}
}
