package library_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"animehub/internal/domain"
	"animehub/internal/library"
	"animehub/internal/testsupport"
)

func TestOpenInitializesSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	anime := testsupport.NewAnime(t, store, "Cowboy Bebop")

	fetched, err := store.GetAnime(ctx, anime.ID)
	if err != nil {
		t.Fatalf("GetAnime: %v", err)
	}
	if fetched == nil || fetched.Title != "Cowboy Bebop" {
		t.Fatalf("unexpected anime: %#v", fetched)
	}

	missing, err := store.GetAnime(ctx, uuid.New())
	if err != nil {
		t.Fatalf("GetAnime missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing anime, got %#v", missing)
	}
}

func TestAnimeRoundTripPreservesFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	anime, err := domain.NewAnime("Steins;Gate", domain.AnimeKindTV)
	if err != nil {
		t.Fatal(err)
	}
	anime.AlternativeTitles = []string{"シュタインズ・ゲート", "Stains;Gate"}
	anime.TotalEpisodes = 24
	anime.StartedAt = time.Date(2011, 4, 6, 0, 0, 0, 0, time.UTC)
	if err := store.CreateAnime(ctx, anime); err != nil {
		t.Fatalf("CreateAnime: %v", err)
	}

	fetched, err := store.GetAnime(ctx, anime.ID)
	if err != nil {
		t.Fatalf("GetAnime: %v", err)
	}
	if len(fetched.AlternativeTitles) != 2 {
		t.Fatalf("alternative titles = %v", fetched.AlternativeTitles)
	}
	if fetched.TotalEpisodes != 24 {
		t.Fatalf("total episodes = %d", fetched.TotalEpisodes)
	}
	if !fetched.StartedAt.Equal(anime.StartedAt) {
		t.Fatalf("started at = %s, want %s", fetched.StartedAt, anime.StartedAt)
	}
}

func TestListAnimeOrderIsDeterministic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		testsupport.NewAnime(t, store, fmt.Sprintf("Show %d", i))
	}

	first, err := store.ListAnime(ctx)
	if err != nil {
		t.Fatalf("ListAnime: %v", err)
	}
	second, err := store.ListAnime(ctx)
	if err != nil {
		t.Fatalf("ListAnime: %v", err)
	}
	if len(first) != 5 || len(second) != 5 {
		t.Fatalf("lengths = %d, %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatal("list order changed between calls")
		}
	}
}

func TestEpisodeRequiresExistingAnime(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	episode, err := domain.NewEpisode(uuid.New(), domain.RegularEpisode(1))
	if err != nil {
		t.Fatal(err)
	}
	if err := store.CreateEpisode(ctx, episode); err == nil {
		t.Fatal("expected foreign key violation for orphan episode")
	}
}

func TestFindEpisodeByNumber(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	anime := testsupport.NewAnime(t, store, "Show")
	episode := testsupport.NewEpisode(t, store, anime.ID, 5)

	found, err := store.FindEpisode(ctx, anime.ID, domain.RegularEpisode(5))
	if err != nil {
		t.Fatalf("FindEpisode: %v", err)
	}
	if found == nil || found.ID != episode.ID {
		t.Fatalf("unexpected episode: %#v", found)
	}

	missing, err := store.FindEpisode(ctx, anime.ID, domain.SpecialEpisode("OVA"))
	if err != nil {
		t.Fatalf("FindEpisode special: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing special, got %#v", missing)
	}
}

func TestUpsertFileByPath(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	modified := time.Now().UTC().Truncate(time.Second)
	first, err := store.UpsertFileByPath(ctx, "/lib/Show S01E05.mkv", domain.FileRoleVideo, 1024, modified, domain.FileOriginScan)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	same, err := store.UpsertFileByPath(ctx, "/lib/Show S01E05.mkv", domain.FileRoleVideo, 1024, modified, domain.FileOriginScan)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if same.ID != first.ID {
		t.Fatal("unchanged upsert produced a new identity")
	}

	grown, err := store.UpsertFileByPath(ctx, "/lib/Show S01E05.mkv", domain.FileRoleVideo, 4096, modified.Add(time.Hour), domain.FileOriginScan)
	if err != nil {
		t.Fatalf("third upsert: %v", err)
	}
	if grown.ID != first.ID {
		t.Fatal("changed upsert produced a new identity")
	}
	if grown.Size != 4096 {
		t.Fatalf("size = %d, want 4096", grown.Size)
	}
}

func TestLinkFileToEpisodeIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	anime := testsupport.NewAnime(t, store, "Show")
	episode := testsupport.NewEpisode(t, store, anime.ID, 1)
	file := testsupport.NewVideoFile(t, store, "/lib/Show S01E01.mkv")

	if err := store.LinkFileToEpisode(ctx, episode.ID, file.ID, domain.FileRoleVideo); err != nil {
		t.Fatalf("first link: %v", err)
	}
	if err := store.LinkFileToEpisode(ctx, episode.ID, file.ID, domain.FileRoleVideo); err != nil {
		t.Fatalf("repeat link: %v", err)
	}

	files, err := store.FilesForEpisode(ctx, episode.ID)
	if err != nil {
		t.Fatalf("FilesForEpisode: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("linked files = %d, want 1", len(files))
	}

	episodeID, err := store.EpisodeForFile(ctx, file.ID)
	if err != nil {
		t.Fatalf("EpisodeForFile: %v", err)
	}
	if episodeID != episode.ID {
		t.Fatalf("episode for file = %s, want %s", episodeID, episode.ID)
	}
}

func TestLedgerUniqueFingerprint(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	record := &library.LedgerRecord{
		ID:             uuid.New(),
		Fingerprint:    "abc123",
		EventType:      "FileResolved",
		SourceEventID:  uuid.New(),
		Outcome:        library.OutcomeAnimeCreated,
		MaterializedAt: time.Now().UTC(),
	}
	if err := store.RecordLedger(ctx, record); err != nil {
		t.Fatalf("first record: %v", err)
	}

	duplicate := &library.LedgerRecord{
		ID:             uuid.New(),
		Fingerprint:    "abc123",
		EventType:      "FileResolved",
		SourceEventID:  uuid.New(),
		Outcome:        library.OutcomeFileLinked,
		MaterializedAt: time.Now().UTC(),
	}
	err := store.RecordLedger(ctx, duplicate)
	if !errors.Is(err, library.ErrDuplicateFingerprint) {
		t.Fatalf("expected ErrDuplicateFingerprint, got %v", err)
	}

	found, err := store.LookupLedger(ctx, "abc123")
	if err != nil {
		t.Fatalf("LookupLedger: %v", err)
	}
	if found == nil || found.ID != record.ID {
		t.Fatalf("lookup returned %#v, want winner record", found)
	}
}

func TestLedgerSoftReferencesSurviveEntityDeletion(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	anime := testsupport.NewAnime(t, store, "Doomed Show")
	record := &library.LedgerRecord{
		ID:             uuid.New(),
		Fingerprint:    "soft-ref",
		EventType:      "FileResolved",
		SourceEventID:  uuid.New(),
		AnimeID:        anime.ID,
		Outcome:        library.OutcomeAnimeCreated,
		MaterializedAt: time.Now().UTC(),
	}
	if err := store.RecordLedger(ctx, record); err != nil {
		t.Fatalf("RecordLedger: %v", err)
	}

	deleted, err := store.DeleteAnime(ctx, anime.ID)
	if err != nil {
		t.Fatalf("DeleteAnime: %v", err)
	}
	if !deleted {
		t.Fatal("anime was not deleted")
	}

	found, err := store.LookupLedger(ctx, "soft-ref")
	if err != nil {
		t.Fatalf("LookupLedger: %v", err)
	}
	if found == nil {
		t.Fatal("ledger record vanished with the entity")
	}
	if found.AnimeID != uuid.Nil {
		t.Fatalf("anime reference = %s, want nulled", found.AnimeID)
	}
}

func TestLedgerAuditQueries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	anime := testsupport.NewAnime(t, store, "Show")
	sourceEvent := uuid.New()
	for i := 0; i < 3; i++ {
		record := &library.LedgerRecord{
			ID:             uuid.New(),
			Fingerprint:    fmt.Sprintf("fp-%d", i),
			EventType:      "FileResolved",
			SourceEventID:  sourceEvent,
			AnimeID:        anime.ID,
			Outcome:        library.OutcomeFileLinked,
			MaterializedAt: time.Now().UTC(),
		}
		if err := store.RecordLedger(ctx, record); err != nil {
			t.Fatalf("RecordLedger %d: %v", i, err)
		}
	}

	bySource, err := store.LedgerBySourceEvent(ctx, sourceEvent)
	if err != nil {
		t.Fatalf("LedgerBySourceEvent: %v", err)
	}
	if len(bySource) != 3 {
		t.Fatalf("by source = %d, want 3", len(bySource))
	}

	byAnime, err := store.LedgerForAnime(ctx, anime.ID)
	if err != nil {
		t.Fatalf("LedgerForAnime: %v", err)
	}
	if len(byAnime) != 3 {
		t.Fatalf("by anime = %d, want 3", len(byAnime))
	}

	stats, err := store.LedgerStats(ctx)
	if err != nil {
		t.Fatalf("LedgerStats: %v", err)
	}
	if stats[library.OutcomeFileLinked] != 3 {
		t.Fatalf("stats = %v", stats)
	}
}

func TestWithTxRollsBackOnError(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	anime, err := domain.NewAnime("Partial Show", domain.AnimeKindTV)
	if err != nil {
		t.Fatal(err)
	}
	boom := errors.New("boom")

	err = store.WithTx(ctx, func(tx *library.Tx) error {
		if err := tx.CreateAnime(anime); err != nil {
			return err
		}
		if err := tx.RecordLedger(&library.LedgerRecord{
			ID:             uuid.New(),
			Fingerprint:    "rollback-fp",
			EventType:      "FileResolved",
			SourceEventID:  uuid.New(),
			AnimeID:        anime.ID,
			Outcome:        library.OutcomeAnimeCreated,
			MaterializedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx error = %v, want boom", err)
	}

	fetched, err := store.GetAnime(ctx, anime.ID)
	if err != nil {
		t.Fatalf("GetAnime: %v", err)
	}
	if fetched != nil {
		t.Fatal("anime persisted despite rollback")
	}
	record, err := store.LookupLedger(ctx, "rollback-fp")
	if err != nil {
		t.Fatalf("LookupLedger: %v", err)
	}
	if record != nil {
		t.Fatal("ledger record persisted despite rollback")
	}
}

func TestMergeAnimeAndAliasChain(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first := testsupport.NewAnime(t, store, "Show")
	second := testsupport.NewAnime(t, store, "ShowCanonical")
	third := testsupport.NewAnime(t, store, "ShowFinal")

	if _, err := store.MergeAnime(ctx, second.ID, first.ID); err != nil {
		t.Fatalf("first merge: %v", err)
	}
	if _, err := store.MergeAnime(ctx, third.ID, second.ID); err != nil {
		t.Fatalf("second merge: %v", err)
	}

	principal, err := store.ResolveAliasChain(ctx, first.ID)
	if err != nil {
		t.Fatalf("ResolveAliasChain: %v", err)
	}
	if principal != third.ID {
		t.Fatalf("chain resolved to %s, want %s", principal, third.ID)
	}

	self, err := store.ResolveAliasChain(ctx, third.ID)
	if err != nil {
		t.Fatalf("ResolveAliasChain principal: %v", err)
	}
	if self != third.ID {
		t.Fatal("principal should resolve to itself")
	}

	if _, err := store.MergeAnime(ctx, third.ID, first.ID); err == nil {
		t.Fatal("expected error re-merging an already merged anime")
	}
}

func TestComputeAndSaveStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	anime := testsupport.NewAnime(t, store, "Show")
	episode := testsupport.NewEpisode(t, store, anime.ID, 1)
	testsupport.NewEpisode(t, store, anime.ID, 2)
	testsupport.NewVideoFile(t, store, "/lib/Show S01E01.mkv")

	episode.MarkCompleted()
	if err := store.UpdateEpisode(ctx, episode); err != nil {
		t.Fatalf("UpdateEpisode: %v", err)
	}

	snapshot, err := store.ComputeStats(ctx)
	if err != nil {
		t.Fatalf("ComputeStats: %v", err)
	}
	if snapshot.AnimeCount != 1 || snapshot.EpisodeCount != 2 || snapshot.FileCount != 1 || snapshot.WatchedCount != 1 {
		t.Fatalf("snapshot = %+v", snapshot)
	}

	if err := store.SaveStats(ctx, snapshot); err != nil {
		t.Fatalf("SaveStats: %v", err)
	}
	latest, err := store.LatestStats(ctx)
	if err != nil {
		t.Fatalf("LatestStats: %v", err)
	}
	if latest == nil || latest.EpisodeCount != 2 {
		t.Fatalf("latest = %+v", latest)
	}
}

func TestSubtitlesForFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	file := testsupport.NewVideoFile(t, store, "/lib/Show S01E01.mkv")
	original, err := domain.NewSubtitle(file.ID, domain.SubtitleFormatSRT, "ja")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.CreateSubtitle(ctx, original); err != nil {
		t.Fatalf("CreateSubtitle: %v", err)
	}
	derived, err := original.Derive(file.ID, domain.SubtitleFormatASS)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.CreateSubtitle(ctx, derived); err != nil {
		t.Fatalf("CreateSubtitle derived: %v", err)
	}

	subtitles, err := store.SubtitlesForFile(ctx, file.ID)
	if err != nil {
		t.Fatalf("SubtitlesForFile: %v", err)
	}
	if len(subtitles) != 2 {
		t.Fatalf("subtitles = %d, want 2", len(subtitles))
	}
	if subtitles[0].Version != 1 || subtitles[1].Version != 2 {
		t.Fatalf("versions = %d, %d", subtitles[0].Version, subtitles[1].Version)
	}
}

func TestCollections(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	anime := testsupport.NewAnime(t, store, "Show")
	collection, err := domain.NewCollection("Favorites", "rewatch material")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.CreateCollection(ctx, collection); err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}

	if err := store.AddToCollection(ctx, collection.ID, anime.ID); err != nil {
		t.Fatalf("AddToCollection: %v", err)
	}
	if err := store.AddToCollection(ctx, collection.ID, anime.ID); err != nil {
		t.Fatalf("repeat AddToCollection: %v", err)
	}

	members, err := store.AnimeInCollection(ctx, collection.ID)
	if err != nil {
		t.Fatalf("AnimeInCollection: %v", err)
	}
	if len(members) != 1 || members[0].ID != anime.ID {
		t.Fatalf("members = %#v", members)
	}

	removed, err := store.RemoveFromCollection(ctx, collection.ID, anime.ID)
	if err != nil {
		t.Fatalf("RemoveFromCollection: %v", err)
	}
	if !removed {
		t.Fatal("membership was not removed")
	}
}
