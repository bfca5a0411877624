package resolution

import (
	"sort"

	"github.com/google/uuid"

	"animehub/internal/domain"
)

// EpisodeGroup collects every file resolved to the same episode of the same
// anime within a batch. At most one video file wins the VideoFileID slot;
// subtitles accumulate.
type EpisodeGroup struct {
	AnimeTitle       string
	MatchedAnimeID   uuid.UUID
	EpisodeNumber    domain.EpisodeNumber
	MatchedEpisodeID uuid.UUID
	VideoFileID      uuid.UUID
	SubtitleFileIDs  []uuid.UUID
	Confidence       float64
}

// GroupByEpisode buckets file resolutions by normalized title and episode
// label. The group's confidence is the highest confidence among its files,
// and when several videos claim the same episode the most confident one
// wins. Group order is deterministic: title, then episode label.
func GroupByEpisode(resolutions []*Resolution) []*EpisodeGroup {
	type key struct {
		title   string
		episode string
	}

	groups := make(map[key]*EpisodeGroup)
	videoConfidence := make(map[key]float64)
	var order []key

	for _, res := range resolutions {
		k := key{title: NormalizeTitle(res.AnimeTitle), episode: res.EpisodeNumber.Label()}
		group, seen := groups[k]
		if !seen {
			group = &EpisodeGroup{
				AnimeTitle:    res.AnimeTitle,
				EpisodeNumber: res.EpisodeNumber,
			}
			groups[k] = group
			order = append(order, k)
		}

		if res.MatchedAnimeID != uuid.Nil && group.MatchedAnimeID == uuid.Nil {
			group.MatchedAnimeID = res.MatchedAnimeID
		}
		if res.MatchedEpisodeID != uuid.Nil && group.MatchedEpisodeID == uuid.Nil {
			group.MatchedEpisodeID = res.MatchedEpisodeID
		}
		if res.Confidence > group.Confidence {
			group.Confidence = res.Confidence
		}

		switch res.Role {
		case domain.FileRoleVideo:
			if group.VideoFileID == uuid.Nil || res.Confidence > videoConfidence[k] {
				group.VideoFileID = res.FileID
				videoConfidence[k] = res.Confidence
			}
		case domain.FileRoleSubtitle:
			group.SubtitleFileIDs = append(group.SubtitleFileIDs, res.FileID)
		}
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].title != order[j].title {
			return order[i].title < order[j].title
		}
		return order[i].episode < order[j].episode
	})

	result := make([]*EpisodeGroup, 0, len(order))
	for _, k := range order {
		result = append(result, groups[k])
	}
	return result
}
