// Package fingerprint derives the idempotency keys that guard
// materialization. A fingerprint is a SHA-256 digest of a resolution's
// semantic key fields, never of timestamps or random identifiers, so
// identical semantic inputs always yield the identical fingerprint
// regardless of process, time, or replay order.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// FileResolution fingerprints a file-level resolution. Title casing does not
// participate in the digest.
func FileResolution(fileID uuid.UUID, animeTitle, episodeNumber, fileRole string) string {
	h := sha256.New()
	h.Write(fileID[:])
	h.Write([]byte(strings.ToLower(animeTitle)))
	h.Write([]byte(episodeNumber))
	h.Write([]byte(fileRole))
	return hex.EncodeToString(h.Sum(nil))
}

// EpisodeResolution fingerprints an episode-level resolution. The video file
// id contributes only when present.
func EpisodeResolution(animeTitle, episodeNumber string, videoFileID uuid.UUID) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(animeTitle)))
	h.Write([]byte(episodeNumber))
	if videoFileID != uuid.Nil {
		h.Write(videoFileID[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
