package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"hash/fnv"

	"github.com/danvoulez/voulezvous-tv/internal/domain"
)

// loudness acceptance window, EBU R128-style target with a +/-3 LU tolerance.
const (
	targetLUFS            = -23.0
	loudnessLUFSTolerance = 3.0
)

// ProcessPrep runs QA over fetched assets: it derives a checksum and a
// loudness reading and sets QaStatus accordingly. The actual decode/probe
// is delegated to an external media tool (never invoked here); this
// derives a deterministic stand-in so the rest of the pipeline has
// something stable to test against.
func ProcessPrep(assets []domain.AssetItem) []domain.AssetItem {
	out := make([]domain.AssetItem, 0, len(assets))
	for _, a := range assets {
		a.Checksum = checksumFor(a)
		a.LoudnessLUFS = simulatedLoudness(a)
		a.LocalPath = "assets/" + a.AssetID + ".ts"
		a.QaStatus = qaVerdict(a)
		out = append(out, a)
	}
	return out
}

func qaVerdict(a domain.AssetItem) domain.QaStatus {
	if a.DurationSec <= 0 || a.Resolution.Width <= 0 || a.Resolution.Height <= 0 {
		return domain.QaRejected
	}
	if a.LoudnessLUFS < targetLUFS-loudnessLUFSTolerance || a.LoudnessLUFS > targetLUFS+loudnessLUFSTolerance {
		return domain.QaRejected
	}
	return domain.QaPassed
}

func checksumFor(a domain.AssetItem) string {
	sum := sha256.Sum256([]byte(a.AssetID + "|" + a.SourceURL))
	return hex.EncodeToString(sum[:])
}

// simulatedLoudness maps the asset's identity onto a deterministic LUFS
// reading spread across and slightly beyond the acceptance window, so QA
// rejects a realistic fraction of assets without any external measurement.
func simulatedLoudness(a domain.AssetItem) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(a.AssetID))
	spread := float64(h.Sum32()%100) / 100.0 // [0,1)
	return targetLUFS - loudnessLUFSTolerance - 1 + spread*(2*loudnessLUFSTolerance+2)
}
