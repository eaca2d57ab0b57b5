package ranking

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

const (
	// rankEpochOffset anchors the recency term. The value 1134028003 is the
	// classic Reddit epoch (2005-12-08), carried over unchanged from the
	// original formula.
	rankEpochOffset = 1134028003

	// decaySeconds is the number of seconds of recency worth one order of
	// magnitude of net score.
	decaySeconds = 45000

	// rankPrecision is the number of significant decimal digits a rank is
	// rounded to, so identical inputs always yield bit-identical floats.
	rankPrecision = 11
)

// hotEpoch is the zero point for epochSeconds. The original implementation
// built it as new Date(1970, 1, 1), which is February 1st (JS months are
// zero-based), not January 1st. Every stored rank was computed against this
// point, so it is preserved verbatim; fixing it would reorder existing
// content. Flagged with product, do not change unilaterally.
var hotEpoch = time.Date(1970, time.February, 1, 0, 0, 0, 0, time.UTC)

// HotRank computes the time-decayed popularity rank for a clip.
//
// rank = sign(score) * log10(max(|score|, 1)) + (epochSeconds(createdAt) - 1134028003) / 45000
//
// For a fixed score the rank strictly increases with createdAt; for a fixed
// createdAt it is monotonic in score within each sign regime. A zero-value
// createdAt is rejected, mirroring the original's date-object check.
func HotRank(ups, downs int, createdAt time.Time) (float64, error) {
	if createdAt.IsZero() {
		return 0, fmt.Errorf("hot rank: createdAt must be a valid time")
	}

	score := ups - downs
	order := math.Log10(math.Max(math.Abs(float64(score)), 1))

	var sign float64
	switch {
	case score > 0:
		sign = 1
	case score < 0:
		sign = -1
	}

	seconds := epochSeconds(createdAt) - rankEpochOffset
	rank := sign*order + float64(seconds)/decaySeconds

	return roundSignificant(rank, rankPrecision), nil
}

// epochSeconds returns whole seconds since hotEpoch.
func epochSeconds(t time.Time) int64 {
	return t.Unix() - hotEpoch.Unix()
}

// roundSignificant rounds x to the given number of significant decimal
// digits, matching JavaScript's Number(x.toPrecision(digits)).
func roundSignificant(x float64, digits int) float64 {
	s := strconv.FormatFloat(x, 'g', digits, 64)
	rounded, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// FormatFloat output always parses back; keep the raw value if not.
		return x
	}
	return rounded
}
