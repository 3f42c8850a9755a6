package trust

// Tier is the coarse label shown next to a trust score.
type Tier string

const (
	TierA Tier = "A"
	TierB Tier = "B"
	TierC Tier = "C"
	TierD Tier = "D"
	TierU Tier = "U"
)

// ScoreToTier maps any integer score to a tier:
// >=9 A, 7-8 B, 5-6 C, 1-4 D, <=0 U.
func ScoreToTier(score int) Tier {
	switch {
	case score >= 9:
		return TierA
	case score >= 7:
		return TierB
	case score >= 5:
		return TierC
	case score > 0:
		return TierD
	default:
		return TierU
	}
}

// Rank orders tiers from U (0) to A (4).
func (t Tier) Rank() int {
	switch t {
	case TierA:
		return 4
	case TierB:
		return 3
	case TierC:
		return 2
	case TierD:
		return 1
	default:
		return 0
	}
}
