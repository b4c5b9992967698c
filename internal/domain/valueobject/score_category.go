package valueobject

// ScoreCategory buckets a credit score for display.
type ScoreCategory struct {
	value string
}

var (
	ScorePoor      = ScoreCategory{"Poor"}
	ScoreFair      = ScoreCategory{"Fair"}
	ScoreGood      = ScoreCategory{"Good"}
	ScoreVeryGood  = ScoreCategory{"Very Good"}
	ScoreExcellent = ScoreCategory{"Excellent"}
)

// CategorizeScore maps a score onto its band:
// <580 Poor, <670 Fair, <740 Good, <800 Very Good, otherwise Excellent.
func CategorizeScore(score int) ScoreCategory {
	switch {
	case score < 580:
		return ScorePoor
	case score < 670:
		return ScoreFair
	case score < 740:
		return ScoreGood
	case score < 800:
		return ScoreVeryGood
	default:
		return ScoreExcellent
	}
}

func (c ScoreCategory) String() string { return c.value }
