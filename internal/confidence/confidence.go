// Package confidence derives a coarse confidence label from retrieval
// outcomes. Only three classes exist: strong multi-hit retrieval is high,
// empty retrieval is low, everything else is medium.
package confidence

type Level string

const (
	High   Level = "high"
	Medium Level = "medium"
	Low    Level = "low"
)

// Score maps (result count, top similarity) to a level. topScore is the
// similarity of the nearest result and is ignored when resultCount is zero.
func Score(resultCount int, topScore float64) Level {
	if resultCount == 0 {
		return Low
	}
	if resultCount >= 3 && topScore > 0.7 {
		return High
	}
	return Medium
}
