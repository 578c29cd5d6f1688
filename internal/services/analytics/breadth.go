package analytics

import (
	"math"
	"sort"
	"time"

	"SignalDeck/internal/domain/models"
)

// Breadth summarizes the reconciled ticker set for the dashboard header:
// how many symbols lean which way, and how dispersed the scores are.
type Breadth struct {
	Tickers     int       `json:"tickers"`
	Bullish     int       `json:"bullish"`
	Bearish     int       `json:"bearish"`
	Neutral     int       `json:"neutral"`
	AvgScore    float64   `json:"avg_score"`
	MedianScore float64   `json:"median_score"`
	ScoreStddev float64   `json:"score_stddev"`
	AvgRisk     float64   `json:"avg_risk"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ComputeBreadth aggregates over the current ticker states. An empty input
// yields a zero Breadth.
func ComputeBreadth(states []models.TickerState) Breadth {
	b := Breadth{Tickers: len(states)}
	if len(states) == 0 {
		return b
	}

	scores := make([]float64, 0, len(states))
	sum := 0.0
	sum2 := 0.0
	riskSum := 0.0
	for _, st := range states {
		switch st.Signal {
		case models.SignalBullish:
			b.Bullish++
		case models.SignalBearish:
			b.Bearish++
		default:
			b.Neutral++
		}
		scores = append(scores, st.Score)
		sum += st.Score
		sum2 += st.Score * st.Score
		riskSum += st.RiskScore
		if st.UpdatedAt.After(b.UpdatedAt) {
			b.UpdatedAt = st.UpdatedAt
		}
	}

	n := float64(len(scores))
	b.AvgScore = sum / n
	b.AvgRisk = riskSum / n

	sort.Float64s(scores)
	mid := len(scores) / 2
	if len(scores)%2 == 1 {
		b.MedianScore = scores[mid]
	} else {
		b.MedianScore = (scores[mid-1] + scores[mid]) / 2
	}

	if len(scores) > 1 {
		variance := (sum2 - n*b.AvgScore*b.AvgScore) / (n - 1)
		if variance < 0 {
			variance = 0
		}
		b.ScoreStddev = math.Sqrt(variance)
	}
	return b
}
