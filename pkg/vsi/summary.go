package vsi

import (
	"fmt"
)

// GetExecutiveSummary projects the current index into a leadership-level
// headline, main risk and action items. Headline bands: >=80 strong,
// 60-79 needs attention, below 60 critical.
func (a *Aggregator) GetExecutiveSummary() ExecutiveSummary {
	index := a.Calculate()

	var headline string
	switch {
	case index.OverallScore >= 80:
		headline = "Security posture is strong"
	case index.OverallScore >= 60:
		headline = "Security posture needs attention"
	default:
		headline = "Critical security issues require immediate action"
	}

	mainRisk := ""
	if len(index.Recommendations) > 0 {
		mainRisk = index.Recommendations[0].Title
	}

	threatTrend := "->"
	if index.RiskSummary.ActiveThreats > 0 {
		threatTrend = "^"
	}
	keyMetrics := []KeyMetric{
		{
			Label: "Security Score",
			Value: fmt.Sprintf("%d/100 (%s)", index.OverallScore, index.Grade),
			Trend: trendArrow(index.Trend),
		},
		{
			Label: "Active Threats",
			Value: fmt.Sprintf("%d", index.RiskSummary.ActiveThreats),
			Trend: threatTrend,
		},
		{
			Label: "Pending Actions",
			Value: fmt.Sprintf("%d", index.RiskSummary.PendingActions),
			Trend: "->",
		},
	}

	actionItems := make([]string, 0, 5)
	for _, r := range index.Recommendations {
		actionItems = append(actionItems, r.Title)
		if len(actionItems) == 5 {
			break
		}
	}

	return ExecutiveSummary{
		Headline:    headline,
		MainRisk:    mainRisk,
		KeyMetrics:  keyMetrics,
		ActionItems: actionItems,
	}
}

func trendArrow(t Trend) string {
	switch t {
	case TrendImproving:
		return "^"
	case TrendDeclining:
		return "v"
	default:
		return "->"
	}
}
