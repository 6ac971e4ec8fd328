package notifier

import (
	"github.com/shaiderdocker-droid/dayedge-scanner/internal/core"
)

// DefaultTopN is how many picks a notification carries by default.
const DefaultTopN = 5

// Pick is the notification view of one ranked symbol
type Pick struct {
	Symbol         string   `json:"symbol"`
	Grade          string   `json:"grade"`
	Total          int      `json:"total"`
	GapPercent     float64  `json:"gap_pct"`
	RelativeVolume float64  `json:"relative_volume"`
	Catalyst       bool     `json:"catalyst"`
	Reasons        []string `json:"reasons,omitempty"`
}

// TopPicks returns up to n grade A or B results in ranked order.
func TopPicks(res *core.ScanResult, n int) []Pick {
	if res == nil {
		return nil
	}
	if n <= 0 {
		n = DefaultTopN
	}
	picks := make([]Pick, 0, n)
	for _, r := range res.Results {
		if len(picks) >= n {
			break
		}
		if r.Score == nil || r.Score.Grade.Tier() < core.GradeB.Tier() {
			continue
		}
		p := Pick{
			Symbol:  r.Symbol,
			Grade:   string(r.Score.Grade),
			Total:   r.Score.Total,
			Reasons: r.Score.Reasons,
		}
		if r.Signals != nil {
			p.GapPercent = r.Signals.GapPercent
			p.RelativeVolume = r.Signals.RelativeVolume
			p.Catalyst = r.Signals.Catalyst
		}
		picks = append(picks, p)
	}
	return picks
}

// IntParam reads an integer from decoded config params, which may hold
// any numeric type depending on the source format.
func IntParam(params map[string]any, key string) (int, bool) {
	switch v := params[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// StringMapParam reads a string map from decoded config params.
func StringMapParam(params map[string]any, key string) map[string]string {
	switch v := params[key].(type) {
	case map[string]string:
		return v
	case map[string]any:
		out := make(map[string]string, len(v))
		for k, val := range v {
			if s, ok := val.(string); ok {
				out[k] = s
			}
		}
		return out
	default:
		return nil
	}
}
