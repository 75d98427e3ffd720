package check

import (
	"time"

	"mlshield-controlplane/services/scoring"
)

// Check is one scored telemetry submission. Rows are append-only: never
// mutated, never deleted. Seq is the insertion order.
type Check struct {
	Seq         uint            `gorm:"column:seq;primaryKey;autoIncrement" json:"-"`
	PlayerID    string          `gorm:"column:player_id;index" json:"player"`
	Timestamp   time.Time       `gorm:"column:timestamp" json:"time"`
	Probability float64         `gorm:"column:probability" json:"prob"`
	AvgJerk     float64         `gorm:"column:avg_jerk" json:"avg_jerk"`
	Verdict     scoring.Verdict `gorm:"column:verdict" json:"verdict"`
}

func (Check) TableName() string {
	return "checks"
}
