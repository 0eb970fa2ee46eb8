package store

import "gorm.io/datatypes"

// PositionModel is an agent's opening position snapshot for a trading day.
// Snapshots are written by whatever settles trades (out of scope here); the
// assembler only reads the latest one at or before the session date.
type PositionModel struct {
	ID            int64          `gorm:"column:id;primaryKey"`
	Signature     string         `gorm:"column:signature;uniqueIndex:idx_positions_day"`
	Date          string         `gorm:"column:date;uniqueIndex:idx_positions_day"`
	Holdings      datatypes.JSON `gorm:"column:holdings"`
	Cash          float64        `gorm:"column:cash"`
	CreatedAtUnix int64          `gorm:"column:created_at"`
}

func (PositionModel) TableName() string { return "positions" }

// SessionModel is one completed trading session: the decision plus the
// engine telemetry that produced it.
type SessionModel struct {
	ID            int64   `gorm:"column:id;primaryKey"`
	TraceID       string  `gorm:"column:trace_id;uniqueIndex"`
	Signature     string  `gorm:"column:signature;index"`
	Date          string  `gorm:"column:date;index"`
	Action        string  `gorm:"column:action"`
	Symbol        string  `gorm:"column:symbol"`
	Amount        float64 `gorm:"column:amount"`
	Confidence    float64 `gorm:"column:confidence"`
	Reasoning     string  `gorm:"column:reasoning"`
	CostUSD       float64 `gorm:"column:cost_usd"`
	DurationMS    int64   `gorm:"column:duration_ms"`
	NumTurns      int     `gorm:"column:num_turns"`
	ErrorKind     string  `gorm:"column:error_kind"`
	RawResult     string  `gorm:"column:raw_result"`
	CreatedAtUnix int64   `gorm:"column:created_at"`
}

func (SessionModel) TableName() string { return "sessions" }
