package amqp

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"ytearnings/internal/core"
)

// PeriodPublishedMessage announces that a period tab was rewritten.
type PeriodPublishedMessage struct {
	Period       string          `json:"period"`
	Tab          string          `json:"tab"`
	RevenueRows  int             `json:"revenue_rows"`
	ExpenseRows  int             `json:"expense_rows"`
	RevenueTotal decimal.Decimal `json:"revenue_total"`
	RunID        int64           `json:"run_id,omitempty"`
	Timestamp    time.Time       `json:"timestamp"`
}

func NewPeriodPublishedMessage(res core.PeriodResult, runID int64) *PeriodPublishedMessage {
	return &PeriodPublishedMessage{
		Period:       res.Period.String(),
		Tab:          res.Period.Label(),
		RevenueRows:  res.RevenueRows,
		ExpenseRows:  res.ExpenseRows,
		RevenueTotal: res.RevenueTotal,
		RunID:        runID,
		Timestamp:    time.Now().UTC(),
	}
}

func (m *PeriodPublishedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func PeriodPublishedMessageFromJSON(data []byte) (*PeriodPublishedMessage, error) {
	var msg PeriodPublishedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
