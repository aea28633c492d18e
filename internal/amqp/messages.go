package amqp

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"lucas/internal/core"
)

// MonthlyReportMessage carries the computed close-of-month tuple to the
// external report renderer. The core does not know the document format the
// renderer produces.
type MonthlyReportMessage struct {
	PeriodLabel   string          `json:"period_label"`
	Budget        decimal.Decimal `json:"budget"`
	TotalSpending decimal.Decimal `json:"total_spending"`
	Categories    []core.Category `json:"categories"`
	Timestamp     time.Time       `json:"timestamp"`
}

func NewMonthlyReportMessage(label string, budget, total decimal.Decimal, cats []core.Category) *MonthlyReportMessage {
	return &MonthlyReportMessage{
		PeriodLabel:   label,
		Budget:        budget,
		TotalSpending: total,
		Categories:    cats,
		Timestamp:     time.Now(),
	}
}

// AnnualReportMessage carries the archived period snapshots for the annual
// rollup document.
type AnnualReportMessage struct {
	Year      int                   `json:"year"`
	Periods   []core.PeriodSnapshot `json:"periods"`
	Timestamp time.Time             `json:"timestamp"`
}

func NewAnnualReportMessage(year int, periods []core.PeriodSnapshot) *AnnualReportMessage {
	return &AnnualReportMessage{
		Year:      year,
		Periods:   periods,
		Timestamp: time.Now(),
	}
}

func (m *MonthlyReportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func (m *AnnualReportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MonthlyReportMessageFromJSON decodes a monthly export message. The
// consumer lives in the external renderer; this side of the wire contract
// is kept here so producer and decoder stay in one place.
func MonthlyReportMessageFromJSON(data []byte) (*MonthlyReportMessage, error) {
	var msg MonthlyReportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// AnnualReportMessageFromJSON decodes an annual export message.
func AnnualReportMessageFromJSON(data []byte) (*AnnualReportMessage, error) {
	var msg AnnualReportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
