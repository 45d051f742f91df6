package models

import "time"

// JournalEntry is a single trade record. Symbol, direction, result and
// followed_rules are required by the backend; every other field is optional
// and omitted from the wire when unset.
type JournalEntry struct {
	ID            string `json:"id,omitempty"`
	ProjectID     string `json:"project_id,omitempty"`
	Symbol        string `json:"symbol"`
	Direction     string `json:"direction"`
	Result        string `json:"result"`
	FollowedRules bool   `json:"followed_rules"`

	EntryPrice   *float64 `json:"entry_price,omitempty"`
	ExitPrice    *float64 `json:"exit_price,omitempty"`
	PositionSize *float64 `json:"position_size,omitempty"`
	StopLoss     *float64 `json:"stop_loss,omitempty"`
	TakeProfit   *float64 `json:"take_profit,omitempty"`
	Fees         *float64 `json:"fees,omitempty"`
	PnlAmount    *float64 `json:"pnl_amount,omitempty"`
	PnlPercent   *float64 `json:"pnl_percent,omitempty"`

	Emotions string `json:"emotions,omitempty"`
	Lessons  string `json:"lessons,omitempty"`
	Notes    string `json:"notes,omitempty"`
	Strategy string `json:"strategy,omitempty"`

	TradeDate *time.Time `json:"trade_date,omitempty"`
	CreatedAt time.Time  `json:"created_at,omitempty"`
}

// JournalPage is a paginated journal listing.
type JournalPage struct {
	Items      []JournalEntry `json:"items"`
	Total      int            `json:"total"`
	Page       int            `json:"page"`
	PerPage    int            `json:"per_page"`
	TotalPages int            `json:"total_pages"`
}

// JournalStatistics aggregates scoring the backend computes over a project's
// journal.
type JournalStatistics struct {
	TotalTrades     int     `json:"total_trades"`
	WinRate         float64 `json:"win_rate"`
	RuleAdherence   float64 `json:"rule_adherence"`
	AveragePnl      float64 `json:"average_pnl"`
	BestSymbol      string  `json:"best_symbol"`
	WorstSymbol     string  `json:"worst_symbol"`
	CurrentStreak   int     `json:"current_streak"`
	DominantEmotion string  `json:"dominant_emotion"`
}

// ImportPreview is the backend's dry-run parse of an uploaded CSV.
type ImportPreview struct {
	Rows    []JournalEntry `json:"rows"`
	Valid   int            `json:"valid"`
	Skipped int            `json:"skipped"`
	Errors  []string       `json:"errors"`
}

// ImportResult reports a committed CSV import.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors"`
}
