package ai

import "time"

// TipContext is what the model knows about the courier when writing a tip.
type TipContext struct {
	Now            time.Time
	Online         bool
	TodayEarnings  string
	TodayOrders    int
	WeekEarnings   string
	BestDay        string
	TotalCompleted int
}

// TipResult captures the structured output from the AI model.
type TipResult struct {
	Title string `json:"title"`
	Tip   string `json:"tip"`
}
