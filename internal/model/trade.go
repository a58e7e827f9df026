package model

// TradeSide distinguishes journal entries.
type TradeSide string

const (
	TradeBuy  TradeSide = "buy"
	TradeSell TradeSide = "sell"
)

// TradeRecord is one executed trade, as appended to the trade journal.
// Amounts are scaled fixed-point values rendered as decimal strings so the
// journal stays readable and re-parseable without precision loss.
type TradeRecord struct {
	Timestamp  string    `json:"timestamp"`
	MarketID   string    `json:"market_id"`
	User       string    `json:"user"`
	Side       TradeSide `json:"side"`
	Outcome    string    `json:"outcome"`
	Amount     string    `json:"amount"`
	Collateral string    `json:"collateral"`
	PriceYes   string    `json:"price_yes"`
}
