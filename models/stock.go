// Package models defines the data structures used in the application.
package models

// Market identifiers used in stock records and file names.
const (
	MarketA  = "A"
	MarketHK = "HK"
)

// Stock represents one entry of the mini-program stock lists.
type Stock struct {
	Code             string   `json:"code"`
	Name             string   `json:"name"`
	Market           string   `json:"market"`
	CurrentPrice     float64  `json:"current_price"`
	ChangePercent    float64  `json:"change_percent"`
	Volume           int64    `json:"volume"`
	MarketCap        float64  `json:"market_cap"`
	PERatio          float64  `json:"pe_ratio"`
	PBRatio          float64  `json:"pb_ratio"`
	TurnoverRate     float64  `json:"turnover_rate"`
	Amplitude        float64  `json:"amplitude"`
	Industry         string   `json:"industry"`
	LaoLiuScore      int      `json:"laoliu_score"`
	InvestmentAdvice string   `json:"investment_advice"`
	Recommendation   string   `json:"recommendation"`
	AnalysisPoints   []string `json:"analysis_points"`
	RiskWarnings     []string `json:"risk_warnings"`
	DataSource       string   `json:"data_source,omitempty"`
	UpdateTime       string   `json:"update_time"`
}

// StockFile is the layout of stocks_a.json and stocks_hk.json.
type StockFile struct {
	TotalCount int     `json:"total_count"`
	Market     string  `json:"market"`
	UpdateTime string  `json:"update_time"`
	DataSource string  `json:"data_source,omitempty"`
	Error      string  `json:"error,omitempty"`
	Stocks     []Stock `json:"stocks"`
}

// BasicInfo is the identity block of an analysis sample.
type BasicInfo struct {
	Code          string  `json:"code"`
	Name          string  `json:"name"`
	MarketType    string  `json:"market_type"`
	CurrentPrice  float64 `json:"current_price"`
	ChangePercent float64 `json:"change_percent"`
	Volume        int64   `json:"volume"`
	MarketCap     float64 `json:"market_cap"`
	Industry      string  `json:"industry"`
	UpdateTime    string  `json:"update_time"`
}

type ValuationMetrics struct {
	PERatio       float64 `json:"pe_ratio"`
	PBRatio       float64 `json:"pb_ratio"`
	PSRatio       float64 `json:"ps_ratio"`
	DividendYield float64 `json:"dividend_yield"`
}

type LaoLiuEvaluation struct {
	LaoLiuScore           int      `json:"laoliu_score"`
	AnalysisPoints        []string `json:"analysis_points"`
	RiskWarnings          []string `json:"risk_warnings"`
	InvestmentAdvice      string   `json:"investment_advice"`
	ContrarianOpportunity bool     `json:"contrarian_opportunity"`
	VolumePriceSignal     string   `json:"volume_price_signal,omitempty"`
}

type InvestmentSummary struct {
	ComprehensiveScore int     `json:"comprehensive_score"`
	Recommendation     string  `json:"recommendation"`
	Confidence         string  `json:"confidence_level,omitempty"`
	TargetPrice        float64 `json:"target_price"`
	StopLoss           float64 `json:"stop_loss"`
	PositionSuggestion string  `json:"position_suggestion,omitempty"`
}

// AnalysisSample is one detailed analysis shown on the analysis page.
type AnalysisSample struct {
	BasicInfo         BasicInfo         `json:"basic_info"`
	ValuationMetrics  ValuationMetrics  `json:"valuation_metrics"`
	LaoLiuEvaluation  LaoLiuEvaluation  `json:"laoliu_evaluation"`
	InvestmentSummary InvestmentSummary `json:"investment_summary"`
}

type AnalysisFile struct {
	TotalCount      int              `json:"total_count"`
	UpdateTime      string           `json:"update_time"`
	AnalysisResults []AnalysisSample `json:"analysis_results"`
}

// MarketStats counts rising and falling stocks of one market.
type MarketStats struct {
	Total     int     `json:"total"`
	Rising    int     `json:"rising"`
	Falling   int     `json:"falling"`
	AvgChange float64 `json:"avg_change"`
}

type Pick struct {
	Code             string  `json:"code"`
	Name             string  `json:"name"`
	LaoLiuScore      int     `json:"laoliu_score"`
	CurrentPrice     float64 `json:"current_price"`
	ChangePercent    float64 `json:"change_percent"`
	InvestmentAdvice string  `json:"investment_advice"`
}

// Summary is the layout of summary.json.
type Summary struct {
	UpdateTime      string                 `json:"update_time"`
	TotalStocks     int                    `json:"total_stocks"`
	AStocksCount    int                    `json:"a_stocks_count"`
	HKStocksCount   int                    `json:"hk_stocks_count"`
	Markets         map[string]MarketStats `json:"markets"`
	MarketTiming    string                 `json:"market_timing,omitempty"`
	MarketSentiment MarketSentiment        `json:"market_sentiment"`
	TopLaoLiuPicks  []Pick                 `json:"top_laoliu_picks"`
}

// MarketSentiment is the contrarian reading of how many stocks rose.
type MarketSentiment struct {
	Sentiment       string  `json:"sentiment"`
	RiseRatio       float64 `json:"rise_ratio"`
	Advice          string  `json:"advice"`
	OpportunityType string  `json:"opportunity_type"`
	AvgPE           float64 `json:"avg_pe"`
	Wisdom          string  `json:"laoliu_wisdom"`
}

type TimingSignal struct {
	Name        string  `json:"name"`
	Signal      string  `json:"signal"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

// MarketTiming is the layout of market_timing.json.
type MarketTiming struct {
	UpdateTime         string         `json:"update_time"`
	MarketPhase        string         `json:"market_phase"`
	PositionSuggestion float64        `json:"position_suggestion"`
	SentimentScore     float64        `json:"sentiment_score"`
	Recommendations    []string       `json:"recommendations"`
	TimingSignals      []TimingSignal `json:"timing_signals"`
	LaoLiuWisdom       string         `json:"laoliu_wisdom"`
}

type SearchEntry struct {
	Code     string   `json:"code"`
	Name     string   `json:"name"`
	Market   string   `json:"market"`
	Industry string   `json:"industry"`
	Pinyin   string   `json:"pinyin"`
	Keywords []string `json:"keywords"`
}

// SearchIndex is the layout of stock_search_index.json, keyed by stock code.
type SearchIndex struct {
	UpdateTime string                 `json:"update_time"`
	Stocks     map[string]SearchEntry `json:"stocks"`
}
