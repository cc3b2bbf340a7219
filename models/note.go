package models

// PageResult holds the OCR output of one notebook photo.
type PageResult struct {
	Filename   string            `json:"filename"`
	PageNum    int               `json:"page_num"`
	Results    map[string]string `json:"results"`
	Methods    []string          `json:"methods,omitempty"`
	BestMethod string            `json:"best_method"`
	BestText   string            `json:"best_text"`
}

// Note is the structured reading of one transcribed page.
type Note struct {
	PageNumber           int      `json:"page_number"`
	SourceFile           string   `json:"source_file"`
	RawText              string   `json:"raw_text"`
	InvestmentViews      []string `json:"investment_views"`
	InvestmentStrategies []string `json:"investment_strategies"`
	MentionedStocks      []string `json:"mentioned_stocks"`
	MarketAnalysis       []string `json:"market_analysis"`
	TimingAdvice         []string `json:"timing_advice"`
	FinancialMetrics     []string `json:"financial_metrics"`
	KeyQuotes            []string `json:"key_quotes"`
	TechnicalAnalysis    []string `json:"technical_analysis"`
	RiskWarnings         []string `json:"risk_warnings"`
}

// Condition is a numeric constraint found in a stock selection rule.
type Condition struct {
	Indicator string  `json:"indicator"`
	Operator  string  `json:"operator"`
	Value     float64 `json:"value"`
}

// Rule is an investment rule extracted from note text. Which fields are set
// depends on Type.
type Rule struct {
	Type       string      `json:"type"`
	Content    string      `json:"content"`
	Conditions []Condition `json:"conditions,omitempty"`
	Signal     string      `json:"signal,omitempty"`
	Condition  string      `json:"condition,omitempty"`
	Position   float64     `json:"position,omitempty"`
	Action     string      `json:"action,omitempty"`
	Confidence float64     `json:"confidence"`
}

// RuleSet groups extracted rules by category.
type RuleSet struct {
	SelectionRules []Rule `json:"selection_rules"`
	TimingRules    []Rule `json:"timing_rules"`
	PositionRules  []Rule `json:"position_rules"`
	RiskRules      []Rule `json:"risk_rules"`
	Insights       []Rule `json:"insights"`
}

type Quote struct {
	ID         string   `json:"id"`
	Content    string   `json:"content"`
	Author     string   `json:"author"`
	SourcePage int      `json:"source_page"`
	Tags       []string `json:"tags"`
	Category   string   `json:"category"`
}

type QuoteCategory struct {
	Name        string  `json:"name"`
	Icon        string  `json:"icon"`
	Description string  `json:"description"`
	Count       int     `json:"count"`
	Quotes      []Quote `json:"quotes"`
}

type DailyRotation struct {
	CurrentIndex   int    `json:"current_index"`
	UpdateInterval int    `json:"update_interval"`
	LastUpdate     string `json:"last_update"`
}

// QuoteBook is the layout of laoliu_quotes.json.
type QuoteBook struct {
	Version       string                   `json:"version"`
	LastUpdated   string                   `json:"last_updated"`
	TotalQuotes   int                      `json:"total_quotes"`
	DailyRotation DailyRotation            `json:"daily_rotation"`
	Categories    map[string]QuoteCategory `json:"categories"`
}
