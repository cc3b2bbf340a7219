package utils

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	DefaultDashScopeURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

	PlainPrompt     = "请准确识别图片中的所有手写文字内容，保持原有的换行和标点符号，不要添加任何解释或分析，只输出识别到的文字内容。"
	NotebookPrompt  = "这是老刘的投资笔记手写稿。请仔细逐字识别图片中的所有手写中文内容，包括：1)股票投资相关术语 2)人名和机构名 3)数字和日期 4)标点符号。请按原文布局输出，不要遗漏任何文字。"
	ProviderGemini  = "gemini"
	ProviderDash    = "dashscope"
	ProviderAll     = "all"
	defaultCronSpec = "0 30 18 * * *"
)

type BrowserConfig struct {
	Headless bool `yaml:"headless"`
	Debug    bool `yaml:"debug"`
}

type ScraperConfig struct {
	Timeout  int           `yaml:"timeout"`
	Retries  int           `yaml:"retries"`
	Delay    int           `yaml:"delay"`
	Enabled  bool          `yaml:"enabled"`
	QuoteURL string        `yaml:"quoteURL"`
	Browser  BrowserConfig `yaml:"browser"`
}

type OCRConfig struct {
	Provider           string `yaml:"provider"`
	APIKey             string `yaml:"apiKey"`
	BaseURL            string `yaml:"baseURL"`
	VLMaxModel         string `yaml:"vlMaxModel"`
	VLOCRModel         string `yaml:"vlOCRModel"`
	GeminiAPIKey       string `yaml:"geminiAPIKey"`
	GeminiModel        string `yaml:"geminiModel"`
	Prompt             string `yaml:"prompt"`
	NotebookPrompt     string `yaml:"notebookPrompt"`
	MaxTokens          int    `yaml:"maxTokens"`
	Timeout            int    `yaml:"timeout"`
	Delay              int    `yaml:"delay"`
	Retries            int    `yaml:"retries"`
	CheckpointInterval int    `yaml:"checkpointInterval"`
	DBPath             string `yaml:"dbPath"`
	OutputDir          string `yaml:"outputDir"`
}

type MarketConfig struct {
	Live       bool     `yaml:"live"`
	ALimit     int      `yaml:"aLimit"`
	HKLimit    int      `yaml:"hkLimit"`
	Delay      float64  `yaml:"delay"`
	Timeout    int      `yaml:"timeout"`
	Codes      []string `yaml:"codes"`
	CodesFile  string   `yaml:"codesFile"`
	SinaURL    string   `yaml:"sinaURL"`
	ListURL    string   `yaml:"listURL"`
	ProfileURL string   `yaml:"profileURL"`
}

type ExportConfig struct {
	OutputDirs  []string `yaml:"outputDirs"`
	TopAnalysis int      `yaml:"topAnalysis"`
	TopPicks    int      `yaml:"topPicks"`
	XLSXPath    string   `yaml:"xlsxPath"`
}

type ServerConfig struct {
	Addr    string `yaml:"addr"`
	DataDir string `yaml:"dataDir"`
}

type ScheduleConfig struct {
	Spec string `yaml:"spec"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
}

type Config struct {
	OCR      OCRConfig      `yaml:"ocr"`
	Market   MarketConfig   `yaml:"market"`
	Scraper  ScraperConfig  `yaml:"scraper"`
	Export   ExportConfig   `yaml:"export"`
	Server   ServerConfig   `yaml:"server"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DefaultConfig returns a configuration that works without a config file,
// apart from the OCR API key.
func DefaultConfig() *Config {
	return &Config{
		OCR: OCRConfig{
			Provider:           ProviderDash,
			BaseURL:            DefaultDashScopeURL,
			VLMaxModel:         "qwen-vl-max-latest",
			VLOCRModel:         "qwen-vl-ocr-latest",
			GeminiModel:        "gemini-2.5-flash",
			Prompt:             PlainPrompt,
			NotebookPrompt:     NotebookPrompt,
			MaxTokens:          4096,
			Timeout:            120,
			Delay:              1,
			Retries:            3,
			CheckpointInterval: 5,
			DBPath:             "data/ocr.db",
			OutputDir:          "output",
		},
		Market: MarketConfig{
			ALimit:     5000,
			HKLimit:    2000,
			Delay:      0.2,
			Timeout:    10,
			SinaURL:    "https://hq.sinajs.cn/list=",
			ListURL:    "https://push2.eastmoney.com/api/qt/clist/get",
			ProfileURL: "https://vip.stock.finance.sina.com.cn/corp/go.php/vCI_CorpInfo/stockid/%s.phtml",
		},
		Scraper: ScraperConfig{
			Timeout:  30,
			Retries:  1,
			Delay:    2,
			QuoteURL: "https://quote.eastmoney.com/%s.html",
			Browser:  BrowserConfig{Headless: true},
		},
		Export: ExportConfig{
			OutputDirs:  []string{"static_data", "miniprogram"},
			TopAnalysis: 50,
			TopPicks:    20,
			XLSXPath:    "output/laoliu_picks.xlsx",
		},
		Server:   ServerConfig{Addr: ":8080", DataDir: "static_data"},
		Schedule: ScheduleConfig{Spec: defaultCronSpec},
		Logging:  LoggingConfig{Level: "info", Dir: "logs"},
	}
}

// LoadConfig reads path on top of the defaults and applies environment
// overrides.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(file, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	config.ApplyEnvOverrides()
	return config, nil
}

// LoadConfigOrDefault is LoadConfig that falls back to the defaults when the
// file does not exist.
func LoadConfigOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		config := DefaultConfig()
		config.ApplyEnvOverrides()
		return config, nil
	}
	return LoadConfig(path)
}

func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("DASHSCOPE_API_KEY"); v != "" {
		c.OCR.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.OCR.GeminiAPIKey = v
	}
	if v := os.Getenv("INVESTNOTES_OUTPUT_DIR"); v != "" {
		c.Export.OutputDirs = strings.Split(v, ",")
	}
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks the fields every command relies on. OCR credentials are
// checked separately by ValidateOCR since only the OCR commands need them.
func (c *Config) Validate() error {
	if c.OCR.Timeout <= 0 {
		return fmt.Errorf("invalid ocr timeout value")
	}
	if c.OCR.Retries <= 0 {
		return fmt.Errorf("invalid ocr retries value")
	}
	if c.Market.ALimit < 0 || c.Market.HKLimit < 0 {
		return fmt.Errorf("invalid market limits")
	}
	if c.Export.TopAnalysis < 0 || c.Export.TopPicks < 0 {
		return fmt.Errorf("invalid export top counts")
	}
	if len(c.Export.OutputDirs) == 0 {
		return fmt.Errorf("no export output directories")
	}
	if c.Scraper.Timeout <= 0 {
		return fmt.Errorf("invalid scraper timeout value")
	}
	return nil
}

func (c *Config) ValidateOCR() error {
	switch c.OCR.Provider {
	case ProviderDash:
		if c.OCR.APIKey == "" {
			return fmt.Errorf("dashscope provider needs ocr.apiKey or DASHSCOPE_API_KEY")
		}
	case ProviderGemini:
		if c.OCR.GeminiAPIKey == "" {
			return fmt.Errorf("gemini provider needs ocr.geminiAPIKey or GEMINI_API_KEY")
		}
	case ProviderAll:
		if c.OCR.APIKey == "" && c.OCR.GeminiAPIKey == "" {
			return fmt.Errorf("no OCR API key configured")
		}
	default:
		return fmt.Errorf("unknown ocr provider %q", c.OCR.Provider)
	}
	return nil
}
