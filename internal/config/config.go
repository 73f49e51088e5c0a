package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PlaceholderAPIKey 是配置模板里的占位密钥
// 密钥为空或等于占位值时，远程分类被视为未配置，全部流量走本地规则
const PlaceholderAPIKey = "your_gemini_api_key_here"

// TwitterConfig 数据源配置
type TwitterConfig struct {
	Hashtags    []string `yaml:"hashtags"`
	MaxTweets   int      `yaml:"max_tweets"`
	DaysBack    int      `yaml:"days_back"`
	BearerToken string   `yaml:"-"` // 来自环境变量 TWITTER_BEARER_TOKEN
}

// AIConfig 远程分类器配置
type AIConfig struct {
	APIKey  string `yaml:"-"` // 来自环境变量 GEMINI_API_KEY
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"` // 留空使用官方端点
}

// Configured 判断远程分类是否可用
func (a AIConfig) Configured() bool {
	return a.APIKey != "" && a.APIKey != PlaceholderAPIKey
}

// StorageConfig 导出与批处理配置
type StorageConfig struct {
	CSVPath   string `yaml:"csv_path"`
	BatchSize int    `yaml:"batch_size"`
}

// NotifyConfig 推送配置
type NotifyConfig struct {
	FeishuWebhook string `yaml:"-"` // 来自环境变量 FEISHU_WEBHOOK
}

// DatabaseConfig 持久化配置，DSN 为空时跳过数据库
type DatabaseConfig struct {
	DSN string `yaml:"-"` // 来自环境变量 DATABASE_DSN
}

// Config 汇总所有配置项，核心流程只读不写
type Config struct {
	Twitter  TwitterConfig  `yaml:"twitter"`
	AI       AIConfig       `yaml:"grok"` // 沿用老配置文件的段名
	Storage  StorageConfig  `yaml:"storage"`
	Notify   NotifyConfig   `yaml:"-"`
	Database DatabaseConfig `yaml:"-"`
}

// Default 返回配置文件缺失时的缺省配置
func Default() *Config {
	return &Config{
		Twitter: TwitterConfig{
			Hashtags:  []string{"#airdrop", "#launch", "#raising", "#seed", "#preseed", "#funding"},
			MaxTweets: 100,
			DaysBack:  1,
		},
		AI: AIConfig{
			Model: "gemini-2.5-flash-lite",
		},
		Storage: StorageConfig{
			CSVPath:   "data/results",
			BatchSize: 50,
		},
	}
}

// Load 读取 YAML 配置并叠加环境变量里的密钥
// 配置文件不存在时静默回退到缺省配置 (和老版本行为一致)
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}

	// 缺省值兜底：文件里写了 0 或漏写都回到缺省
	if cfg.Twitter.MaxTweets <= 0 {
		cfg.Twitter.MaxTweets = 100
	}
	if cfg.Storage.BatchSize <= 0 {
		cfg.Storage.BatchSize = 50
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = "gemini-2.5-flash-lite"
	}
	if cfg.Storage.CSVPath == "" {
		cfg.Storage.CSVPath = "data/results"
	}

	// 密钥只从环境变量读取，不进配置文件
	cfg.AI.APIKey = os.Getenv("GEMINI_API_KEY")
	cfg.Twitter.BearerToken = os.Getenv("TWITTER_BEARER_TOKEN")
	cfg.Notify.FeishuWebhook = os.Getenv("FEISHU_WEBHOOK")
	cfg.Database.DSN = os.Getenv("DATABASE_DSN")

	return cfg, nil
}
