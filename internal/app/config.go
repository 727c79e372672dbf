package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type OTX struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	PageLimit      int    `yaml:"page_limit"`
	TimeoutSecond  int    `yaml:"timeout_second"`
	RetryTimes     int    `yaml:"retry_times"`
	RetryBackoffMS int    `yaml:"retry_backoff_ms"`
}

type CRITs struct {
	ProdURL       string `yaml:"prod_url"`
	DevURL        string `yaml:"dev_url"`
	Username      string `yaml:"username"`
	ProdAPIKey    string `yaml:"prod_api_key"`
	DevAPIKey     string `yaml:"dev_api_key"`
	Source        string `yaml:"source"`
	Verify        bool   `yaml:"verify"`
	TimeoutSecond int    `yaml:"timeout_second"`
}

type Neo4j struct {
	URI                  string `yaml:"uri"`
	Username             string `yaml:"username"`
	Password             string `yaml:"password"`
	Database             string `yaml:"database"`
	MaxConnectionPool    int    `yaml:"max_connections"`
	ConnectTimeoutSecond int    `yaml:"connect_timeout_second"`
}

// Store 选择情报库后端：crits（REST）或 neo4j（图库）。
type Store struct {
	Backend string `yaml:"backend"`
	CRITs   CRITs  `yaml:"crits"`
	Neo4j   Neo4j  `yaml:"neo4j"`
}

type Sync struct {
	MaxAgeDays int    `yaml:"max_age_days"`
	JobCron    string `yaml:"job_cron"`
	RunOnStart bool   `yaml:"run_on_start"`
}

type Vocabulary struct {
	Path string `yaml:"path"`
}

type HTTP struct {
	Listen string `yaml:"listen"`
}

type Config struct {
	OTX        OTX        `yaml:"otx"`
	Store      Store      `yaml:"store"`
	Sync       Sync       `yaml:"sync"`
	Vocabulary Vocabulary `yaml:"vocabulary"`
	HTTP       HTTP       `yaml:"http"`
}

// LoadConfig 从文件加载配置。
func LoadConfig(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("读取配置失败: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("解析配置失败: %w", err)
	}
	return cfg, nil
}
