package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 应用配置
type Config struct {
	Server    ServerConfig      `yaml:"server"`
	Log       LogConfig         `yaml:"log"`
	Redis     RedisConfig       `yaml:"redis"`
	History   HistoryConfig     `yaml:"history"`
	Cache     CacheConfig       `yaml:"cache"`
	Assistant AssistantConfig   `yaml:"assistant"`
	Providers ProvidersConfig   `yaml:"providers"`
	Voice     VoiceConfig       `yaml:"voice"`
	Apps      map[string]string `yaml:"apps"` // 追加到白名单的应用：名称 -> 可执行文件
	Discovery DiscoveryConfig   `yaml:"discovery"`
	CORS      CORSConfig        `yaml:"cors"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// HistoryConfig 命令历史配置
type HistoryConfig struct {
	Limit int           `yaml:"limit"`
	TTL   time.Duration `yaml:"ttl"`
}

// CacheConfig 短时缓存配置
type CacheConfig struct {
	SystemInfoTTL time.Duration `yaml:"systemInfoTtl"`
	NetworkTTL    time.Duration `yaml:"networkTtl"`
}

// AssistantConfig 助手行为配置
type AssistantConfig struct {
	Name        string   `yaml:"name"`
	User        string   `yaml:"user"`
	SafeFolders []string `yaml:"safeFolders"` // 相对用户主目录
	MaxFiles    int      `yaml:"maxFiles"`
	ProbeAddr   string   `yaml:"probeAddr"`
}

// ProvidersConfig 外部服务配置
type ProvidersConfig struct {
	Timeout        time.Duration    `yaml:"timeout"`        // 单个服务超时
	FallbackBudget time.Duration    `yaml:"fallbackBudget"` // 整个兜底链路的总时限
	Proxy          string           `yaml:"proxy"`          // SOCKS5 代理地址，可选
	OpenAI         OpenAIConfig     `yaml:"openai"`
	DashScope      DashScopeConfig  `yaml:"dashscope"`
	DuckDuckGo     DuckDuckGoConfig `yaml:"duckduckgo"`
	YouTube        YouTubeConfig    `yaml:"youtube"`
	Weather        WeatherConfig    `yaml:"weather"`
}

// OpenAIConfig OpenAI 配置
type OpenAIConfig struct {
	Enabled   bool   `yaml:"enabled"`
	APIKey    string `yaml:"apiKey"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"baseUrl"`
	MaxTokens int64  `yaml:"maxTokens"`
}

// DashScopeConfig 通义千问配置
type DashScopeConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseUrl"`
}

// DuckDuckGoConfig DuckDuckGo 搜索配置
type DuckDuckGoConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"baseUrl"`
	HTMLURL string `yaml:"htmlUrl"`
}

// YouTubeConfig YouTube Data API 配置
type YouTubeConfig struct {
	Enabled    bool   `yaml:"enabled"`
	APIKey     string `yaml:"apiKey"`
	BaseURL    string `yaml:"baseUrl"`
	MaxResults int    `yaml:"maxResults"`
}

// WeatherConfig OpenWeatherMap 配置
type WeatherConfig struct {
	APIKey      string `yaml:"apiKey"`
	BaseURL     string `yaml:"baseUrl"`
	DefaultCity string `yaml:"defaultCity"`
	Units       string `yaml:"units"` // metric, imperial
}

// VoiceConfig 语音配置
type VoiceConfig struct {
	TTS         TTSConfig `yaml:"tts"`
	STT         STTConfig `yaml:"stt"`
	AudioSource []string  `yaml:"audioSource"` // 输出 16kHz 单声道 PCM 的录音命令
}

// TTSConfig 语音合成配置
type TTSConfig struct {
	Enabled bool    `yaml:"enabled"`
	Engine  string  `yaml:"engine"` // auto, espeak, say, sapi, none
	Rate    int     `yaml:"rate"`   // 每分钟词数
	Volume  float64 `yaml:"volume"` // 0.0 - 1.0
	Voice   string  `yaml:"voice"`
}

// STTConfig 语音识别配置（Vosk server）
type STTConfig struct {
	URL        string `yaml:"url"`
	SampleRate int    `yaml:"sampleRate"`
}

// DiscoveryConfig 局域网发现配置
type DiscoveryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Instance string `yaml:"instance"`
	Service  string `yaml:"service"`
	Domain   string `yaml:"domain"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	ExtraOrigins []string `yaml:"extraOrigins"`
}

// LoadConfig 加载配置文件，${VAR} 形式的值从环境变量展开
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault 配置文件不存在时使用默认配置
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse 解析 YAML 配置
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 默认配置
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.Name == "" {
		c.Server.Name = "MAC Assistant API"
	}
	if c.Server.Version == "" {
		c.Server.Version = "1.0.0"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.History.Limit == 0 {
		c.History.Limit = 50
	}
	if c.History.TTL == 0 {
		c.History.TTL = 24 * time.Hour
	}
	if c.Cache.SystemInfoTTL == 0 {
		c.Cache.SystemInfoTTL = 30 * time.Second
	}
	if c.Cache.NetworkTTL == 0 {
		c.Cache.NetworkTTL = 15 * time.Second
	}
	if c.Assistant.Name == "" {
		c.Assistant.Name = "MAC"
	}
	if len(c.Assistant.SafeFolders) == 0 {
		c.Assistant.SafeFolders = []string{"Desktop", "Documents"}
	}
	if c.Assistant.MaxFiles == 0 {
		c.Assistant.MaxFiles = 20
	}
	if c.Assistant.ProbeAddr == "" {
		c.Assistant.ProbeAddr = "8.8.8.8:53"
	}

	p := &c.Providers
	if p.Timeout == 0 {
		p.Timeout = 8 * time.Second
	}
	if p.FallbackBudget == 0 {
		p.FallbackBudget = 12 * time.Second
	}
	if p.OpenAI.Model == "" {
		p.OpenAI.Model = "gpt-4o-mini"
	}
	if p.OpenAI.MaxTokens == 0 {
		p.OpenAI.MaxTokens = 150
	}
	if p.DashScope.Model == "" {
		p.DashScope.Model = "qwen-turbo"
	}
	if p.DashScope.BaseURL == "" {
		p.DashScope.BaseURL = "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation"
	}
	if p.DuckDuckGo.BaseURL == "" {
		p.DuckDuckGo.BaseURL = "https://api.duckduckgo.com/"
	}
	if p.DuckDuckGo.HTMLURL == "" {
		p.DuckDuckGo.HTMLURL = "https://html.duckduckgo.com/html/"
	}
	if p.YouTube.BaseURL == "" {
		p.YouTube.BaseURL = "https://www.googleapis.com/youtube/v3/search"
	}
	if p.YouTube.MaxResults == 0 {
		p.YouTube.MaxResults = 3
	}
	if p.Weather.BaseURL == "" {
		p.Weather.BaseURL = "https://api.openweathermap.org/data/2.5/weather"
	}
	if p.Weather.DefaultCity == "" {
		p.Weather.DefaultCity = "New York"
	}
	if p.Weather.Units == "" {
		p.Weather.Units = "metric"
	}

	v := &c.Voice
	if v.TTS.Engine == "" {
		v.TTS.Engine = "auto"
	}
	if v.TTS.Rate == 0 {
		v.TTS.Rate = 180
	}
	if v.TTS.Volume == 0 {
		v.TTS.Volume = 0.9
	}
	if v.STT.URL == "" {
		v.STT.URL = "ws://localhost:2700"
	}
	if v.STT.SampleRate == 0 {
		v.STT.SampleRate = 16000
	}
	if len(v.AudioSource) == 0 {
		v.AudioSource = []string{"arecord", "-q", "-f", "S16_LE", "-r", "16000", "-c", "1", "-t", "raw"}
	}

	if c.Discovery.Instance == "" {
		c.Discovery.Instance = "MAC Assistant"
	}
	if c.Discovery.Service == "" {
		c.Discovery.Service = "_mac-assistant._tcp"
	}
	if c.Discovery.Domain == "" {
		c.Discovery.Domain = "local."
	}
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port 非法: %d", c.Server.Port)
	}
	if c.Assistant.MaxFiles < 0 {
		return fmt.Errorf("assistant.maxFiles 不能为负数")
	}
	if c.Providers.Timeout < 0 || c.Providers.FallbackBudget < 0 {
		return fmt.Errorf("providers 超时配置不能为负数")
	}
	if c.Voice.TTS.Volume < 0 || c.Voice.TTS.Volume > 1 {
		return fmt.Errorf("voice.tts.volume 必须在 0 到 1 之间: %v", c.Voice.TTS.Volume)
	}
	if c.Providers.YouTube.MaxResults < 0 || c.Providers.YouTube.MaxResults > 10 {
		return fmt.Errorf("providers.youtube.maxResults 必须在 0 到 10 之间")
	}
	for name, exe := range c.Apps {
		if name == "" || exe == "" {
			return fmt.Errorf("apps 白名单条目不能为空")
		}
	}
	return nil
}
