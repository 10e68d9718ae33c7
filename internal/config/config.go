package config

import (
	"errors"
	"time"
)

// Config 应用配置根结构
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	AI        AIConfig        `mapstructure:"ai"`
	Mail      MailConfig      `mapstructure:"mail"`
	PDF       PDFConfig       `mapstructure:"pdf"`
	Upload    UploadConfig    `mapstructure:"upload"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Log       LogConfig       `mapstructure:"log"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Storage   StorageConfig   `mapstructure:"storage"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// AIConfig AI 网关配置（OpenAI 与 Gemini 两个上游）
type AIConfig struct {
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
	Gemini  GeminiConfig  `mapstructure:"gemini"`
	Timeout time.Duration `mapstructure:"timeout"` // 单次上游调用超时
}

// OpenAIConfig OpenAI 上游配置
type OpenAIConfig struct {
	APIKey       string `mapstructure:"api_key"`
	Endpoint     string `mapstructure:"endpoint"`
	DefaultModel string `mapstructure:"default_model"`
}

// GeminiConfig Gemini 上游配置
// Endpoint 是模板，包含 {model} 占位符，API key 以查询参数传递
type GeminiConfig struct {
	APIKey       string `mapstructure:"api_key"`
	Endpoint     string `mapstructure:"endpoint"`
	DefaultModel string `mapstructure:"default_model"`
}

// MailConfig SMTP 邮件配置
type MailConfig struct {
	Host          string           `mapstructure:"host"`
	Port          int              `mapstructure:"port"`
	Username      string           `mapstructure:"username"`
	Password      string           `mapstructure:"password"`
	UseSSL        bool             `mapstructure:"use_ssl"`
	DefaultSender string           `mapstructure:"default_sender"`
	ProjectEmail  string           `mapstructure:"project_email"` // 联系表单的收件地址
	Newsletter    NewsletterConfig `mapstructure:"newsletter"`
}

// NewsletterConfig 邮件模板默认变量
type NewsletterConfig struct {
	CompanyName     string `mapstructure:"company_name"`
	UnsubscribeLink string `mapstructure:"unsubscribe_link"`
}

// PDFConfig PDF 渲染配置
type PDFConfig struct {
	BinPath string `mapstructure:"bin_path"` // wkhtmltopdf 可执行文件路径（为空时使用 PATH）
}

// UploadConfig 文件上传配置
type UploadConfig struct {
	MaxSize           int64    `mapstructure:"max_size"` // 单位字节
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

// AllowedExtension 检查扩展名是否在允许列表内（不含点，忽略大小写）
func (c *UploadConfig) AllowedExtension(ext string) bool {
	for _, e := range c.AllowedExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	Origins []string `mapstructure:"origins"`
}

// LogConfig 日志配置 (Zerolog)
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	TimeFormat string `mapstructure:"time_format"`
}

// MongoConfig MongoDB 配置（对话日志，可选）
type MongoConfig struct {
	URI         string `mapstructure:"uri"`
	Database    string `mapstructure:"database"`
	MaxPoolSize uint64 `mapstructure:"max_pool_size"`
	MinPoolSize uint64 `mapstructure:"min_pool_size"`
}

// RedisConfig Redis 配置（限流存储，可选）
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// StorageConfig 附件归档存储配置（可选）
type StorageConfig struct {
	Type  string       `mapstructure:"type"` // local, oss
	Local *LocalConfig `mapstructure:"local,omitempty"`
	OSS   *OSSConfig   `mapstructure:"oss,omitempty"`
}

// LocalConfig 本地文件系统配置
type LocalConfig struct {
	BasePath string `mapstructure:"base_path"` // 基础路径
	BaseURL  string `mapstructure:"base_url"`  // 基础URL（用于生成访问URL）
}

// OSSConfig 阿里云OSS配置
type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`          // OSS端点
	Bucket          string `mapstructure:"bucket"`            // Bucket名称
	AccessKeyID     string `mapstructure:"access_key_id"`     // AccessKey ID
	AccessKeySecret string `mapstructure:"access_key_secret"` // AccessKey Secret
}

// Validate 验证配置有效性
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New("invalid server port")
	}

	validModes := map[string]bool{"debug": true, "release": true, "test": true}
	if !validModes[c.Server.Mode] {
		return errors.New("invalid server mode, must be debug/release/test")
	}

	if c.AI.Timeout <= 0 {
		return errors.New("invalid ai timeout")
	}

	if c.Upload.MaxSize <= 0 {
		return errors.New("invalid upload max size")
	}

	return nil
}
