package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"citron/internal/config"
	"citron/internal/pkg/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "citron",
	Short: "Citron - outbound services API gateway",
	Long: `Citron is an HTTP gateway over third-party services.
It forwards chat prompts to OpenAI and Gemini, sends contact and
newsletter emails, and renders Markdown documents to PDF.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./configs/config.yaml)")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.citron")
	}

	// 环境变量设置
	viper.SetEnvPrefix("CITRON")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 设置默认值
	setDefaults()

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			fmt.Fprintln(os.Stderr, "No config file found, using defaults and environment variables")
		} else {
			fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
			os.Exit(1)
		}
	}

	// 反序列化到结构体
	cfg = &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to unmarshal config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	log.Debug().Str("config_file", viper.ConfigFileUsed()).Msg("configuration loaded")
}

func setDefaults() {
	// Server
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "150s")

	// AI
	viper.SetDefault("ai.timeout", "120s")
	viper.SetDefault("ai.openai.endpoint", "https://api.openai.com/v1/chat/completions")
	viper.SetDefault("ai.openai.default_model", "gpt-4-turbo-preview")
	viper.SetDefault("ai.gemini.endpoint", "https://generativelanguage.googleapis.com/v1beta/models/{model}:generateContent")
	viper.SetDefault("ai.gemini.default_model", "gemini-1.5-flash-latest")

	// Mail
	viper.SetDefault("mail.port", 587)
	viper.SetDefault("mail.newsletter.company_name", "Votre Super Entreprise")
	viper.SetDefault("mail.newsletter.unsubscribe_link", "https://example.com/unsubscribe")

	// Upload
	viper.SetDefault("upload.max_size", 16*1024*1024)
	viper.SetDefault("upload.allowed_extensions",
		[]string{"txt", "pdf", "png", "jpg", "jpeg", "gif", "docx", "md"})

	// Rate limiting
	viper.SetDefault("ratelimit.enabled", true)

	// CORS
	viper.SetDefault("cors.origins", []string{"*"})

	// Log
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.time_format", "RFC3339")

	// MongoDB（对话日志，默认关闭）
	viper.SetDefault("mongo.database", "citron")
	viper.SetDefault("mongo.max_pool_size", 100)
	viper.SetDefault("mongo.min_pool_size", 10)
}

// GetConfig returns the global configuration
func GetConfig() *config.Config {
	return cfg
}
