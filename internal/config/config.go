package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置，启动时构建一次，注入到各组件
type Config struct {
	Env      string
	Port     string
	LogLevel string

	// 出站 HTTP 请求超时
	HTTPTimeout time.Duration

	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string
	OpenAITemperature float64

	TMDBAPIKey       string
	TMDBBaseURL      string
	TMDBImageBaseURL string
	TMDBLanguage     string

	WhatsAppToken         string
	WhatsAppPhoneNumberID string
	WhatsAppAPIURL        string
	WhatsAppAPIVersion    string

	// Webhook 订阅校验口令
	VerifyToken string
}

// Load 从环境变量加载配置（.env 由 main 预先载入）
func Load() *Config {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "3000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_CLIENT_TIMEOUT", "30s")
	v.SetDefault("OPENAI_MODEL", "gpt-3.5-turbo")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("OPENAI_TEMPERATURE", 0.3)
	v.SetDefault("TMDB_BASE_URL", "https://api.themoviedb.org/3")
	v.SetDefault("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p/w500")
	v.SetDefault("TMDB_LANGUAGE", "en-US")
	v.SetDefault("WHATSAPP_API_URL", "https://graph.facebook.com")
	v.SetDefault("WHATSAPP_API_VERSION", "v17.0")

	timeout := v.GetDuration("HTTP_CLIENT_TIMEOUT")
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Config{
		Env:      v.GetString("APP_ENV"),
		Port:     v.GetString("PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),

		HTTPTimeout: timeout,

		OpenAIAPIKey:      v.GetString("OPENAI_API_KEY"),
		OpenAIModel:       v.GetString("OPENAI_MODEL"),
		OpenAIBaseURL:     v.GetString("OPENAI_BASE_URL"),
		OpenAITemperature: v.GetFloat64("OPENAI_TEMPERATURE"),

		TMDBAPIKey:       v.GetString("TMDB_API_KEY"),
		TMDBBaseURL:      v.GetString("TMDB_BASE_URL"),
		TMDBImageBaseURL: v.GetString("TMDB_IMAGE_BASE_URL"),
		TMDBLanguage:     v.GetString("TMDB_LANGUAGE"),

		WhatsAppToken:         v.GetString("WHATSAPP_ACCESS_TOKEN"),
		WhatsAppPhoneNumberID: v.GetString("PHONE_NUMBER_ID"),
		WhatsAppAPIURL:        v.GetString("WHATSAPP_API_URL"),
		WhatsAppAPIVersion:    v.GetString("WHATSAPP_API_VERSION"),

		VerifyToken: v.GetString("VERIFY_TOKEN"),
	}
}

// MissingSecrets 返回未配置的密钥名，仅用于启动告警，不阻止启动
func (c *Config) MissingSecrets() []string {
	secrets := []struct {
		name  string
		value string
	}{
		{"OPENAI_API_KEY", c.OpenAIAPIKey},
		{"TMDB_API_KEY", c.TMDBAPIKey},
		{"WHATSAPP_ACCESS_TOKEN", c.WhatsAppToken},
		{"PHONE_NUMBER_ID", c.WhatsAppPhoneNumberID},
		{"VERIFY_TOKEN", c.VerifyToken},
	}

	var missing []string
	for _, s := range secrets {
		if s.value == "" {
			missing = append(missing, s.name)
		}
	}
	return missing
}

// IsProduction 是否生产环境
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
