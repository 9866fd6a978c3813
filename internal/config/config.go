package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Slack    SlackConfig    `yaml:"slack"`
	YouTube  YouTubeConfig  `yaml:"youtube"`
	Twitter  TwitterConfig  `yaml:"twitter"`
	Feed     FeedConfig     `yaml:"feed"`
	Notify   NotifyConfig   `yaml:"notify"`
	LogLevel string         `yaml:"log_level"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// RabbitMQConfig configures the optional notification event fan-out.
// An empty URL disables publishing.
type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

type SlackConfig struct {
	BotToken string `yaml:"bot_token"`
	AppToken string `yaml:"app_token"`
	Channel  string `yaml:"channel"`
}

type YouTubeConfig struct {
	APIKey string `yaml:"api_key"`
}

// TwitterConfig configures the social mention scan. An empty bearer
// token disables the scan entirely.
type TwitterConfig struct {
	BearerToken     string `yaml:"bearer_token"`
	MaxResults      int    `yaml:"max_results"`
	ExpansionRounds int    `yaml:"expansion_rounds"`
}

type FeedConfig struct {
	BaseURL     string        `yaml:"base_url"`
	MaxAttempts int           `yaml:"max_attempts"`
	RetryDelay  time.Duration `yaml:"retry_delay"`
	Timeout     time.Duration `yaml:"timeout"`
}

// NotifyConfig holds the notify job's tunables, including the rate
// limit capacities the self-pacing cooldowns are computed from.
type NotifyConfig struct {
	Interval                time.Duration `yaml:"interval"`
	Pacing                  time.Duration `yaml:"pacing"`
	Timezone                string        `yaml:"timezone"`
	MetadataBatchSize       int           `yaml:"metadata_batch_size"`
	YouTubeDailyQuota       int           `yaml:"youtube_daily_quota"`
	TwitterMonthlyTweetCap  int           `yaml:"twitter_monthly_tweet_cap"`
	TwitterRequestsPer15Min int           `yaml:"twitter_requests_per_15min"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the job must never start with.
func (c *Config) Validate() error {
	if c.Slack.Channel == "" {
		return errors.New("slack.channel must be set")
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "streaming_watcher"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "notifications"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "video_notifications"
	}
	if c.Feed.BaseURL == "" {
		c.Feed.BaseURL = "https://www.youtube.com/feeds/videos.xml"
	}
	if c.Feed.MaxAttempts == 0 {
		c.Feed.MaxAttempts = 10
	}
	if c.Feed.RetryDelay == 0 {
		c.Feed.RetryDelay = time.Second
	}
	if c.Feed.Timeout == 0 {
		c.Feed.Timeout = 30 * time.Second
	}
	if c.Twitter.MaxResults == 0 {
		c.Twitter.MaxResults = 100
	}
	if c.Twitter.ExpansionRounds == 0 {
		c.Twitter.ExpansionRounds = 2
	}
	if c.Notify.Interval == 0 {
		c.Notify.Interval = time.Minute
	}
	if c.Notify.Pacing == 0 {
		c.Notify.Pacing = time.Second
	}
	if c.Notify.Timezone == "" {
		c.Notify.Timezone = "Asia/Tokyo"
	}
	if c.Notify.MetadataBatchSize == 0 {
		c.Notify.MetadataBatchSize = 50
	}
	if c.Notify.YouTubeDailyQuota == 0 {
		c.Notify.YouTubeDailyQuota = 10000
	}
	if c.Notify.TwitterMonthlyTweetCap == 0 {
		c.Notify.TwitterMonthlyTweetCap = 500000
	}
	if c.Notify.TwitterRequestsPer15Min == 0 {
		c.Notify.TwitterRequestsPer15Min = 450
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
