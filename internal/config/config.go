package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config 全局配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Business BusinessConfig `mapstructure:"business"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	Notification string `mapstructure:"notification"`
	Transaction  string `mapstructure:"transaction"`
}

// JWTConfig 会话令牌配置
// 采用无状态签名令牌，服务端不保存会话表
type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	Issuer      string `mapstructure:"issuer"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// BusinessConfig 银行业务规则常量
type BusinessConfig struct {
	SeedBalance       float64 `mapstructure:"seed_balance"`        // 开户赠送金额
	MinFDAmount       float64 `mapstructure:"min_fd_amount"`       // 定期存款最低金额
	MaxFDAmount       float64 `mapstructure:"max_fd_amount"`       // 定期存款最高金额
	MinFDTenure       int     `mapstructure:"min_fd_tenure"`       // 最短存期（月）
	MaxFDTenure       int     `mapstructure:"max_fd_tenure"`       // 最长存期（月）
	FDPenaltyPoints   float64 `mapstructure:"fd_penalty_points"`   // 提前支取罚息（年利率减点）
	MaxAmountPerOp    float64 `mapstructure:"max_amount_per_op"`   // 单笔存取上限
	RateLimitPerMin   int     `mapstructure:"rate_limit_per_min"`  // 每分钟请求上限（按 IP）
	MaxRetryCount     int     `mapstructure:"max_retry_count"`     // 消息发送最大重试次数
	MaturitySweepSecs int     `mapstructure:"maturity_sweep_secs"` // 定期存款到期扫描间隔（秒）
}

var GlobalConfig *Config

// LoadConfig 加载配置文件
func LoadConfig(configPath string) *Config {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("读取配置文件失败: %v", err)
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	GlobalConfig = config
	return config
}
