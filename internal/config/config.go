package config

import (
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config 运行配置，支持 YAML 文件与环境变量覆盖；命令行参数优先
type Config struct {
	Database struct {
		Type   string `yaml:"type" env:"DB_TYPE" env-default:"postgres"`
		Conn   string `yaml:"conn" env:"DB_CONN"`
		Schema string `yaml:"schema" env:"DB_SCHEMA"`
	} `yaml:"database"`

	Output struct {
		Dir     string `yaml:"dir" env:"OUTPUT_DIR" env-default:"./output"`
		Package string `yaml:"package" env:"OUTPUT_PACKAGE" env-default:"models"`
	} `yaml:"output"`

	// Workers 外键分类并发度，0 取 CPU 数
	Workers int `yaml:"workers" env:"WORKERS" env-default:"0"`

	// SampleSize 推测外键时的采样大小
	SampleSize int `yaml:"sample_size" env:"SAMPLE_SIZE" env-default:"1000"`

	// Suggest 是否对无声明外键的库做候选外键推测
	Suggest bool `yaml:"suggest" env:"SUGGEST" env-default:"false"`
}

// Load 读取配置；path 为空时只读环境变量
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, err
		}
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
