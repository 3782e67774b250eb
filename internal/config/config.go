// Package config loads the translator configuration from YAML and the
// environment.
package config

import (
	"fmt"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/ilyakaznacheev/cleanenv"
)

// Backend strategies.
const (
	StrategyBatch      = "batch"
	StrategyGenerative = "generative"
	StrategyLambda     = "lambda"
)

// Config is the root configuration.
// Sources, highest priority first:
//  1. the path passed to Load;
//  2. the CONFIG_PATH environment variable;
//  3. ./local.yaml in the working directory;
//  4. environment variables only.
type Config struct {
	Env     string  `yaml:"env" env:"ENV" env-default:"local"`
	Backend Backend `yaml:"backend"`
	Batch   Batch   `yaml:"batch"`
	Source  Source  `yaml:"source"`
	Product Product `yaml:"product"`
	Output  Output  `yaml:"output"`
}

// Backend configures the translation backend client.
type Backend struct {
	// Strategy translates HTML content; TitleStrategy translates titles.
	// The generative strategy prompts for product titles and is only
	// accepted as TitleStrategy.
	Strategy      string `yaml:"strategy" env:"TRANSLATE_STRATEGY" env-default:"batch"`
	TitleStrategy string `yaml:"title_strategy" env:"TRANSLATE_TITLE_STRATEGY" env-default:"batch"`

	URL            string  `yaml:"url" env:"TRANSLATE_API_URL" env-default:"https://api-translate.daisan.vn/translate/batch"`
	GenerativeURL  string  `yaml:"generative_url" env:"GEMINI_API_URL"`
	GenerativeRate float64 `yaml:"generative_rate" env:"GEMINI_RATE" env-default:"1"`
	LambdaFunction string  `yaml:"lambda_function" env:"TRANSLATOR_FUNCTION"`

	TargetLang string        `yaml:"target_lang" env:"TRANSLATE_TARGET_LANG" env-default:"vi"`
	SourceLang string        `yaml:"source_lang" env:"TRANSLATE_SOURCE_LANG" env-default:"auto"`
	Timeout    time.Duration `yaml:"timeout" env:"TRANSLATE_TIMEOUT" env-default:"60s"`
	MaxRetries int           `yaml:"max_retries" env:"TRANSLATE_MAX_RETRIES" env-default:"2"`
	RetryDelay time.Duration `yaml:"retry_delay" env:"TRANSLATE_RETRY_DELAY" env-default:"2s"`
}

// Batch bounds a scheduled translation run.
type Batch struct {
	Size            int `yaml:"size" env:"TRANSLATE_BATCH_SIZE" env-default:"125"`
	MaxRequestBytes int `yaml:"max_request_bytes" env:"TRANSLATE_MAX_REQUEST_BYTES" env-default:"75000"`
	Concurrency     int `yaml:"concurrency" env:"TRANSLATE_CONCURRENT_BATCHES" env-default:"7"`
}

// Source configures the dataset and product lookup clients.
type Source struct {
	Timeout time.Duration `yaml:"timeout" env:"SOURCE_TIMEOUT" env-default:"30s"`
}

// Product configures the product localization path.
type Product struct {
	LookupURL string `yaml:"lookup_url" env:"PRODUCT_API_URL" env-default:"http://localhost:8000/api/check-multiple-products"`
	Channel   string `yaml:"channel" env:"PRODUCT_CHANNEL" env-default:"default"`
	Locale    string `yaml:"locale" env:"PRODUCT_LOCALE" env-default:"vi_VN"`
}

// Output configures persistence of translated datasets.
type Output struct {
	Enabled       bool   `yaml:"enabled" env:"OUTPUT_ENABLED" env-default:"true"`
	Dir           string `yaml:"dir" env:"OUTPUT_DIR" env-default:"backup_translations"`
	UppercaseTags bool   `yaml:"uppercase_tags" env:"OUTPUT_UPPERCASE_TAGS" env-default:"false"`
}

// MustLoad is Load that panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the configuration by priority:
// 1) explicit path; 2) CONFIG_PATH; 3) ./local.yaml; 4) environment.
func Load(path string) (*Config, error) {
	var cfg Config

	readFile := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file does not exist: %s", p)
		}
		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return &cfg, nil
	}

	if path != "" {
		return readFile(path)
	}

	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return readFile(envPath)
	}

	if _, err := os.Stat("local.yaml"); err == nil {
		return readFile("local.yaml")
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the whole configuration once at startup.
func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c,
		validation.Field(&c.Env, validation.Required),
		validation.Field(&c.Backend),
		validation.Field(&c.Batch),
		validation.Field(&c.Source),
		validation.Field(&c.Product),
		validation.Field(&c.Output),
	); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Validate implements validation.Validatable.
func (b Backend) Validate() error {
	strategies := []any{StrategyBatch, StrategyGenerative, StrategyLambda}
	uses := func(s string) bool { return b.Strategy == s || b.TitleStrategy == s }

	return validation.ValidateStruct(&b,
		validation.Field(&b.Strategy, validation.Required, validation.In(StrategyBatch, StrategyLambda)),
		validation.Field(&b.TitleStrategy, validation.Required, validation.In(strategies...)),
		validation.Field(&b.URL, validation.When(uses(StrategyBatch), validation.Required, is.URL)),
		validation.Field(&b.GenerativeURL, validation.When(uses(StrategyGenerative), validation.Required, is.URL)),
		validation.Field(&b.GenerativeRate, validation.When(uses(StrategyGenerative), validation.Required, validation.Min(0.0).Exclusive())),
		validation.Field(&b.LambdaFunction, validation.When(uses(StrategyLambda), validation.Required)),
		validation.Field(&b.TargetLang, validation.Required),
		validation.Field(&b.SourceLang, validation.Required),
		validation.Field(&b.Timeout, validation.Required, validation.Min(time.Second)),
		validation.Field(&b.MaxRetries, validation.Min(0), validation.Max(10)),
		validation.Field(&b.RetryDelay, validation.Min(time.Duration(0))),
	)
}

// Validate implements validation.Validatable.
func (b Batch) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.Size, validation.Required, validation.Min(1)),
		validation.Field(&b.MaxRequestBytes, validation.Required, validation.Min(1)),
		validation.Field(&b.Concurrency, validation.Required, validation.Min(1)),
	)
}

// Validate implements validation.Validatable.
func (s Source) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Timeout, validation.Required),
	)
}

// Validate implements validation.Validatable.
func (p Product) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.LookupURL, validation.Required, is.URL),
		validation.Field(&p.Channel, validation.Required),
		validation.Field(&p.Locale, validation.Required),
	)
}

// Validate implements validation.Validatable.
func (o Output) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.Dir, validation.When(o.Enabled, validation.Required)),
	)
}
