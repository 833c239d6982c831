package config

// RetryConfig bounds the generation loops.
type RetryConfig struct {
	// ScenesPerChapter is the number of full validated generations tried
	// per chapter before the scenes stage gives up.
	ScenesPerChapter int `mapstructure:"scenes_per_chapter" yaml:"scenes_per_chapter" validate:"min=1,max=1000"`
	InvalidOutput    int `mapstructure:"invalid_output" yaml:"invalid_output" validate:"min=1,max=1000"`
	EmptyOutput      int `mapstructure:"empty_output" yaml:"empty_output" validate:"min=1,max=1000"`
}

// RateLimitConfig throttles requests to the chat endpoint. Zero
// requests per minute disables the limiter.
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute" yaml:"requests_per_minute" validate:"min=0,max=10000"`
	Burst             int `mapstructure:"burst" yaml:"burst" validate:"min=1,max=1000"`
}

func DefaultRetries() RetryConfig {
	return RetryConfig{
		ScenesPerChapter: 30,
		InvalidOutput:    10,
		EmptyOutput:      10,
	}
}

func DefaultRateLimit() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerMinute: 60,
		Burst:             5,
	}
}
