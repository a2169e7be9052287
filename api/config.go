package api

// Config for the JSON HTTP API.
type Config struct {
	Listen             string   `mapstructure:"listen"`
	CorsAllowedOrigins []string `mapstructure:"cors-allowed-origins"`
	// RateLimit is the number of requests per second allowed for a single remote host.
	// Zero disables rate limiting.
	RateLimit float64 `mapstructure:"rate-limit"`
	RateBurst int     `mapstructure:"rate-burst"`
	// CacheSize is the number of decoded polls kept in memory.
	CacheSize int `mapstructure:"cache-size"`
}

// DefaultConfig returns the default API config.
func DefaultConfig() Config {
	return Config{
		Listen:             "127.0.0.1:9070",
		CorsAllowedOrigins: []string{"*"},
		RateLimit:          50,
		RateBurst:          100,
		CacheSize:          1024,
	}
}
