package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Timeout:            30000, // 30 seconds
		Concurrency:        0,
		RateLimit:          0,
		FollowRedirects:    boolPtr(true),
		MaxRedirects:       10,
		ValidateSSL:        boolPtr(true),
		Proxy:              "",
		ProxyPrefix:        "https://corsproxy.io/?",
		Headers:            nil,
		ArrayStrategy:      ArrayPositional,
		AuthPrecedence:     AuthEnvironment,
		GlobalSubstitution: boolPtr(false),
		Baseline:           "",
		EnvFile:            ".env",
		Output:             "console",
		LogFormat:          "text",
		Verbose:            boolPtr(false),
		NoColor:            boolPtr(false),
	}
}
