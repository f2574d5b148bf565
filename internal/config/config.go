package config

import (
	"os"
	"time"
)

// Config is read from the environment; an optional .env file is loaded in main.
type Config struct {
	HTTPAddr        string
	APIBaseURL      string
	StorePath       string
	UpstreamTimeout time.Duration
}

func Load() Config {
	return Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":9091"),
		APIBaseURL:      getenv("SHOP_API_URL", "https://vue3-course-api.hexschool.io/v2"),
		StorePath:       getenv("SHOP_API_PATH", ""),
		UpstreamTimeout: getduration("UPSTREAM_TIMEOUT", 10*time.Second),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
