package cache

import (
	"testing"
	"time"
)

func TestConfigMergeDefaults(t *testing.T) {
	cfg := (&Config{CancelWhenIdle: true}).MergeDefaults()
	if cfg.CacheDuration != DefaultCacheDuration {
		t.Errorf("CacheDuration = %v, want %v", cfg.CacheDuration, DefaultCacheDuration)
	}
	if cfg.SinkTimeout != 10*time.Second {
		t.Errorf("SinkTimeout = %v, want 10s", cfg.SinkTimeout)
	}
	if !cfg.CancelWhenIdle {
		t.Error("CancelWhenIdle was reset")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", *DefaultConfig(), false},
		{"zero ttl", Config{SinkTimeout: time.Second}, false},
		{"negative ttl", Config{CacheDuration: -time.Second}, true},
		{"negative sink timeout", Config{SinkTimeout: -time.Second}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
