package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if cfg.Port != "8080" || cfg.Session.Key != "user" || cfg.Session.Store != BackendRedis {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Session.Duration != 30*time.Minute || cfg.Session.CheckInterval != time.Minute {
		t.Fatalf("unexpected session timings: %+v", cfg.Session)
	}
	if cfg.Backend.URL != "http://localhost:4000" || cfg.Backend.Timeout != 10*time.Second {
		t.Fatalf("unexpected backend config: %+v", cfg.Backend)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development by default")
	}
	if cfg.Host != "127.0.0.1" || cfg.Addr() != "127.0.0.1:8080" || !cfg.IsLoopback() {
		t.Fatalf("expected loopback listen address by default, got %q", cfg.Addr())
	}
}

func TestConfig_ListenAddress(t *testing.T) {
	cases := []struct {
		host     string
		addr     string
		loopback bool
	}{
		{"127.0.0.1", "127.0.0.1:9000", true},
		{"localhost", "localhost:9000", true},
		{"::1", "[::1]:9000", true},
		{"0.0.0.0", "0.0.0.0:9000", false},
		{"10.1.2.3", "10.1.2.3:9000", false},
		{"", ":9000", false},
	}
	for _, tc := range cases {
		cfg := &Config{Host: tc.host, Port: "9000"}
		if got := cfg.Addr(); got != tc.addr {
			t.Fatalf("Addr() with HOST=%q = %q, want %q", tc.host, got, tc.addr)
		}
		if got := cfg.IsLoopback(); got != tc.loopback {
			t.Fatalf("IsLoopback() with HOST=%q = %v, want %v", tc.host, got, tc.loopback)
		}
	}
}
