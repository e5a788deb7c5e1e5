package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("INVOICER_STATE_DIR", "/tmp/invoicer-state")
	t.Setenv("INVOICER_DRAFT", "")
	t.Setenv("WORKSPACE_BACKEND", "")
	t.Setenv("IMAGE_CACHE_TTL", "")
	t.Setenv("IMAGE_CACHE_SIZE", "")
	t.Setenv("HTTP_TIMEOUT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DraftPath != filepath.Join("/tmp/invoicer-state", "draft.json") {
		t.Errorf("DraftPath = %q", cfg.DraftPath)
	}
	if cfg.WorkspaceBackend != BackendNotion || cfg.NotionVersion != "2022-06-28" {
		t.Errorf("backend = %q version = %q", cfg.WorkspaceBackend, cfg.NotionVersion)
	}
	if cfg.ImageCacheTTL != 10*time.Minute || cfg.HTTPTimeout != 30*time.Second {
		t.Errorf("durations = %v, %v", cfg.ImageCacheTTL, cfg.HTTPTimeout)
	}
	if cfg.ImageCacheSize != 64 {
		t.Errorf("ImageCacheSize = %d, want 64", cfg.ImageCacheSize)
	}
	if cfg.ProxyPath != "/api/workspace" || cfg.ProxyAddr != ":8888" {
		t.Errorf("proxy = %q %q", cfg.ProxyAddr, cfg.ProxyPath)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"WORKSPACE_BACKEND", "dropbox"},
		{"HTTP_TIMEOUT", "soon"},
		{"HTTP_TIMEOUT", "-1s"},
		{"IMAGE_CACHE_TTL", "forever"},
		{"IMAGE_CACHE_SIZE", "lots"},
		{"IMAGE_CACHE_SIZE", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Load() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestValidateWorkspace(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"notion complete", Config{WorkspaceBackend: BackendNotion, NotionAPIKey: "k", NotionClientsDB: "c", NotionInvoicesDB: "i"}, false},
		{"notion without key", Config{WorkspaceBackend: BackendNotion, NotionClientsDB: "c", NotionInvoicesDB: "i"}, true},
		{"notion without invoices db", Config{WorkspaceBackend: BackendNotion, NotionAPIKey: "k", NotionClientsDB: "c"}, true},
		{"sheets without url", Config{WorkspaceBackend: BackendSheets}, true},
		{"sheets", Config{WorkspaceBackend: BackendSheets, GoogleSheetURL: "https://docs.google.com/spreadsheets/d/x"}, false},
		{"proxy without url", Config{WorkspaceBackend: BackendProxy}, true},
		{"proxy", Config{WorkspaceBackend: BackendProxy, APIURL: "http://localhost:8888/api/workspace"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateWorkspace()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateWorkspace() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
