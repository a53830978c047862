package util

import (
	"net/http"
	"testing"
)

func TestNewProxyFunc(t *testing.T) {
	tests := []struct {
		name       string
		httpProxy  string
		httpsProxy string
		noProxy    string
		target     string
		want       string
	}{
		{"http target", "http://proxy:3128", "", "", "http://api.example.com/v1", "http://proxy:3128"},
		{"https falls back to http proxy", "http://proxy:3128", "", "", "https://api.example.com/v1", "http://proxy:3128"},
		{"dedicated https proxy", "http://proxy:3128", "http://secure:3129", "", "https://api.example.com/v1", "http://secure:3129"},
		{"no_proxy match", "http://proxy:3128", "", "internal.example.com", "http://internal.example.com/x", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := NewProxyFunc(tt.httpProxy, tt.httpsProxy, tt.noProxy)
			req, err := http.NewRequest(http.MethodGet, tt.target, nil)
			if err != nil {
				t.Fatalf("NewRequest: %v", err)
			}
			got, err := fn(req)
			if err != nil {
				t.Fatalf("proxy func: %v", err)
			}
			if tt.want == "" {
				if got != nil {
					t.Errorf("expected direct connection, got proxy %s", got)
				}
				return
			}
			if got == nil || got.String() != tt.want {
				t.Errorf("expected proxy %s, got %v", tt.want, got)
			}
		})
	}
}
