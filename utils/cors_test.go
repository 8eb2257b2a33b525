package utils

import "testing"

func TestIsAllowedOrigin(t *testing.T) {
	cases := []struct {
		origin  string
		extra   []string
		allowed bool
	}{
		{"http://localhost:3000", nil, true},
		{"http://127.0.0.1:8080", nil, true},
		{"http://192.168.1.50", nil, true},
		{"http://10.1.2.3:5000", nil, true},
		{"http://mybox.local", nil, true},
		{"http://nas", nil, true},
		{"http://[::1]:8080", nil, true},
		{"https://example.com", nil, false},
		{"http://8.8.8.8", nil, false},
		{"", nil, false},
		{"not a url", nil, false},
		{"https://movies.example.com", []string{"https://movies.example.com"}, true},
		{"https://Movies.Example.Com", []string{"https://movies.example.com"}, true},
		{"https://other.example.com", []string{"https://movies.example.com"}, false},
	}

	for _, tc := range cases {
		if got := IsAllowedOrigin(tc.origin, tc.extra); got != tc.allowed {
			t.Errorf("IsAllowedOrigin(%q, %v) = %v, want %v", tc.origin, tc.extra, got, tc.allowed)
		}
	}
}
