package authz

import "testing"

func TestIPAllowed(t *testing.T) {
	tests := []struct {
		name      string
		clientIP  string
		whitelist []string
		want      bool
	}{
		{name: "Empty Whitelist Allows All", clientIP: "203.0.113.7", whitelist: nil, want: true},
		{name: "Exact Match", clientIP: "10.0.0.1", whitelist: []string{"10.0.0.1"}, want: true},
		{name: "Exact Mismatch", clientIP: "10.0.0.2", whitelist: []string{"10.0.0.1"}, want: false},
		{name: "CIDR Match", clientIP: "10.0.0.200", whitelist: []string{"10.0.0.0/24"}, want: true},
		{name: "CIDR Mismatch", clientIP: "10.0.1.5", whitelist: []string{"10.0.0.0/24"}, want: false},
		{name: "Second Entry Matches", clientIP: "192.168.1.5", whitelist: []string{"10.0.0.0/24", "192.168.1.5"}, want: true},
		{name: "Malformed Entry Skipped", clientIP: "10.0.0.1", whitelist: []string{"not-an-ip", "10.0.0.1"}, want: true},
		{name: "Only Malformed Entries", clientIP: "10.0.0.1", whitelist: []string{"not-an-ip", "10.0.0.0/99"}, want: false},
		{name: "Malformed Client IP", clientIP: "not-an-ip", whitelist: []string{"10.0.0.1"}, want: false},
		{name: "IPv6 Exact", clientIP: "2001:db8::1", whitelist: []string{"2001:db8::1"}, want: true},
		{name: "IPv6 CIDR", clientIP: "2001:db8::42", whitelist: []string{"2001:db8::/64"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ipAllowed(tt.clientIP, tt.whitelist); got != tt.want {
				t.Errorf("ipAllowed(%q, %v) = %t, expected %t", tt.clientIP, tt.whitelist, got, tt.want)
			}
		})
	}
}
