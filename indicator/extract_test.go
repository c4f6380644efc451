package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractURLs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "no URLs",
			text: "Failed SSH logins detected on the bastion host.",
			want: nil,
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
		{
			name: "single URL with surrounding punctuation",
			text: "User clicked http://x.com, then reported it.",
			want: []string{"http://x.com"},
		},
		{
			name: "https and http in order of appearance",
			text: "See https://evil.example/path and http://x.com for details",
			want: []string{"https://evil.example/path", "http://x.com"},
		},
		{
			name: "duplicates preserved",
			text: "http://a.com then again http://a.com",
			want: []string{"http://a.com", "http://a.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractURLs(tt.text))
		})
	}
}

func TestExtractIPv4(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "no IPs",
			text: "Phishing email reported by finance.",
			want: nil,
		},
		{
			name: "single IP",
			text: "Repeated logins from 192.168.1.1 on the admin panel",
			want: []string{"192.168.1.1"},
		},
		{
			name: "multiple IPs in order",
			text: "Scans from 94.130.10.120 and 10.0.0.5.",
			want: []string{"94.130.10.120", "10.0.0.5"},
		},
		{
			name: "out-of-range octets still match",
			text: "Odd address 999.999.999.999 in log line",
			want: []string{"999.999.999.999"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractIPv4(tt.text))
		})
	}
}

func TestExtractBothIndicatorKinds(t *testing.T) {
	text := `Proxy saw "http://x.com" contacted by 192.168.1.1!`

	assert.Equal(t, []string{"http://x.com"}, ExtractURLs(text))
	assert.Equal(t, []string{"192.168.1.1"}, ExtractIPv4(text))
}
