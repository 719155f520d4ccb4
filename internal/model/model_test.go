package model

import "testing"

func TestParseConnState(t *testing.T) {
	tests := []struct {
		in   string
		want ConnState
	}{
		{"ESTABLISHED", StateEstablished},
		{"TIME_WAIT", StateTimeWait},
		{"LISTEN", StateListen},
		{"CLOSING", StateClosing},
		{"NONE", StateUnknown},
		{"", StateUnknown},
		{"established", StateUnknown},
		{"SOMETHING_NEW", StateUnknown},
	}

	for _, tt := range tests {
		if got := ParseConnState(tt.in); got != tt.want {
			t.Errorf("ParseConnState(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
