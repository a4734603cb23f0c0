package parse

import (
	"strings"
	"testing"
)

func TestRange(t *testing.T) {
	tests := []struct {
		in       string
		min, max int
		wantErr  string
	}{
		{in: "5", min: 5, max: 5},
		{in: "3:8", min: 3, max: 8},
		{in: " 3 : 8 ", min: 3, max: 8},
		{in: "7:7", min: 7, max: 7},
		{in: "", wantErr: "invalid count"},
		{in: "abc", wantErr: "invalid count"},
		{in: "1:x", wantErr: "invalid range maximum"},
		{in: "x:2", wantErr: "invalid range minimum"},
		{in: "8:3", wantErr: "below minimum"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			min, max, err := Range(tt.in)
			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("Range(%q) = %d, %d, want error", tt.in, min, max)
				}
				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Range(%q) error = %v, want substring %q", tt.in, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Range(%q): %v", tt.in, err)
			}
			if min != tt.min || max != tt.max {
				t.Errorf("Range(%q) = %d, %d, want %d, %d", tt.in, min, max, tt.min, tt.max)
			}
		})
	}
}
