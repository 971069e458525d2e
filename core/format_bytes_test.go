package core

import (
	"testing"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"zero bytes", 0, "0 B"},
		{"one byte", 1, "1 B"},
		{"just under a KB", 1023, "1023 B"},
		{"exactly 1 KB", 1024, "1.00 KB"},
		{"1.5 KB", 1536, "1.50 KB"},
		{"exactly 1 MB", 1024 * 1024, "1.00 MB"},
		{"lineart extractor weights", 217 * BytesPerMB, "217.00 MB"},
		{"exactly 1 GB", BytesPerGB, "1.00 GB"},
		{"generative engine weights", 4 * BytesPerGB, "4.00 GB"},
		{"exactly 1 TB", BytesPerTB, "1.00 TB"},
		{"negative treated as zero", -100, "0 B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatBytes(tt.bytes); got != tt.want {
				t.Errorf("FormatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestFormatBytesCompact(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{"zero bytes", 0, "0 B"},
		{"512 bytes", 512, "512 B"},
		{"round KB drops decimals", 1024, "1 KB"},
		{"fractional KB keeps one decimal", 1536, "1.5 KB"},
		{"round MB", 100 * BytesPerMB, "100 MB"},
		{"round GB", 4 * BytesPerGB, "4 GB"},
		{"fractional GB", 1445 * BytesPerMB, "1.4 GB"},
		{"negative treated as zero", -100, "0 B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatBytesCompact(tt.bytes); got != tt.want {
				t.Errorf("FormatBytesCompact(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

func TestParseBytes(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"bare zero", "0", 0, false},
		{"zero with unit", "0B", 0, false},
		{"bytes with space", "100 B", 100, false},
		{"kilobytes", "1KB", 1024, false},
		{"fractional kilobytes", "1.5KB", 1536, false},
		{"K shorthand", "1K", 1024, false},
		{"megabytes", "1MB", BytesPerMB, false},
		{"gigabytes", "4GB", 4 * BytesPerGB, false},
		{"G shorthand", "4G", 4 * BytesPerGB, false},
		{"terabytes", "1TB", BytesPerTB, false},
		{"lowercase unit", "4gb", 4 * BytesPerGB, false},
		{"mixed case unit", "4Gb", 4 * BytesPerGB, false},
		{"surrounding whitespace", "  4 GB  ", 4 * BytesPerGB, false},

		{"empty string", "", 0, true},
		{"only whitespace", "   ", 0, true},
		{"no number", "GB", 0, true},
		{"unknown unit", "100XB", 0, true},
		{"negative size", "-4GB", 0, true},
		{"not a size at all", "plenty", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBytes(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseBytes(%q) expected error, got %d", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseBytes(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseBytes(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	values := []int64{0, 1024, BytesPerMB, BytesPerGB, 4 * BytesPerGB}

	for _, original := range values {
		formatted := FormatBytes(original)
		parsed, err := ParseBytes(formatted)
		if err != nil {
			t.Errorf("ParseBytes(%q) error: %v", formatted, err)
			continue
		}
		if parsed != original {
			t.Errorf("round trip %d -> %q -> %d", original, formatted, parsed)
		}
	}
}
