package utils

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
)

const (
	B  = 1
	KB = 1024 * B
	MB = 1024 * KB
	GB = 1024 * MB
	TB = 1024 * GB
)

// FormatBytes converts bytes to human-readable IEC format (e.g. "1.5 MiB")
func FormatBytes(bytes int64) string {
	if bytes < 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(bytes))
}

// ParseSize converts human-readable size to bytes. Bare K/M/G/T suffixes
// and KB/MB/GB/TB are read as binary multiples, matching FormatBytes.
func ParseSize(size string) (int64, error) {
	s := strings.TrimSpace(size)
	if s == "" {
		return 0, fmt.Errorf("invalid size format: %q", size)
	}

	// humanize treats "MB" as 10^6; this tool has always meant 2^20
	upper := strings.ToUpper(s)
	for _, unit := range []string{"KB", "MB", "GB", "TB"} {
		if strings.HasSuffix(upper, unit) {
			s = s[:len(s)-2] + unit[:1] + "iB"
			break
		}
	}
	if last := upper[len(upper)-1]; strings.ContainsRune("KMGT", rune(last)) {
		s += "iB"
	}

	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size format: %q: %w", size, err)
	}
	if n > 1<<62 {
		return 0, fmt.Errorf("size out of range: %q", size)
	}

	return int64(n), nil
}

// SumSizes adds up a slice of sizes
func SumSizes(sizes []int64) int64 {
	var total int64
	for _, size := range sizes {
		total += size
	}
	return total
}
