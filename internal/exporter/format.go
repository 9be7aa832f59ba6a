package exporter

import (
	"fmt"
	"strconv"
)

// formatFloat renders with exactly 2 decimal places so 13.4 exports as 13.40.
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatFloatPtr renders nil as the empty cell; null metrics must stay
// distinguishable from zero in the exported files too.
func formatFloatPtr(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}

func formatInt(i int) string {
	return strconv.Itoa(i)
}

func formatIntPtr(i *int) string {
	if i == nil {
		return ""
	}
	return strconv.Itoa(*i)
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func formatStringPtr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
