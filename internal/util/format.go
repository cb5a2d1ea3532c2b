package util

import (
	"fmt"
)

// Sizeify converts bytes to a human-readable string (B, KiB, MiB, GiB, TiB).
func Sizeify(size int64) string {
	if size >= int64(TiB) {
		return fmt.Sprintf("%.2f TiB", float64(size)/float64(TiB))
	} else if size >= int64(GiB) {
		return fmt.Sprintf("%.2f GiB", float64(size)/float64(GiB))
	} else if size >= int64(MiB) {
		return fmt.Sprintf("%.2f MiB", float64(size)/float64(MiB))
	} else if size >= int64(KiB) {
		return fmt.Sprintf("%.2f KiB", float64(size)/float64(KiB))
	}
	return fmt.Sprintf("%d B", size)
}

// Ratio formats stored/original as a percentage, "-" when original is zero.
func Ratio(stored, original int64) string {
	if original <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(stored)*100/float64(original))
}
