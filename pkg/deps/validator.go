package deps

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
)

// Validator guards zip extraction against hostile release archives:
// path traversal, oversized members, and compression bombs.
type Validator struct {
	maxFileSize         int64
	maxTotalSize        int64
	maxCompressionRatio float64

	mu               sync.Mutex
	currentTotalSize int64
}

// NewValidator creates an extraction validator with the given limits.
func NewValidator(maxFileSize, maxTotalSize int64, maxCompressionRatio float64) *Validator {
	return &Validator{
		maxFileSize:         maxFileSize,
		maxTotalSize:        maxTotalSize,
		maxCompressionRatio: maxCompressionRatio,
	}
}

// ValidatePath checks an archive member name for path traversal.
func (v *Validator) ValidatePath(zipPath string) error {
	if filepath.IsAbs(zipPath) || strings.HasPrefix(zipPath, "/") || strings.HasPrefix(zipPath, "\\") {
		slog.Error("zip_path_validation_failed", "path", zipPath, "reason", "absolute_path")
		return fmt.Errorf("security: absolute path not allowed: %s", zipPath)
	}

	clean := filepath.Clean(filepath.FromSlash(zipPath))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		slog.Error("zip_path_validation_failed", "path", zipPath, "reason", "path_traversal")
		return fmt.Errorf("security: path traversal detected: %s", zipPath)
	}

	return nil
}

// ValidateFileSize checks if a member exceeds the per-file size cap.
func (v *Validator) ValidateFileSize(size int64) error {
	if size > v.maxFileSize {
		slog.Error("zip_file_size_exceeded",
			"file_size_mb", size/1024/1024,
			"max_file_size_mb", v.maxFileSize/1024/1024)
		return fmt.Errorf("security: file size %d exceeds max %d", size, v.maxFileSize)
	}
	return nil
}

// AddExtractedSize tracks total extracted size and checks against the limit.
func (v *Validator) AddExtractedSize(size int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.currentTotalSize += size
	if v.currentTotalSize > v.maxTotalSize {
		slog.Error("zip_total_size_exceeded",
			"current_total_mb", v.currentTotalSize/1024/1024,
			"max_total_mb", v.maxTotalSize/1024/1024)
		return fmt.Errorf("security: total extracted size %d exceeds max %d",
			v.currentTotalSize, v.maxTotalSize)
	}
	return nil
}

// ValidateCompressionRatio checks a member for compression bombs.
func (v *Validator) ValidateCompressionRatio(compressedSize, uncompressedSize int64) error {
	if compressedSize == 0 {
		// Stored (uncompressed) empty entries are fine.
		if uncompressedSize == 0 {
			return nil
		}
		return fmt.Errorf("security: compressed size cannot be zero for %d uncompressed bytes", uncompressedSize)
	}

	ratio := float64(uncompressedSize) / float64(compressedSize)
	if ratio > v.maxCompressionRatio {
		slog.Error("zip_compression_bomb_detected",
			"ratio", ratio,
			"max_ratio", v.maxCompressionRatio,
			"compressed", compressedSize,
			"uncompressed", uncompressedSize)
		return fmt.Errorf("security: compression ratio %.2f exceeds max %.2f", ratio, v.maxCompressionRatio)
	}
	return nil
}

// Reset resets the total size counter before a new archive.
func (v *Validator) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.currentTotalSize = 0
}
