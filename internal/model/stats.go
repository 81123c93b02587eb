package model

import "fmt"

// Stats is the aggregate summary of the vault. Read-only from the client's
// perspective.
type Stats struct {
	TotalItems        int                 `json:"total_items"`
	TotalCategories   int                 `json:"total_categories"`
	TotalTags         int                 `json:"total_tags"`
	ItemsByType       map[ContentType]int `json:"items_by_type"`
	TotalStorageBytes int64               `json:"total_storage_bytes"`
}

// HumanSize returns a human-readable byte count ("512 B", "1.5 MB").
func HumanSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
