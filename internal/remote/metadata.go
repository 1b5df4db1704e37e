package remote

import (
	"encoding/json"
	"fmt"
	"strings"
)

// VersionMetadata is the document served at the releases root.
type VersionMetadata struct {
	Latest string `json:"latest"`
}

// ParseVersionMetadata decodes the releases document. A missing or blank
// latest field is an error.
func ParseVersionMetadata(data []byte) (VersionMetadata, error) {
	var meta VersionMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return VersionMetadata{}, fmt.Errorf("decode version metadata: %w", err)
	}
	meta.Latest = strings.TrimSpace(meta.Latest)
	if meta.Latest == "" {
		return VersionMetadata{}, fmt.Errorf("version metadata has no latest version")
	}
	return meta, nil
}
