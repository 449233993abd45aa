package notification

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/door2door/fieldvisits/internal/core/domain"
)

// Fingerprint identifies one notification-worthy save of a visit. Saving the
// same visit twice produces a new updatedAt and so a new fingerprint.
func Fingerprint(visit *domain.Visit, kind Kind) (string, error) {
	data, err := json.Marshal(struct {
		ID        string `json:"id"`
		Kind      Kind   `json:"kind"`
		UpdatedAt string `json:"updated_at"`
	}{
		ID:        visit.ID.String(),
		Kind:      kind,
		UpdatedAt: visit.UpdatedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal fingerprint data: %w", err)
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:]), nil
}
