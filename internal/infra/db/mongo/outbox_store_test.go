package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	infraoutbox "bmrengine/internal/infra/outbox"
)

func TestClaimFilterReclaimsExpiredLeases(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	filter := claimFilter(now, 30*time.Second)

	branches, ok := filter["$or"].(bson.A)
	if !ok || len(branches) != 2 {
		t.Fatalf("expected due and stale branches, got %v", filter)
	}
	due := branches[0].(bson.M)
	if got := due["next_attempt_at"].(bson.M)["$lte"].(time.Time); !got.Equal(now) {
		t.Fatalf("due branch should compare next_attempt_at with now: %v", due)
	}
	stale := branches[1].(bson.M)
	if stale["state"] != infraoutbox.StateClaimed {
		t.Fatalf("stale branch should target claimed documents: %v", stale)
	}
	if got := stale["claimed_at"].(bson.M)["$lte"].(time.Time); !got.Equal(now.Add(-30 * time.Second)) {
		t.Fatalf("lease cutoff = %v", got)
	}

	fallback := claimFilter(now, 0)["$or"].(bson.A)[1].(bson.M)
	if got := fallback["claimed_at"].(bson.M)["$lte"].(time.Time); !got.Equal(now.Add(-infraoutbox.DefaultClaimLease)) {
		t.Fatalf("zero lease should use the default, got %v", got)
	}
}
