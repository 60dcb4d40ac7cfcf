package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	DocumentKeyPrefix         = "document:%s"
	PendingApprovalsKeyPrefix = "pending_approvals:%s"
	ApprovalStatsKeyPrefix    = "approval_stats:%s"
)

const (
	DocumentTTL         = 5 * time.Minute
	PendingApprovalsTTL = 1 * time.Minute
	ApprovalStatsTTL    = 1 * time.Minute
)

func DocumentKey(documentID uuid.UUID) string {
	return fmt.Sprintf(DocumentKeyPrefix, documentID)
}

func PendingApprovalsKey(userID uuid.UUID) string {
	return fmt.Sprintf(PendingApprovalsKeyPrefix, userID)
}

func ApprovalStatsKey(userID uuid.UUID) string {
	return fmt.Sprintf(ApprovalStatsKeyPrefix, userID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateDocument(ctx context.Context, documentID uuid.UUID) {
	Invalidate(ctx, DocumentKey(documentID))
}

// InvalidateApprover drops the per-user pending and stats caches. Called for
// every approver of a flow whenever the flow mutates.
func InvalidateApprover(ctx context.Context, userID uuid.UUID) {
	Invalidate(ctx, PendingApprovalsKey(userID))
	Invalidate(ctx, ApprovalStatsKey(userID))
}
