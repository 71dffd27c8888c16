package nft

import (
	"context"
	"time"

	"github.com/code-payments/code-nft-issuer/pkg/metrics"
	"github.com/code-payments/code-nft-issuer/pkg/nft/data/issuance"
)

const (
	metricsStructName = "nft.issuer"

	issuanceEventName          = "NftIssuance"
	issuanceDurationMetricName = "Nft/IssuanceDuration"
	preconditionMetricName     = "Nft/PreconditionViolationCount"
)

func recordIssuanceEvent(ctx context.Context, record *issuance.Record, elapsed time.Duration) {
	kvPairs := map[string]interface{}{
		"mint":    record.Mint,
		"creator": record.Creator,
		"state":   record.State.String(),
		"count":   1,
	}
	if record.State == issuance.StateAborted {
		kvPairs["failed_step"] = record.FailedStep.String()
	}
	metrics.RecordEvent(ctx, issuanceEventName, kvPairs)
	metrics.RecordDuration(ctx, issuanceDurationMetricName, elapsed)
}

func recordPreconditionViolation(ctx context.Context) {
	metrics.RecordCount(ctx, preconditionMetricName, 1)
}
