package ledger

import "context"

// IntegrationHandler receives stock change events, e.g. for report cache
// invalidation. Handlers run after the transaction commits and must not fail
// the mutation.
type IntegrationHandler interface {
	HandleStockChanged(ctx context.Context)
}
