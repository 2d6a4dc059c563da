package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/outline/pkg/domain"
)

// Combine returns hooks that call every non-nil callback of each input, in order.
func Combine(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var start, end, rollback []func(context.Context, *domain.OperationEvent)
	for _, h := range hooks {
		if h.OnOperationStart != nil {
			start = append(start, h.OnOperationStart)
		}
		if h.OnOperationEnd != nil {
			end = append(end, h.OnOperationEnd)
		}
		if h.OnRollback != nil {
			rollback = append(rollback, h.OnRollback)
		}
	}
	return domain.LifecycleHooks{
		OnOperationStart: fanOut(start),
		OnOperationEnd:   fanOut(end),
		OnRollback:       fanOut(rollback),
	}
}

func fanOut(fns []func(context.Context, *domain.OperationEvent)) func(context.Context, *domain.OperationEvent) {
	if len(fns) == 0 {
		return nil
	}
	return func(ctx context.Context, e *domain.OperationEvent) {
		for _, fn := range fns {
			fn(ctx, e)
		}
	}
}

// LogHooks records every operation event on logger.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnOperationStart: func(ctx context.Context, e *domain.OperationEvent) {
			logger.DebugContext(ctx, "operation_start", "op", e.OperationID, "kind", e.Kind, "node_id", e.TargetID)
		},
		OnOperationEnd: func(ctx context.Context, e *domain.OperationEvent) {
			logger.InfoContext(ctx, "operation_end",
				"op", e.OperationID,
				"kind", e.Kind,
				"node_id", e.TargetID,
				"duration", e.Duration,
				"outcome", Outcome(e.Err),
			)
		},
		OnRollback: func(ctx context.Context, e *domain.OperationEvent) {
			logger.WarnContext(ctx, "operation_rollback", "op", e.OperationID, "kind", e.Kind, "node_id", e.TargetID, "err", e.Err)
		},
	}
}
