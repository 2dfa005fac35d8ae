// Package tenantlog hands out per-tenant slog loggers so operator-facing
// logs can always be attributed to the customer they concern.
//
// Every logger carries a "tenant" attribute. With a custom HandlerFactory,
// tenants can be routed to fully separate outputs (one log file per tenant,
// for example). The factory falls back to a configured default tenant when
// called outside an execution context, so logging itself can never fail on
// an unresolved tenant.
//
//	logs := tenantlog.New(tenantlog.WithFallback("rs"))
//	logs.FromContext(ctx).Info("payroll exported", "rows", n)
package tenantlog
