// Package logging builds the structured zap logger used by hook processes.
//
// Hook stdout is reserved for messages shown to the host assistant, so logs
// are always written to stderr. Optionally a second core forwards entries to
// an OpenTelemetry log provider through the otelzap bridge.
//
// Sensitive field names (key, secret, token, authorization) and bearer
// tokens are redacted by RedactingEncoder before they reach the output.
//
// Correlation fields are attached from context:
//
//	ctx = logging.WithSessionID(ctx, sessionID)
//	ctx = logging.WithWorkflowID(ctx, workflowID)
//	logger.Info(ctx, "feedback captured", zap.String("kind", "correction"))
package logging
