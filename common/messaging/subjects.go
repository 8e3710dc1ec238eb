package messaging

// Subject constants for the notify message bus.
// Follow the pattern: {domain}.{resource}.{action}
const (
	// Channel orchestrator request/reply subjects
	SubjectOrchestratorSend     = "notify.orchestrator.send"     // SendMultiChannel
	SubjectOrchestratorStatus   = "notify.orchestrator.status"   // GetDeliveryStatus
	SubjectOrchestratorResend   = "notify.orchestrator.resend"   // ResendFailed
	SubjectOrchestratorResponse = "notify.orchestrator.response" // reserved for async replies

	// Dead-letter subjects, suffixed with the failure reason
	SubjectDLQPrefix = "notify.dlq"
	SubjectDLQAll    = SubjectDLQPrefix + ".>"
)

// HeaderEventID carries the originating event id on broker messages.
const HeaderEventID = "Notify-Event-Id"

// DLQSubject returns the dead-letter subject for reason.
// Example: notify.dlq.retry_exhausted
func DLQSubject(reason string) string {
	if reason == "" {
		reason = "unknown"
	}
	return SubjectDLQPrefix + "." + reason
}
