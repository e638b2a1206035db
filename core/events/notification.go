package events

// KindClientNotified identifies a client-visible notification leaving the
// session.
const KindClientNotified Kind = "notification.sent"

// ClientNotified records a client-visible notification, kept separate from
// reply content.
type ClientNotified struct {
	Base
	Code    string
	Message string
	Retry   bool
}

// NewClientNotified creates a client notified event.
func NewClientNotified(code, message string, retry bool) ClientNotified {
	return ClientNotified{Base: NewBase(KindClientNotified), Code: code, Message: message, Retry: retry}
}
