package mail

import "context"

type Message struct {
	From     string
	To       []string
	Subject  string
	HtmlBody string
}

// Sender delivers outbound mail. Delivery is a side channel: callers log
// failures and move on.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}
