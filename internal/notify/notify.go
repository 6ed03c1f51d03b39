package notify

import "context"

type Notifier interface {
	Send(ctx context.Context, title, text string) error
}

// FromConfig returns a Slack notifier for webhook, or nil when it is empty.
func FromConfig(webhook string) Notifier {
	if s := NewSlack(webhook); s != nil {
		return s
	}
	return nil
}

type Multi []Notifier

func (m Multi) Send(ctx context.Context, title, text string) error {
	var firstErr error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Send(ctx, title, text); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
