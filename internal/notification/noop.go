package notification

import "context"

// Noop drops everything. Services fall back to it when no channel is given.
type Noop struct{}

func (Noop) NotifyEmployee(context.Context, string, string, any) {}
func (Noop) NotifyRole(context.Context, string, string, any)     {}
func (Noop) Broadcast(context.Context, string, any)              {}

func (Noop) Subscribe(ctx context.Context) (<-chan Message, error) {
	ch := make(chan Message)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}
