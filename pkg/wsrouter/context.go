package wsrouter

import "context"

type ctxKey struct{}

func withMessageType(ctx context.Context, messageType string) context.Context {
	return context.WithValue(ctx, ctxKey{}, messageType)
}

// GetMessageTypeFromCtx returns the type of the message being handled, or ""
// outside a handler.
func GetMessageTypeFromCtx(ctx context.Context) string {
	messageType, _ := ctx.Value(ctxKey{}).(string)
	return messageType
}
