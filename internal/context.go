package internal

import (
	"context"
	"net/http"
)

// CorrelationIdHeader is the header used to carry a correlation id between
// the client and the service
const CorrelationIdHeader string = "Correlation-Id"

type ctxKeyCorrelationId struct{}

func CtxWithCorrelationId(ctx context.Context, correlationId string) context.Context {
	return context.WithValue(ctx, ctxKeyCorrelationId{}, correlationId)
}

func CorrelationIdFromCtx(ctx context.Context) string {
	if correlationId, ok := ctx.Value(ctxKeyCorrelationId{}).(string); ok {
		return correlationId
	}
	return ""
}

// CtxFromRequest returns the request context decorated with the request's
// correlation id, one is generated if the caller didn't provide it
func CtxFromRequest(request *http.Request) context.Context {
	correlationId := request.Header.Get(CorrelationIdHeader)
	if correlationId == "" {
		correlationId = GenerateId()
	}
	return CtxWithCorrelationId(request.Context(), correlationId)
}
