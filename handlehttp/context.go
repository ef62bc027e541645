package handlehttp

import (
	"context"
)

type requestContextKeyType string

const requestContextKey = requestContextKeyType("requestContextKey")

// RequestContextFromContext returns the API Gateway request context, or nil
// when the request did not arrive through WrapHandler.
func RequestContextFromContext(ctx context.Context) *RequestContext {
	rc, _ := ctx.Value(requestContextKey).(*RequestContext)
	return rc
}

type RequestContext struct {
	RouteKey     string          `json:"routeKey"`
	AccountID    string          `json:"accountId"`
	Stage        string          `json:"stage"`
	RequestID    string          `json:"requestId"`
	APIID        string          `json:"apiId"`
	DomainName   string          `json:"domainName"`
	DomainPrefix string          `json:"domainPrefix"`
	Time         string          `json:"time"`
	TimeEpoch    int64           `json:"timeEpoch"`
	HTTP         HTTPDescription `json:"http"`
}

type HTTPDescription struct {
	Method    string `json:"method"`
	Path      string `json:"path"`
	Protocol  string `json:"protocol"`
	SourceIP  string `json:"sourceIp"`
	UserAgent string `json:"userAgent"`
}
