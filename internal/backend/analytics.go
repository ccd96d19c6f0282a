package backend

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// AnalyticsDashboard fetches the date-ranged dashboard rollup.
func (c *Client) AnalyticsDashboard(ctx context.Context, bearer string, from, to time.Time) *Response {
	params := url.Values{}
	params.Set("from", from.Format(time.RFC3339))
	params.Set("to", to.Format(time.RFC3339))
	return c.do(ctx, http.MethodGet, withQuery("/analytics/dashboard", params), bearer, nil, "analytics")
}

// VerificationCounts fetches verification volume for the same range, used by
// the aggregated dashboard view.
func (c *Client) VerificationCounts(ctx context.Context, bearer string, from, to time.Time) *Response {
	params := url.Values{}
	params.Set("from", from.Format(time.RFC3339))
	params.Set("to", to.Format(time.RFC3339))
	return c.do(ctx, http.MethodGet, withQuery("/analytics/verifications", params), bearer, nil, "analytics")
}
