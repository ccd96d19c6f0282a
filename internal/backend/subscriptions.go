package backend

import (
	"context"
	"net/http"
	"net/url"
)

// Subscription endpoints for the billing screens.

func (c *Client) GetSubscription(ctx context.Context, bearer string) *Response {
	return c.do(ctx, http.MethodGet, "/subscriptions/current", bearer, nil, "subscriptions")
}

func (c *Client) CancelSubscription(ctx context.Context, bearer string) *Response {
	return c.do(ctx, http.MethodPost, "/subscriptions/cancel", bearer, nil, "subscriptions")
}

func (c *Client) ReactivateSubscription(ctx context.Context, bearer string) *Response {
	return c.do(ctx, http.MethodPost, "/subscriptions/reactivate", bearer, nil, "subscriptions")
}

func (c *Client) PaymentHistory(ctx context.Context, bearer string, params url.Values) *Response {
	return c.do(ctx, http.MethodGet, withQuery("/subscriptions/payment-history", params), bearer, nil, "subscriptions")
}
