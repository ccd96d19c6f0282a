package backend

import (
	"context"
	"net/http"
	"net/url"
)

// User endpoints. Payload shapes belong to the backend; they pass through as
// raw JSON inside the envelope.

func (c *Client) ListUsers(ctx context.Context, bearer string, params url.Values) *Response {
	return c.do(ctx, http.MethodGet, withQuery("/users", params), bearer, nil, "users")
}

func (c *Client) GetUser(ctx context.Context, bearer, userID string) *Response {
	return c.do(ctx, http.MethodGet, "/users/"+url.PathEscape(userID), bearer, nil, "users")
}

func (c *Client) UpdateUser(ctx context.Context, bearer, userID string, fields map[string]any) *Response {
	return c.do(ctx, http.MethodPut, "/users/"+url.PathEscape(userID), bearer, fields, "users")
}

func (c *Client) DeleteUser(ctx context.Context, bearer, userID string) *Response {
	return c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(userID), bearer, nil, "users")
}

func (c *Client) SuspendUser(ctx context.Context, bearer, userID string) *Response {
	return c.do(ctx, http.MethodPost, "/users/"+url.PathEscape(userID)+"/suspend", bearer, nil, "users")
}

func (c *Client) ReactivateUser(ctx context.Context, bearer, userID string) *Response {
	return c.do(ctx, http.MethodPost, "/users/"+url.PathEscape(userID)+"/reactivate", bearer, nil, "users")
}
