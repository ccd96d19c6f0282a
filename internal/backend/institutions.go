package backend

import (
	"context"
	"net/http"
	"net/url"
)

// Institution endpoints, including the credential and verification-request
// sub-resources the institution dashboard lists.

func (c *Client) RegisterInstitution(ctx context.Context, bearer string, fields map[string]any) *Response {
	return c.do(ctx, http.MethodPost, "/institutions/register", bearer, fields, "institutions")
}

func (c *Client) ListInstitutions(ctx context.Context, bearer string, params url.Values) *Response {
	return c.do(ctx, http.MethodGet, withQuery("/institutions", params), bearer, nil, "institutions")
}

func (c *Client) GetInstitution(ctx context.Context, bearer, institutionID string) *Response {
	return c.do(ctx, http.MethodGet, "/institutions/"+url.PathEscape(institutionID), bearer, nil, "institutions")
}

func (c *Client) UpdateInstitution(ctx context.Context, bearer, institutionID string, fields map[string]any) *Response {
	return c.do(ctx, http.MethodPut, "/institutions/"+url.PathEscape(institutionID), bearer, fields, "institutions")
}

func (c *Client) DeleteInstitution(ctx context.Context, bearer, institutionID string) *Response {
	return c.do(ctx, http.MethodDelete, "/institutions/"+url.PathEscape(institutionID), bearer, nil, "institutions")
}

func (c *Client) ApproveInstitution(ctx context.Context, bearer, institutionID string) *Response {
	return c.do(ctx, http.MethodPost, "/institutions/"+url.PathEscape(institutionID)+"/approve", bearer, nil, "institutions")
}

func (c *Client) RejectInstitution(ctx context.Context, bearer, institutionID string, reason string) *Response {
	body := map[string]string{"reason": reason}
	return c.do(ctx, http.MethodPost, "/institutions/"+url.PathEscape(institutionID)+"/reject", bearer, body, "institutions")
}

func (c *Client) InstitutionCredentials(ctx context.Context, bearer, institutionID string, params url.Values) *Response {
	path := "/institutions/" + url.PathEscape(institutionID) + "/credentials"
	return c.do(ctx, http.MethodGet, withQuery(path, params), bearer, nil, "institutions")
}

func (c *Client) InstitutionVerificationRequests(ctx context.Context, bearer, institutionID string, params url.Values) *Response {
	path := "/institutions/" + url.PathEscape(institutionID) + "/verification-requests"
	return c.do(ctx, http.MethodGet, withQuery(path, params), bearer, nil, "institutions")
}

// BulkUploadCredentials submits a batch of credential records parsed
// client-side. The backend validates each row and reports per-row results.
func (c *Client) BulkUploadCredentials(ctx context.Context, bearer, institutionID string, records []map[string]any) *Response {
	path := "/institutions/" + url.PathEscape(institutionID) + "/credentials/bulk-upload"
	return c.do(ctx, http.MethodPost, path, bearer, map[string]any{"records": records}, "institutions")
}

func (c *Client) InstitutionActivityLogs(ctx context.Context, bearer, institutionID string, params url.Values) *Response {
	path := "/institutions/" + url.PathEscape(institutionID) + "/activity-logs"
	return c.do(ctx, http.MethodGet, withQuery(path, params), bearer, nil, "institutions")
}
