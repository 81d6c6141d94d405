package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Admin console. Requests carry the session's admin key when one is set.

func (a *API) AdminStats(ctx context.Context) (*Stats, error) {
	var out Stats
	if err := a.do(ctx, http.MethodGet, "/api/admin/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) AdminReports(ctx context.Context, status string, page, limit int) (*ReportList, error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", status)
	}
	q.Set("page", strconv.Itoa(max(page, 1)))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out ReportList
	if err := a.do(ctx, http.MethodGet, "/api/admin/reports?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) AdminUpdateReport(ctx context.Context, id, status string) (*Report, error) {
	var out struct {
		Report Report `json:"report"`
	}
	body := map[string]string{"status": status}
	if err := a.do(ctx, http.MethodPatch, "/api/admin/reports/"+escape(id), body, &out); err != nil {
		return nil, err
	}
	return &out.Report, nil
}

func (a *API) AdminUsers(ctx context.Context, query string, page, limit int) (*UserList, error) {
	q := url.Values{}
	if query != "" {
		q.Set("q", query)
	}
	q.Set("page", strconv.Itoa(max(page, 1)))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out UserList
	if err := a.do(ctx, http.MethodGet, "/api/admin/users?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) AdminSetRole(ctx context.Context, userID, role string) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	body := map[string]string{"role": role}
	if err := a.do(ctx, http.MethodPut, "/api/admin/users/"+escape(userID)+"/role", body, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (a *API) AdminSetDisabled(ctx context.Context, userID string, disabled bool) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	body := map[string]bool{"disabled": disabled}
	if err := a.do(ctx, http.MethodPut, "/api/admin/users/"+escape(userID)+"/disabled", body, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (a *API) AdminQuotes(ctx context.Context) ([]Quote, error) {
	var out struct {
		Quotes []Quote `json:"quotes"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/admin/quotes", nil, &out); err != nil {
		return nil, err
	}
	return out.Quotes, nil
}

func (a *API) AdminCreateQuote(ctx context.Context, text, author string) (*Quote, error) {
	var out struct {
		Quote Quote `json:"quote"`
	}
	active := true
	body := map[string]interface{}{"text": text, "author": author, "active": active}
	if err := a.do(ctx, http.MethodPost, "/api/admin/quotes", body, &out); err != nil {
		return nil, err
	}
	return &out.Quote, nil
}

func (a *API) AdminDeleteQuote(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, "/api/admin/quotes/"+escape(id), nil, nil)
}
