package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/maskapp/mask/pkg/client"
	"github.com/maskapp/mask/pkg/logger"
)

// API wraps every server route the CLI uses
type API struct {
	c *client.Client
}

func New(c *client.Client) *API {
	return &API{c: c}
}

// Client returns the underlying HTTP client
func (a *API) Client() *client.Client {
	return a.c
}

func (a *API) do(ctx context.Context, method, path string, body, result interface{}) error {
	req := a.c.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Execute(method, path)
	if err := CheckResponse(resp, err); err != nil {
		logger.Debug("API call failed", "method", method, "path", path, "err", err)
		return err
	}
	return nil
}

func pageQuery(page, limit int) string {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func escape(id string) string {
	return url.PathEscape(id)
}

// Auth

func (a *API) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := a.do(ctx, http.MethodPost, "/api/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Login(ctx context.Context, identifier, password string) (*AuthResponse, error) {
	var out AuthResponse
	if err := a.do(ctx, http.MethodPost, "/api/auth/login", LoginRequest{Identifier: identifier, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Me(ctx context.Context) (*User, error) {
	var out struct {
		User User `json:"user"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

func (a *API) Logout(ctx context.Context) error {
	return a.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// Feed and posts

func (a *API) Feed(ctx context.Context, tab string, page, limit int) (*FeedPage, error) {
	q := url.Values{}
	q.Set("tab", tab)
	q.Set("page", strconv.Itoa(max(page, 1)))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out FeedPage
	if err := a.do(ctx, http.MethodGet, "/api/posts/feed?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	var out struct {
		Post Post `json:"post"`
	}
	if err := a.do(ctx, http.MethodPost, "/api/posts", req, &out); err != nil {
		return nil, err
	}
	return &out.Post, nil
}

func (a *API) GetPost(ctx context.Context, id string) (*Post, error) {
	var out struct {
		Post Post `json:"post"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/posts/"+escape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Post, nil
}

func (a *API) DeletePost(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, "/api/posts/"+escape(id), nil, nil)
}

// React toggles a reaction; the same type twice removes it
func (a *API) React(ctx context.Context, postID, reaction string) (*ReactionSummary, error) {
	var out ReactionSummary
	body := map[string]string{"type": reaction}
	if err := a.do(ctx, http.MethodPost, "/api/posts/"+escape(postID)+"/react", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Comment(ctx context.Context, postID, text string) (*Comment, error) {
	var out struct {
		Comment Comment `json:"comment"`
	}
	body := map[string]string{"text": text}
	if err := a.do(ctx, http.MethodPost, "/api/posts/"+escape(postID)+"/comments", body, &out); err != nil {
		return nil, err
	}
	return &out.Comment, nil
}

func (a *API) Comments(ctx context.Context, postID string, page, limit int) (*CommentPage, error) {
	var out CommentPage
	if err := a.do(ctx, http.MethodGet, "/api/posts/"+escape(postID)+"/comments"+pageQuery(page, limit), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Reshare(ctx context.Context, postID string, req ReshareRequest) (*Post, error) {
	var out struct {
		Post Post `json:"post"`
	}
	var body interface{}
	if req != (ReshareRequest{}) {
		body = req
	}
	if err := a.do(ctx, http.MethodPost, "/api/posts/"+escape(postID)+"/reshare", body, &out); err != nil {
		return nil, err
	}
	return &out.Post, nil
}

// ToggleBookmark returns the server's authoritative bookmark state
func (a *API) ToggleBookmark(ctx context.Context, postID string) (*BookmarkState, error) {
	var out BookmarkState
	if err := a.do(ctx, http.MethodPost, "/api/posts/"+escape(postID)+"/bookmark", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Bookmarks(ctx context.Context, page, limit int) (*PostPage, error) {
	var out PostPage
	if err := a.do(ctx, http.MethodGet, "/api/posts/bookmarks"+pageQuery(page, limit), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) BookmarkIDs(ctx context.Context) ([]string, error) {
	var out struct {
		IDs []string `json:"ids"`
	}
	if err := a.do(ctx, http.MethodGet, "/api/posts/bookmarks/ids", nil, &out); err != nil {
		return nil, err
	}
	return out.IDs, nil
}

func (a *API) FactCheck(ctx context.Context, postID string) (*FactCheck, error) {
	var out FactCheck
	if err := a.do(ctx, http.MethodGet, "/api/factcheck/"+escape(postID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Search(ctx context.Context, query, kind string, limit int) (*SearchResults, error) {
	q := url.Values{}
	q.Set("q", query)
	if kind != "" {
		q.Set("type", kind)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out SearchResults
	if err := a.do(ctx, http.MethodGet, "/api/search?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *API) Report(ctx context.Context, req ReportRequest) (*Report, error) {
	var out struct {
		Report Report `json:"report"`
	}
	if err := a.do(ctx, http.MethodPost, "/api/reports", req, &out); err != nil {
		return nil, err
	}
	return &out.Report, nil
}

// Upload sends a local image as multipart form data. kind is avatar, cover
// or post.
func (a *API) Upload(ctx context.Context, kind, path string) (*UploadResult, error) {
	var out UploadResult
	resp, err := a.c.R().
		SetContext(ctx).
		SetFile("file", path).
		SetFormData(map[string]string{"kind": kind}).
		SetResult(&out).
		Post("/api/uploads")
	if err := CheckResponse(resp, err); err != nil {
		return nil, err
	}
	return &out, nil
}
