package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/trellis-pm/trellis/internal/model"
)

// HTTPClient implements TrellisClient using the trellis HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

func workspacePath(slug string) string {
	return "/v1/workspaces/" + url.PathEscape(slug)
}

func projectPath(slug, projectID string) string {
	return workspacePath(slug) + "/projects/" + url.PathEscape(projectID)
}

func issuePath(slug, projectID, issueID string) string {
	return projectPath(slug, projectID) + "/issues/" + url.PathEscape(issueID)
}

// --- Workspaces ---

func (c *HTTPClient) CreateWorkspace(ctx context.Context, req *CreateWorkspaceRequest) (*model.Workspace, error) {
	var ws model.Workspace
	if err := c.doJSON(ctx, http.MethodPost, "/v1/workspaces", req, &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

func (c *HTTPClient) GetWorkspace(ctx context.Context, slug string) (*model.Workspace, error) {
	var ws model.Workspace
	if err := c.doJSON(ctx, http.MethodGet, workspacePath(slug), nil, &ws); err != nil {
		return nil, err
	}
	return &ws, nil
}

// --- Projects ---

func (c *HTTPClient) CreateProject(ctx context.Context, slug string, req *CreateProjectRequest) (*model.Project, error) {
	var project model.Project
	if err := c.doJSON(ctx, http.MethodPost, workspacePath(slug)+"/projects", req, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *HTTPClient) GetProject(ctx context.Context, slug, projectID string) (*model.Project, error) {
	var project model.Project
	if err := c.doJSON(ctx, http.MethodGet, projectPath(slug, projectID), nil, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

func (c *HTTPClient) ListProjects(ctx context.Context, slug string) ([]*model.Project, error) {
	var resp struct {
		Projects []*model.Project `json:"projects"`
	}
	if err := c.doJSON(ctx, http.MethodGet, workspacePath(slug)+"/projects", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Projects, nil
}

// --- Issues ---

func (c *HTTPClient) CreateIssue(ctx context.Context, slug, projectID string, req *CreateIssueRequest) (*model.Issue, error) {
	var issue model.Issue
	if err := c.doJSON(ctx, http.MethodPost, projectPath(slug, projectID)+"/issues", req, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

func (c *HTTPClient) GetIssue(ctx context.Context, slug, projectID, issueID string) (*model.Issue, error) {
	var issue model.Issue
	if err := c.doJSON(ctx, http.MethodGet, issuePath(slug, projectID, issueID), nil, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

func (c *HTTPClient) ListIssues(ctx context.Context, slug, projectID string, req *ListIssuesRequest) (*ListIssuesResponse, error) {
	q := url.Values{}
	for _, s := range req.State {
		q.Add("state", s)
	}
	for _, p := range req.Priority {
		q.Add("priority", p)
	}
	if req.ParentID != "" {
		q.Set("parent_id", req.ParentID)
	}
	if req.Search != "" {
		q.Set("search", req.Search)
	}
	if req.Sort != "" {
		q.Set("sort", req.Sort)
	}
	if req.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", req.Limit))
	}
	if req.Offset > 0 {
		q.Set("offset", fmt.Sprintf("%d", req.Offset))
	}

	path := projectPath(slug, projectID) + "/issues"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp ListIssuesResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) DeleteIssue(ctx context.Context, slug, projectID, issueID string) error {
	return c.doJSON(ctx, http.MethodDelete, issuePath(slug, projectID, issueID), nil, nil)
}

func (c *HTTPClient) AddLink(ctx context.Context, slug, projectID, issueID string, req *AddLinkRequest) (*model.IssueLink, error) {
	var link model.IssueLink
	if err := c.doJSON(ctx, http.MethodPost, issuePath(slug, projectID, issueID)+"/links", req, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// --- Relations ---

func (c *HTTPClient) ListRelations(ctx context.Context, slug, projectID, issueID string) (*model.RelationGroups, error) {
	var groups model.RelationGroups
	if err := c.doJSON(ctx, http.MethodGet, issuePath(slug, projectID, issueID)+"/relations", nil, &groups); err != nil {
		return nil, err
	}
	return &groups, nil
}

func (c *HTTPClient) CreateRelations(ctx context.Context, slug, projectID, issueID string, req *CreateRelationsRequest) ([]*model.Relation, error) {
	var resp struct {
		Relations []*model.Relation `json:"relations"`
	}
	if err := c.doJSON(ctx, http.MethodPost, issuePath(slug, projectID, issueID)+"/relations", req, &resp); err != nil {
		return nil, err
	}
	return resp.Relations, nil
}

func (c *HTTPClient) RemoveRelation(ctx context.Context, slug, projectID, issueID string, req *RemoveRelationRequest) error {
	return c.doJSON(ctx, http.MethodDelete, issuePath(slug, projectID, issueID)+"/relations", req, nil)
}

// --- Activities ---

func (c *HTTPClient) ListActivities(ctx context.Context, slug, projectID, issueID string) ([]*model.Activity, error) {
	var resp struct {
		Activities []*model.Activity `json:"activities"`
	}
	if err := c.doJSON(ctx, http.MethodGet, issuePath(slug, projectID, issueID)+"/activities", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Activities, nil
}

func (c *HTTPClient) ListNotifications(ctx context.Context, slug, projectID, issueID string) ([]*model.Notification, error) {
	var resp struct {
		Notifications []*model.Notification `json:"notifications"`
	}
	if err := c.doJSON(ctx, http.MethodGet, issuePath(slug, projectID, issueID)+"/notifications", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Notifications, nil
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content: success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
