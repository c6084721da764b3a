package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
	}
}

// ScriptInput is the body of create and update requests.
type ScriptInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Command     string `json:"command"`
	Category    string `json:"category"`
}

func (c *Client) Health() (map[string]interface{}, error) {
	return c.get("/api/v1/health")
}

func (c *Client) GetStats() (map[string]interface{}, error) {
	return c.get("/api/v1/stats")
}

func (c *Client) ListCategories() (map[string]interface{}, error) {
	return c.get("/api/v1/categories")
}

func (c *Client) ListScripts(category string) (map[string]interface{}, error) {
	path := "/api/v1/scripts"
	if category != "" {
		path += "?category=" + url.QueryEscape(category)
	}
	return c.get(path)
}

func (c *Client) GetScript(id string) (map[string]interface{}, error) {
	return c.get("/api/v1/scripts/" + url.PathEscape(id))
}

func (c *Client) CreateScript(in ScriptInput) (map[string]interface{}, error) {
	return c.send(http.MethodPost, "/api/v1/scripts", in, http.StatusCreated)
}

func (c *Client) UpdateScript(id string, in ScriptInput) (map[string]interface{}, error) {
	return c.send(http.MethodPut, "/api/v1/scripts/"+url.PathEscape(id), in, http.StatusOK)
}

func (c *Client) DeleteScript(id string) (map[string]interface{}, error) {
	return c.send(http.MethodDelete, "/api/v1/scripts/"+url.PathEscape(id), nil, http.StatusOK)
}

// RunScript starts a run. With wait it blocks until the output is final.
func (c *Client) RunScript(id string, wait bool) (map[string]interface{}, error) {
	path := "/api/v1/scripts/" + url.PathEscape(id) + "/run"
	if wait {
		return c.send(http.MethodPost, path+"?wait=true", nil, http.StatusOK)
	}
	return c.send(http.MethodPost, path, nil, http.StatusAccepted)
}

func (c *Client) GetOutput(id string) (map[string]interface{}, error) {
	return c.get("/api/v1/scripts/" + url.PathEscape(id) + "/output")
}

func (c *Client) GetExecutions(id string, limit int) (map[string]interface{}, error) {
	path := "/api/v1/scripts/" + url.PathEscape(id) + "/executions"
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	return c.get(path)
}

func (c *Client) get(path string) (map[string]interface{}, error) {
	return c.send(http.MethodGet, path, nil, http.StatusOK)
}

func (c *Client) send(method, path string, body interface{}, wantStatus int) (map[string]interface{}, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return result, nil
}
