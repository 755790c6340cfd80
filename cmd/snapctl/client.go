package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// apiClient talks to an inventory server instance.
type apiClient struct {
	base   string
	apiKey string
	http   *http.Client
}

func newAPIClient(cfg *cliConfig) (*apiClient, error) {
	if cfg.Server == "" {
		return nil, errors.New("no server configured; set server: in snapctl.yaml or pass --config")
	}
	return &apiClient{
		base:   cfg.Server,
		apiKey: cfg.APIKey,
		http:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// do issues one request and decodes the JSON response into out. Non-2xx
// responses surface the server's error message when it sent one.
func (c *apiClient) do(method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var serverErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &serverErr) == nil && serverErr.Error != "" {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, serverErr.Error)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

// printJSON re-indents a decoded document for terminal output.
func printJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
