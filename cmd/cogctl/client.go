package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to a running cogmeshd gateway.
type Client struct {
	base string
	http *http.Client
}

// NewClient creates a client for the gateway at base (scheme://host:port).
func NewClient(base string) *Client {
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// Get fetches one textual listing.
func (c *Client) Get(path string) (string, error) {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return "", fmt.Errorf("gateway unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gateway returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return string(body), nil
}

// Ctl sends one control command and returns the gateway's response.
func (c *Client) Ctl(command string) (string, error) {
	resp, err := c.http.Post(c.base+"/ctl", "text/plain", strings.NewReader(command))
	if err != nil {
		return "", fmt.Errorf("gateway unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("command rejected: %s", strings.TrimSpace(string(body)))
	}
	return string(body), nil
}
