// Package assethost provides a client for the external image CDN where
// uploaded media is published.
package assethost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Asset identifies a published asset: the public URL to serve it from and
// the opaque identifier needed to delete it later.
type Asset struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

// Client is an asset-host API client.
type Client struct {
	BaseURL    string
	Key        string
	Secret     string
	HTTPClient *http.Client
}

// New creates a new asset-host client.
func New(baseURL, key, secret string) *Client {
	return &Client{
		BaseURL:    baseURL,
		Key:        key,
		Secret:     secret,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type uploadRequest struct {
	File   string `json:"file"`
	Folder string `json:"folder"`
	// Transformation asks the host to pick format and quality automatically.
	Transformation string `json:"transformation"`
}

type apiError struct {
	Message string `json:"message"`
}

// Upload publishes a data-URI encoded payload into the given folder and
// returns the public URL plus the asset identifier.
func (c *Client) Upload(ctx context.Context, dataURI, folder string) (*Asset, error) {
	reqBody := uploadRequest{
		File:           dataURI,
		Folder:         folder,
		Transformation: "q_auto,f_auto",
	}

	var asset Asset
	if err := c.post(ctx, "/image/upload", reqBody, &asset); err != nil {
		return nil, err
	}
	if asset.SecureURL == "" || asset.PublicID == "" {
		return nil, fmt.Errorf("asset host returned an incomplete upload result")
	}
	return &asset, nil
}

// Destroy deletes a previously published asset by its identifier.
func (c *Client) Destroy(ctx context.Context, publicID string) error {
	return c.post(ctx, "/image/destroy", map[string]string{"public_id": publicID}, nil)
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.Key, c.Secret)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		var ae apiError
		if json.Unmarshal(respBody, &ae) == nil && ae.Message != "" {
			return fmt.Errorf("asset host %s failed (%d): %s", path, resp.StatusCode, ae.Message)
		}
		return fmt.Errorf("asset host %s failed (%d)", path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("asset host %s: decode response: %w", path, err)
	}
	return nil
}
