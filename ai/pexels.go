package ai

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultPexelsBase = "https://api.pexels.com"

// Image is one stock-photo search hit with its attribution.
type Image struct {
	URL             string
	Photographer    string
	PhotographerURL string
}

// PexelsClient looks up a stock photo matching a reminder's task text.
type PexelsClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewPexelsClient(apiKey string) *PexelsClient {
	return &PexelsClient{
		apiKey:  apiKey,
		baseURL: defaultPexelsBase,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type pexelsSearchResponse struct {
	Photos []struct {
		Photographer    string `json:"photographer"`
		PhotographerURL string `json:"photographer_url"`
		Src             struct {
			Original string `json:"original"`
		} `json:"src"`
	} `json:"photos"`
}

// FindImage returns the top search result for the query, or nil when the
// search came back empty.
func (c *PexelsClient) FindImage(query string) (*Image, error) {
	endpoint := fmt.Sprintf("%s/v1/search?query=%s&per_page=1", c.baseURL, url.QueryEscape(query))

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("Pexels API error (status %d): %s", resp.StatusCode, string(body))
	}

	var result pexelsSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if len(result.Photos) == 0 {
		return nil, nil
	}

	photo := result.Photos[0]
	return &Image{
		URL:             photo.Src.Original,
		Photographer:    photo.Photographer,
		PhotographerURL: photo.PhotographerURL,
	}, nil
}
