package photos

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/shtamir/family-tv-dashboard/internal/errors"
)

const albumPageSize = 50

// JSONPoster sends an authenticated JSON request; auth.Fetcher implements it
type JSONPoster interface {
	PostJSON(ctx context.Context, url string, body, out any) error
}

// Client searches the photo library
type Client struct {
	fetcher JSONPoster
	baseURL string
}

func NewClient(fetcher JSONPoster, baseURL string) *Client {
	return &Client{fetcher: fetcher, baseURL: strings.TrimRight(baseURL, "/")}
}

type searchRequest struct {
	AlbumID  string `json:"albumId"`
	PageSize int    `json:"pageSize"`
}

type searchResponse struct {
	MediaItems []struct {
		ID      string `json:"id"`
		BaseURL string `json:"baseUrl"`
	} `json:"mediaItems"`
}

// AlbumPhotos returns the URLs of the first page of photos in albumID. An unset album id
// fails before any request is made.
func (c *Client) AlbumPhotos(ctx context.Context, albumID string) ([]string, error) {
	if albumID == "" {
		return nil, apperrors.Missing("photo album id")
	}

	var resp searchResponse
	err := c.fetcher.PostJSON(ctx, c.baseURL+"/v1/mediaItems:search",
		searchRequest{AlbumID: albumID, PageSize: albumPageSize}, &resp)
	if err != nil {
		return nil, fmt.Errorf("[AlbumPhotos] %w", err)
	}

	urls := make([]string, 0, len(resp.MediaItems))
	for _, item := range resp.MediaItems {
		if item.BaseURL != "" {
			urls = append(urls, item.BaseURL)
		}
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("[AlbumPhotos] no photos found in album %s", albumID)
	}
	return urls, nil
}
