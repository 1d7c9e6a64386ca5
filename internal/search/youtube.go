package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultYouTubeURL     = "https://www.googleapis.com/youtube/v3"
	youtubeResultsPerPage = 5
	youtubeWatchURL       = "https://www.youtube.com/watch?v="
)

// YouTube searches full-length movies through the YouTube Data API v3.
type YouTube struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewYouTube(baseURL, apiKey string) *YouTube {
	if baseURL == "" {
		baseURL = DefaultYouTubeURL
	}

	return &YouTube{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type youtubeSearchResponse struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Id struct {
			VideoId string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

type youtubeVideosResponse struct {
	Items []struct {
		Id      string `json:"id"`
		Snippet struct {
			Title      string `json:"title"`
			Thumbnails struct {
				Medium struct {
					Url string `json:"url"`
				} `json:"medium"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

func (y *YouTube) Search(ctx context.Context, query, pageToken string) (Page, error) {
	if y.apiKey == "" {
		return Page{}, fmt.Errorf("youtube.Search: %w", ErrNotConfigured)
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", query+" full movie")
	params.Set("type", "video")
	params.Set("videoType", "movie")
	params.Set("maxResults", fmt.Sprint(youtubeResultsPerPage))
	params.Set("key", y.apiKey)
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	var found youtubeSearchResponse
	if err := getJSON(ctx, y.httpClient, y.baseURL+"/search?"+params.Encode(), &found); err != nil {
		return Page{}, fmt.Errorf("youtube.Search: %w", err)
	}

	ids := make([]string, 0, len(found.Items))
	for _, item := range found.Items {
		if item.Id.VideoId != "" {
			ids = append(ids, item.Id.VideoId)
		}
	}
	if len(ids) == 0 {
		return Page{Results: []Video{}}, nil
	}

	params = url.Values{}
	params.Set("part", "contentDetails,snippet")
	params.Set("id", strings.Join(ids, ","))
	params.Set("key", y.apiKey)

	var details youtubeVideosResponse
	if err := getJSON(ctx, y.httpClient, y.baseURL+"/videos?"+params.Encode(), &details); err != nil {
		return Page{}, fmt.Errorf("youtube.Search: %w", err)
	}

	results := make([]Video, 0, len(details.Items))
	for _, item := range details.Items {
		results = append(results, Video{
			Id:        item.Id,
			Title:     item.Snippet.Title,
			Duration:  item.ContentDetails.Duration,
			Thumbnail: item.Snippet.Thumbnails.Medium.Url,
			Url:       youtubeWatchURL + item.Id,
			Source:    SourceYouTube,
		})
	}

	return Page{
		Results:       results,
		HasMore:       found.NextPageToken != "",
		NextPageToken: found.NextPageToken,
	}, nil
}
