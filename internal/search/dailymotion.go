package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultDailymotionURL     = "https://api.dailymotion.com"
	dailymotionResultsPerPage = 10
	dailymotionVideoURL       = "https://www.dailymotion.com/video/"
)

type Dailymotion struct {
	baseURL    string
	httpClient *http.Client
}

func NewDailymotion(baseURL string) *Dailymotion {
	if baseURL == "" {
		baseURL = DefaultDailymotionURL
	}

	return &Dailymotion{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

type dailymotionResponse struct {
	Page    int  `json:"page"`
	HasMore bool `json:"has_more"`
	List    []struct {
		Id           string  `json:"id"`
		Title        string  `json:"title"`
		Duration     float64 `json:"duration"`
		ThumbnailUrl string  `json:"thumbnail_url"`
	} `json:"list"`
}

// Search uses page numbers as page tokens; an empty token is the first page.
func (d *Dailymotion) Search(ctx context.Context, query, pageToken string) (Page, error) {
	page := 1
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil || n < 1 {
			return Page{}, fmt.Errorf("dailymotion.Search: invalid page token %q", pageToken)
		}
		page = n
	}

	params := url.Values{}
	params.Set("search", query)
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(dailymotionResultsPerPage))
	params.Set("fields", "id,title,duration,thumbnail_url")
	params.Set("sort", "relevance")
	params.Set("longer_than", "30")

	var resp dailymotionResponse
	if err := getJSON(ctx, d.httpClient, d.baseURL+"/videos?"+params.Encode(), &resp); err != nil {
		return Page{}, fmt.Errorf("dailymotion.Search: %w", err)
	}

	results := make([]Video, 0, len(resp.List))
	for _, item := range resp.List {
		results = append(results, Video{
			Id:        item.Id,
			Title:     item.Title,
			Duration:  fmt.Sprintf("%dm", int(item.Duration)/60),
			Thumbnail: item.ThumbnailUrl,
			Url:       dailymotionVideoURL + item.Id,
			Source:    SourceDailymotion,
		})
	}

	result := Page{Results: results, HasMore: resp.HasMore}
	if resp.HasMore {
		result.NextPageToken = strconv.Itoa(page + 1)
	}

	return result, nil
}
