package youtube

import (
	"context"
	"fmt"
	"html"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

type Client struct {
	service *youtube.Service
	debug   bool
}

func New(ctx context.Context, key string, debug bool) (*Client, error) {
	service, err := youtube.NewService(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("youtube: couldn't create service: %w", err)
	}
	return &Client{
		service: service,
		debug:   debug,
	}, nil
}

type Video struct {
	Title string
	ID    string
}

// URL returns the watch page address of the video.
func (v Video) URL() string {
	return "https://www.youtube.com/watch?v=" + v.ID
}

// Search returns up to limit videos matching a free text query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Video, error) {
	if limit <= 0 {
		limit = 5
	}
	call := c.service.Search.List([]string{"snippet"}).
		Q(query).
		MaxResults(int64(limit)).
		Type("video").
		Context(ctx)
	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("youtube: couldn't search videos: %w", err)
	}
	if c.debug {
		b, _ := resp.MarshalJSON()
		fmt.Println("youtube:", string(b))
	}

	var videos []Video
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" {
			continue
		}
		videos = append(videos, Video{
			Title: html.UnescapeString(item.Snippet.Title),
			ID:    item.Id.VideoId,
		})
	}
	return videos, nil
}
