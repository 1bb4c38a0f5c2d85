// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ituhouse/ituhouse-web/internal/model"
)

// ListPostsParams narrows a posts listing. AuthorID is optional.
type ListPostsParams struct {
	Page     int
	PageSize int
	AuthorID string
}

// ListPosts fetches one page of the posts feed. The token is optional; the
// feed is publicly readable.
func (c *Client) ListPosts(ctx context.Context, token string, params ListPostsParams) (*model.PaginatedPosts, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(params.Page))
	query.Set("page_size", strconv.Itoa(params.PageSize))
	if params.AuthorID != "" {
		query.Set("author_id", params.AuthorID)
	}

	var page model.PaginatedPosts
	if err := c.request(ctx, http.MethodGet, "/posts", query, nil, token, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// GetPost fetches a single post by ID.
func (c *Client) GetPost(ctx context.Context, token, postID string) (*model.Post, error) {
	var post model.Post
	if err := c.request(ctx, http.MethodGet, "/posts/"+postID, nil, nil, token, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost submits a new post and returns the server's copy.
func (c *Client) CreatePost(ctx context.Context, token, title, content, imageURL string) (*model.Post, error) {
	var post model.Post
	err := c.request(ctx, http.MethodPost, "/posts", nil, map[string]string{
		"title":     title,
		"content":   content,
		"image_url": imageURL,
	}, token, &post)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// ListComments fetches all comments for a post, in server order.
func (c *Client) ListComments(ctx context.Context, token, postID string) ([]model.Comment, error) {
	var comments []model.Comment
	if err := c.request(ctx, http.MethodGet, "/posts/"+postID+"/comments", nil, nil, token, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// CreateComment appends a comment to a post and returns the server's copy.
func (c *Client) CreateComment(ctx context.Context, token, postID, content string) (*model.Comment, error) {
	var comment model.Comment
	err := c.request(ctx, http.MethodPost, "/posts/"+postID+"/comments", nil, map[string]string{
		"content": content,
	}, token, &comment)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// UploadImage streams a multipart body (form field "file") to the backend's
// upload endpoint. contentType must be the multipart writer's, boundary
// included.
func (c *Client) UploadImage(ctx context.Context, token string, body io.Reader, contentType string) (*model.ImageUploadResponse, error) {
	var resp model.ImageUploadResponse
	if err := c.requestMultipart(ctx, "/api/uploads/images", body, contentType, token, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
