// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler contains the HTTP handlers for the server-rendered pages.
package handler

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ituhouse/ituhouse-web/internal/api"
	"github.com/ituhouse/ituhouse-web/internal/authz"
	"github.com/ituhouse/ituhouse-web/internal/markdown"
	"github.com/ituhouse/ituhouse-web/internal/middleware"
	"github.com/ituhouse/ituhouse-web/internal/model"
	"github.com/ituhouse/ituhouse-web/internal/paging"
	"github.com/ituhouse/ituhouse-web/internal/render"
	"github.com/ituhouse/ituhouse-web/internal/session"
)

// maxFeedPages caps how many backend pages one request may accumulate.
const maxFeedPages = 50

// FrontendHandler handles the public pages: home, posts feed, post detail.
type FrontendHandler struct {
	client   *api.Client
	renderer *render.Renderer
	sessions *session.Store
	md       *markdown.Renderer
	pageSize int
}

// NewFrontendHandler creates a new FrontendHandler.
func NewFrontendHandler(client *api.Client, renderer *render.Renderer, sessions *session.Store, md *markdown.Renderer, pageSize int) *FrontendHandler {
	return &FrontendHandler{
		client:   client,
		renderer: renderer,
		sessions: sessions,
		md:       md,
		pageSize: pageSize,
	}
}

// Home renders the landing page.
func (h *FrontendHandler) Home(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if err := h.renderer.Render(w, r, "home", render.TemplateData{
		Title: "ituhouse",
		User:  user,
	}); err != nil {
		logAndInternalError(w, "failed to render home page", "error", err)
	}
}

// feedData is the view model for the posts feed.
type feedData struct {
	Posts     []model.Post
	HasMore   bool
	NextPages int
	AuthorID  string
}

// PostsFeed renders the accumulated posts feed. The pages query parameter
// selects how many backend pages are loaded (1..N); the "load more" link
// simply points at pages=N+1 so the grown list renders as one document.
func (h *FrontendHandler) PostsFeed(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	pages, err := strconv.Atoi(r.URL.Query().Get("pages"))
	if err != nil || pages < 1 {
		pages = 1
	}
	if pages > maxFeedPages {
		pages = maxFeedPages
	}

	controller := paging.NewController[model.Post](func(p model.Post) string { return p.ID })
	if err := h.loadFeedPages(r.Context(), controller, pages, ""); err != nil {
		slog.Error("failed to load posts feed", "category", "content", "error", err)
		flashError(w, r, h.renderer, redirectRoot, apiErrorMessage(err))
		return
	}

	data := feedData{
		Posts:     controller.Items(),
		HasMore:   controller.HasMore(),
		NextPages: pages + 1,
	}
	if err := h.renderer.Render(w, r, "posts", render.TemplateData{
		Title: "Posts",
		User:  user,
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "failed to render posts feed", "error", err)
	}
}

// loadFeedPages accumulates backend pages 1..pages into the controller,
// stopping early when the backend reports the end of the feed.
func (h *FrontendHandler) loadFeedPages(ctx context.Context, controller *paging.Controller[model.Post], pages int, authorID string) error {
	token := h.sessions.Token(ctx)
	fetch := func(ctx context.Context, page int) ([]model.Post, bool, error) {
		resp, err := h.client.ListPosts(ctx, token, api.ListPostsParams{
			Page:     page,
			PageSize: h.pageSize,
			AuthorID: authorID,
		})
		if err != nil {
			return nil, false, err
		}
		return resp.Items, resp.HasMore, nil
	}

	for i := 0; i < pages && controller.HasMore(); i++ {
		if err := controller.LoadNext(ctx, fetch); err != nil {
			return err
		}
	}
	return nil
}

// postDetailData is the view model for a single post page.
type postDetailData struct {
	Post     model.Post
	Content  template.HTML
	Comments []model.Comment
	CanReply bool
}

// PostDetail renders a single post with its comments.
func (h *FrontendHandler) PostDetail(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)

	postID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(postID); err != nil {
		http.NotFound(w, r)
		return
	}

	token := h.sessions.Token(r.Context())
	post, err := h.client.GetPost(r.Context(), token, postID)
	if err != nil {
		if api.IsNotFound(err) {
			http.NotFound(w, r)
			return
		}
		slog.Error("failed to load post", "category", "content", "post_id", postID, "error", err)
		flashError(w, r, h.renderer, redirectPosts, apiErrorMessage(err))
		return
	}

	comments, err := h.client.ListComments(r.Context(), token, postID)
	if err != nil {
		// The post still renders; comments degrade to empty with a flash.
		slog.Warn("failed to load comments", "category", "content", "post_id", postID, "error", err)
		h.renderer.SetFlash(r, "Comments are temporarily unavailable.", "error")
		comments = nil
	}

	content, err := h.md.Render(post.Content)
	if err != nil {
		logAndInternalError(w, "failed to render post content", "post_id", postID, "error", err)
		return
	}

	data := postDetailData{
		Post:     *post,
		Content:  content,
		Comments: comments,
		CanReply: authz.CanPost(user),
	}
	if err := h.renderer.Render(w, r, "post_detail", render.TemplateData{
		Title: post.Title,
		User:  user,
		Data:  data,
	}); err != nil {
		logAndInternalError(w, "failed to render post detail", "error", err)
	}
}

// NewPostForm renders the post composer. Guests get a login-required message
// instead of a form that would fail on submit.
func (h *FrontendHandler) NewPostForm(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if !authz.CanPost(user) {
		flashError(w, r, h.renderer, redirectLogin, "Please log in to post.")
		return
	}

	if err := h.renderer.Render(w, r, "post_new", render.TemplateData{
		Title: "New Post",
		User:  user,
	}); err != nil {
		logAndInternalError(w, "failed to render post composer", "error", err)
	}
}

// CreatePost handles the composer submission.
func (h *FrontendHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if !authz.CanPost(user) {
		flashError(w, r, h.renderer, redirectLogin, "Please log in to post.")
		return
	}

	if !parseFormOrRedirect(w, r, h.renderer, RoutePostsNew) {
		return
	}

	title := r.FormValue("title")
	content := r.FormValue("content")
	imageURL := r.FormValue("image_url")

	if title == "" || content == "" {
		flashError(w, r, h.renderer, RoutePostsNew, "Title and content are required.")
		return
	}

	token := h.sessions.Token(r.Context())
	post, err := h.client.CreatePost(r.Context(), token, title, content, imageURL)
	if err != nil {
		slog.Error("failed to create post", "category", "content", "user_id", user.ID, "error", err)
		flashError(w, r, h.renderer, RoutePostsNew, apiErrorMessage(err))
		return
	}

	slog.Info("post created", "category", "content", "post_id", post.ID, "user_id", user.ID)
	flashSuccess(w, r, h.renderer, RoutePosts+"/"+post.ID, "Post published.")
}

// CreateComment handles a comment submission on a post.
func (h *FrontendHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	postID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(postID); err != nil {
		http.NotFound(w, r)
		return
	}
	postURL := RoutePosts + "/" + postID

	user := middleware.GetUser(r)
	if !authz.CanPost(user) {
		flashError(w, r, h.renderer, redirectLogin, "Please log in to comment.")
		return
	}

	if !parseFormOrRedirect(w, r, h.renderer, postURL) {
		return
	}

	content := r.FormValue("content")
	if content == "" {
		flashError(w, r, h.renderer, postURL, "Comment cannot be empty.")
		return
	}

	token := h.sessions.Token(r.Context())
	if _, err := h.client.CreateComment(r.Context(), token, postID, content); err != nil {
		slog.Error("failed to create comment", "category", "content", "post_id", postID, "user_id", user.ID, "error", err)
		flashError(w, r, h.renderer, postURL, apiErrorMessage(err))
		return
	}

	flashSuccess(w, r, h.renderer, postURL, "Comment added.")
}
