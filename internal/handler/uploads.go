// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/ituhouse/ituhouse-web/internal/api"
	"github.com/ituhouse/ituhouse-web/internal/authz"
	"github.com/ituhouse/ituhouse-web/internal/imaging"
	"github.com/ituhouse/ituhouse-web/internal/middleware"
	"github.com/ituhouse/ituhouse-web/internal/session"
)

// UploadHandler proxies image uploads to the backend after local
// preprocessing.
type UploadHandler struct {
	client    *api.Client
	sessions  *session.Store
	processor *imaging.Processor
	maxBytes  int64
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(client *api.Client, sessions *session.Store, processor *imaging.Processor, maxBytes int64) *UploadHandler {
	return &UploadHandler{
		client:    client,
		sessions:  sessions,
		processor: processor,
		maxBytes:  maxBytes,
	}
}

// UploadImage accepts a multipart form with a "file" field, orients and
// downscales the image, and forwards it to the backend. Responds with the
// backend's JSON so the composer can insert the hosted URL.
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	if !authz.CanPost(user) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Please log in to upload images."})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"detail": "File is too large."})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Missing file field."})
		return
	}
	defer func() { _ = file.Close() }()

	result, err := h.processor.Process(file)
	if err != nil {
		slog.Warn("rejected image upload", "category", "upload", "user_id", user.ID, "filename", header.Filename, "error", err)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": "Unsupported or corrupt image."})
		return
	}

	// Rebuild a multipart body around the processed bytes
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", header.Filename)
	if err != nil {
		logAndInternalError(w, "failed to build upload body", "error", err)
		return
	}
	if _, err := part.Write(result.Data); err != nil {
		logAndInternalError(w, "failed to build upload body", "error", err)
		return
	}
	if err := writer.Close(); err != nil {
		logAndInternalError(w, "failed to build upload body", "error", err)
		return
	}

	token := h.sessions.Token(r.Context())
	resp, err := h.client.UploadImage(r.Context(), token, &body, writer.FormDataContentType())
	if err != nil {
		slog.Error("backend upload failed", "category", "upload", "user_id", user.ID, "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"detail": apiErrorMessage(err)})
		return
	}

	slog.Info("image uploaded",
		"category", "upload",
		"user_id", user.ID,
		"filename", resp.Filename,
		"size", resp.Size,
		"width", result.Width,
		"height", result.Height,
	)
	writeJSON(w, http.StatusCreated, resp)
}
