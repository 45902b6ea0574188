package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/example/capstayson/assets"
	"github.com/example/capstayson/internal/feed"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// statusFor maps store errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, feed.ErrPostNotFound),
		errors.Is(err, feed.ErrProfileNotFound),
		errors.Is(err, feed.ErrBlobNotFound):
		return http.StatusNotFound
	case errors.Is(err, feed.ErrEmptyComment),
		errors.Is(err, feed.ErrEmptyImage),
		errors.Is(err, feed.ErrInvalidKey):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		msg = "internal error"
	}
	writeError(w, status, msg)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "status": "ok"})
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	n := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		n = parsed
	}
	posts, err := s.store.ListRecent(r.Context(), n)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "posts": posts})
}

func (s *Server) handleAll(w http.ResponseWriter, r *http.Request) {
	posts, err := s.store.ListAll(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "posts": posts})
}

func (s *Server) handlePost(w http.ResponseWriter, r *http.Request) {
	post, err := s.store.FindByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "post": post})
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	post, err := s.store.FindByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"url":     feed.ShareURL(s.cfg.SiteURL, post.ID),
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	prof, err := s.store.Profile(r.Context(), mux.Vars(r)["handle"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "profile": prof})
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.store.Users(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "users": users})
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "expected a multipart form")
		return
	}
	file, _, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing image")
		return
	}
	defer func() { _ = file.Close() }()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(file); err != nil {
		writeError(w, http.StatusBadRequest, "could not read image")
		return
	}
	if !bytes.HasPrefix(buf.Bytes(), pngMagic) {
		writeError(w, http.StatusBadRequest, "image must be a PNG")
		return
	}
	caps := 0
	if v := strings.TrimSpace(r.FormValue("caps")); v != "" {
		caps, err = strconv.Atoi(v)
		if err != nil || caps < 0 {
			writeError(w, http.StatusBadRequest, "caps must be a non-negative integer")
			return
		}
	}
	post, err := s.store.Publish(r.Context(), feed.PublishRequest{
		PNG:    buf.Bytes(),
		Caps:   caps,
		Handle: r.FormValue("handle"),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.metrics.published.Inc()
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"post":     post,
		"imageId":  post.ID,
		"imageUrl": post.URL,
	})
}

func (s *Server) handleLike(w http.ResponseWriter, r *http.Request) {
	post, err := s.store.ToggleLike(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "post": post})
}

type commentRequest struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

func (s *Server) handleComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid comment: %v", err))
		return
	}
	c, err := s.store.AddComment(r.Context(), mux.Vars(r)["id"], req.Text, req.Author)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "comment": c})
}

func contentTypeFor(key string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(key)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

func (s *Server) handleBlob(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	data, err := s.store.Blobs().Get(r.Context(), key)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypeFor(key, data))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if key != feed.MetadataKey {
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	}
	_, _ = w.Write(data)
}

func (s *Server) handleCapAsset(w http.ResponseWriter, _ *http.Request) {
	data := assets.CapPNG()
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}
