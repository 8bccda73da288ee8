package handlers

import (
	"mime"
	"net/http"
	"net/url"
	"strings"
	"todolist/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxFormMemory = 1 << 20

// parseForm accepts urlencoded and multipart bodies and returns the posted fields.
func parseForm(r *http.Request) (url.Values, error) {
	if checkContentType(r, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			return nil, service.NewBusinessError(service.CodeValidation, "malformed form body")
		}
		return r.PostForm, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, service.NewBusinessError(service.CodeValidation, "malformed form body")
	}
	return r.PostForm, nil
}

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

// pathID reads a uuid url parameter. Malformed ids can never name a visible object,
// so they are answered like missing ones.
func pathID(r *http.Request, name, resource string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, service.NewNotFound(resource, raw)
	}
	return id, nil
}

// safeNext returns next when it is a local absolute path, otherwise fallback.
func safeNext(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return fallback
	}
	return next
}
