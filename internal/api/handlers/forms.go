package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/dom/lost-found/internal/service"
)

// multipartOverhead is allowed on top of the image limit for the other form fields.
const multipartOverhead = 1 << 20

var errMalformedBody = errors.New("malformed request body")

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "multipart/form-data" || mediaType == "application/x-www-form-urlencoded"
}

// parseForm parses a multipart or urlencoded body bounded by maxUpload plus overhead.
func parseForm(w http.ResponseWriter, r *http.Request, maxUpload int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload+multipartOverhead)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUpload); err != nil {
			return fmt.Errorf("%w: %v", errMalformedBody, err)
		}
		return nil
	}
	if err := r.ParseForm(); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return nil
}

// formValue returns the first value for key and whether the key was sent at all.
func formValue(r *http.Request, key string) (string, bool) {
	values, ok := r.PostForm[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func formString(r *http.Request, key string) *string {
	v, ok := formValue(r, key)
	if !ok {
		return nil
	}
	return &v
}

func formInt(r *http.Request, key string) (*int, error) {
	v, ok := formValue(r, key)
	if !ok || strings.TrimSpace(v) == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return nil, &service.ValidationError{Fields: map[string]string{key: "A valid integer is required."}}
	}
	return &n, nil
}

func formList(r *http.Request, key string) *[]string {
	values, ok := r.PostForm[key]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return &out
}

// formImage reads an optional image file. It returns nil when the field is absent.
// The content is sniffed; anything that is not an image is rejected.
func formImage(r *http.Request, field string, maxBytes int64) (*service.ImageUpload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, &service.ValidationError{Fields: map[string]string{
			field: fmt.Sprintf("Image must not exceed %d bytes.", maxBytes),
		}}
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, &service.ValidationError{Fields: map[string]string{
			field: "Upload a valid image. The file you uploaded was either not an image or a corrupted image.",
		}}
	}

	return &service.ImageUpload{
		Filename:    header.Filename,
		ContentType: contentType,
		Body:        bytes.NewReader(data),
	}, nil
}
