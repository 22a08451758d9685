package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"boxproof/evidence-api/internal/apperr"
	"boxproof/evidence-api/internal/model"
)

// URL forwards blobs to an external save endpoint as a multipart form
// and trusts the endpoint's JSON response for the final locator.
type URL struct {
	SaveURL string
	APIKey  string
	Client  *http.Client
}

// urlResponse is the subset of the upstream response we care about.
type urlResponse struct {
	Path     string `json:"path"`
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

func NewURL(saveURL, apiKey string) *URL {
	return &URL{
		SaveURL: saveURL,
		APIKey:  apiKey,
		Client:  &http.Client{Timeout: time.Minute},
	}
}

func (u *URL) Store(ctx context.Context, blob io.Reader, req SaveRequest) (*StoredObject, error) {
	filename := newFilename(req.MimeType)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart form, %w", err)
	}
	if _, err := io.Copy(part, blob); err != nil {
		return nil, fmt.Errorf("failed to copy blob into form, %w", err)
	}

	fields := map[string]string{
		"orderId":   req.OrderID,
		"date":      today(),
		"timestamp": strconv.FormatInt(time.Now().UnixMilli(), 10),
	}
	if req.SkuID != "" {
		fields["skuId"] = req.SkuID
	}
	if req.Notes != "" {
		fields["notes"] = req.Notes
	}
	for k, v := range fields {
		if err := form.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to write form field, %w", err)
		}
	}

	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart form, %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.SaveURL, &body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err, "save URL is not usable")
	}

	httpReq.Header.Set("Content-Type", form.FormDataContentType())
	if u.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+u.APIKey)
	}

	resp, err := u.Client.Do(httpReq)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, err, "save endpoint unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, apperr.New(apperr.KindUpstream, "save endpoint returned %d: %s", resp.StatusCode, string(errBody))
	}

	var parsed urlResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, apperr.Wrap(apperr.KindUpstream, err, "save endpoint returned an unparsable response")
	}

	path := parsed.Path
	if path == "" {
		path = parsed.URL
	}
	if parsed.Filename == "" {
		parsed.Filename = filename
	}

	return &StoredObject{
		Path:        path,
		URL:         parsed.URL,
		Filename:    parsed.Filename,
		StorageType: model.StorageURL,
	}, nil
}
