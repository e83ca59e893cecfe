// Package record is the client for the remote record backend. The backend
// owns all persistence and search; this package only speaks its two
// endpoints and attaches the caller's bearer token.
package record

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, `\"`)

const (
	addItemPath  = "/items/add-item"
	viewItemPath = "/items/view-item"
)

// MsgItemNotFound is the one message the view screen shows for any failed
// lookup. The backend does not let us distinguish not-found from other
// failures, so neither do we.
const MsgItemNotFound = "Item not found. Please check the ID and Year."

// ErrItemNotFound covers every failed fetch, including transport errors.
var ErrItemNotFound = errors.New("item not found")

// ServerError carries the backend's message field, when it sent one, so the
// add screen can surface it verbatim.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend returned %d", e.Status)
}

// Attachment is the optional file accompanying a record. Size must be the
// exact byte length; it drives the upload-progress percentage. The caller
// owns closing the underlying file.
type Attachment struct {
	Filename    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// Record is the add-item payload. Every field except the attachment is
// required and validated by the view layer before it gets here.
type Record struct {
	ID          string
	Name        string
	Year        string
	State       string
	District    string
	City        string
	Address     string
	PhoneNumber string

	Attachment *Attachment
}

// EpochTime decodes the backend's {"_seconds": N} timestamp encoding.
type EpochTime struct {
	Seconds int64 `json:"_seconds"`
}

func (e *EpochTime) Time() time.Time {
	return time.Unix(e.Seconds, 0)
}

// FetchedRecord is the read-only projection returned by view-item. RecentView
// is bumped server-side as a side effect of the fetch itself and may be null
// for a record nobody looked at before.
type FetchedRecord struct {
	ID          string     `json:"id"`
	Year        string     `json:"year"`
	District    string     `json:"district"`
	City        string     `json:"city"`
	Address     string     `json:"address"`
	Name        string     `json:"name"`
	PhoneNumber string     `json:"phone_number"`
	UploadDate  *EpochTime `json:"upload_date"`
	RecentView  *EpochTime `json:"recent_view"`
	FileURL     string     `json:"file_url"`
}

// ProgressFunc receives upload progress as a whole percentage, 0 through
// 100, monotonically non-decreasing. It is only invoked when the record
// carries an attachment.
type ProgressFunc func(pct int)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
	}
}

// AddRecord submits a record as a multipart payload. With an attachment the
// body is streamed so progress tracks actual transmission: the callback sees
// 0 before the first file byte and 100 after the last. Without an attachment
// no progress events fire at all.
func (c *Client) AddRecord(ctx context.Context, token string, rec Record, progress ProgressFunc) error {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		err := writeMultipart(mw, rec, progress)
		if cerr := mw.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+addItemPath, pr)
	if err != nil {
		pr.Close()
		return fmt.Errorf("create add-item request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post add-item: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &ServerError{Status: resp.StatusCode, Message: decodeMessage(resp.Body)}
	}

	return nil
}

func writeMultipart(mw *multipart.Writer, rec Record, progress ProgressFunc) error {
	fields := []struct {
		name, value string
	}{
		{"id", rec.ID},
		{"name", rec.Name},
		{"year", rec.Year},
		{"state", rec.State},
		{"district", rec.District},
		{"city", rec.City},
		{"address", rec.Address},
		{"phone_number", rec.PhoneNumber},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return fmt.Errorf("write field %s: %w", f.name, err)
		}
	}

	att := rec.Attachment
	if att == nil {
		return nil
	}

	// CreateFormFile would stamp the part application/octet-stream; the
	// backend needs the attachment's actual type.
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(att.Filename)))
	header.Set("Content-Type", att.ContentType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return fmt.Errorf("create file part: %w", err)
	}

	if progress != nil {
		progress(0)
	}

	counter := &progressWriter{dst: part, total: att.Size, report: progress}
	if _, err := io.Copy(counter, att.Reader); err != nil {
		return fmt.Errorf("copy attachment: %w", err)
	}

	if progress != nil {
		progress(100)
	}

	return nil
}

// progressWriter reports whole percentages as bytes pass through. The final
// 100 is emitted by the caller once the copy completes, so a short total
// never overshoots.
type progressWriter struct {
	dst     io.Writer
	total   int64
	written int64
	last    int
	report  ProgressFunc
}

func (p *progressWriter) Write(b []byte) (int, error) {
	n, err := p.dst.Write(b)
	p.written += int64(n)

	if p.report != nil && p.total > 0 {
		pct := int(p.written * 100 / p.total)
		if pct > 99 {
			pct = 99
		}
		if pct > p.last {
			p.last = pct
			p.report(pct)
		}
	}

	return n, err
}

// FetchRecord looks up a record by id and year. Both values travel as
// strings. Any failure collapses into ErrItemNotFound; the backend's
// contract does not distinguish a missing record from a broken request.
func (c *Client) FetchRecord(ctx context.Context, token, id, year string) (*FetchedRecord, error) {
	body, err := json.Marshal(map[string]string{
		"year": year,
		"id":   id,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal view-item body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+viewItemPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create view-item request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post view-item: %v: %w", err, ErrItemNotFound)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("view-item status %d: %w", resp.StatusCode, ErrItemNotFound)
	}

	var fetched FetchedRecord
	if err := json.NewDecoder(resp.Body).Decode(&fetched); err != nil {
		return nil, fmt.Errorf("decode view-item response: %w", ErrItemNotFound)
	}

	return &fetched, nil
}

func decodeMessage(r io.Reader) string {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return ""
	}
	return payload.Message
}
