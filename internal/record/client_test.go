package record

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func sampleRecord() Record {
	return Record{
		ID:          "123",
		Name:        "Test Person",
		Year:        "2023",
		State:       "Delhi",
		District:    "South Delhi",
		City:        "Saket",
		Address:     "12 Example Road\nSaket",
		PhoneNumber: "9876543210",
	}
}

func TestAddRecordWithoutAttachment(t *testing.T) {
	var gotAuth string
	var gotFields map[string]string
	var hadFile bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		gotFields = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			gotFields[k] = v[0]
		}
		_, hadFile = r.MultipartForm.File["file"]

		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)

	var events []int
	err := client.AddRecord(context.Background(), "bearer-token", sampleRecord(), func(pct int) {
		events = append(events, pct)
	})
	if err != nil {
		t.Fatal(err)
	}

	if gotAuth != "Bearer bearer-token" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if hadFile {
		t.Error("no attachment was set but a file part arrived")
	}
	if len(events) != 0 {
		t.Errorf("progress events without attachment: %v", events)
	}

	want := map[string]string{
		"id": "123", "name": "Test Person", "year": "2023",
		"state": "Delhi", "district": "South Delhi", "city": "Saket",
		"address": "12 Example Road\nSaket", "phone_number": "9876543210",
	}
	for k, v := range want {
		if gotFields[k] != v {
			t.Errorf("field %s = %q, want %q", k, gotFields[k], v)
		}
	}
}

func TestAddRecordProgress(t *testing.T) {
	content := strings.Repeat("x", 256<<10)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()

		if header.Filename != "evidence.pdf" {
			t.Errorf("filename = %q", header.Filename)
		}
		body, _ := io.ReadAll(file)
		if len(body) != len(content) {
			t.Errorf("received %d bytes, want %d", len(body), len(content))
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	rec := sampleRecord()
	rec.Attachment = &Attachment{
		Filename:    "evidence.pdf",
		ContentType: "application/pdf",
		Size:        int64(len(content)),
		Reader:      strings.NewReader(content),
	}

	var events []int
	err := NewClient(srv.URL).AddRecord(context.Background(), "bearer-token", rec, func(pct int) {
		events = append(events, pct)
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(events) < 2 {
		t.Fatalf("want at least start and end events, got %v", events)
	}
	if events[0] != 0 {
		t.Errorf("first event = %d, want 0", events[0])
	}
	if events[len(events)-1] != 100 {
		t.Errorf("last event = %d, want 100", events[len(events)-1])
	}
	for i := 1; i < len(events); i++ {
		if events[i] < events[i-1] {
			t.Fatalf("progress went backwards at %d: %v", i, events)
		}
		if events[i] > 100 {
			t.Fatalf("progress overshot 100: %v", events)
		}
	}
}

func TestAddRecordFilePartContentType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
	}{
		{"pdf", "application/pdf"},
		{"jpeg", "image/jpeg"},
		{"png", "image/png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotType string

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseMultipartForm(32 << 20); err != nil {
					t.Errorf("parse multipart: %v", err)
					w.WriteHeader(http.StatusBadRequest)
					return
				}
				gotType = r.MultipartForm.File["file"][0].Header.Get("Content-Type")
				w.WriteHeader(http.StatusOK)
			}))
			defer srv.Close()

			rec := sampleRecord()
			rec.Attachment = &Attachment{
				Filename:    "evidence",
				ContentType: tt.contentType,
				Size:        4,
				Reader:      strings.NewReader("data"),
			}

			if err := NewClient(srv.URL).AddRecord(context.Background(), "bearer-token", rec, nil); err != nil {
				t.Fatal(err)
			}
			if gotType != tt.contentType {
				t.Errorf("file part Content-Type = %q, want %q", gotType, tt.contentType)
			}
		})
	}
}

func TestAddRecordFieldOrder(t *testing.T) {
	var gotOrder []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil {
			t.Errorf("parse content type: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		mr := multipart.NewReader(r.Body, params["boundary"])
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Errorf("next part: %v", err)
				break
			}
			gotOrder = append(gotOrder, part.FormName())
		}

		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := NewClient(srv.URL).AddRecord(context.Background(), "bearer-token", sampleRecord(), nil); err != nil {
		t.Fatal(err)
	}

	want := []string{"id", "name", "year", "state", "district", "city", "address", "phone_number"}
	if len(gotOrder) != len(want) {
		t.Fatalf("parts = %v, want %v", gotOrder, want)
	}
	for i := range want {
		if gotOrder[i] != want[i] {
			t.Fatalf("part %d = %q, want %q (full order %v)", i, gotOrder[i], want[i], gotOrder)
		}
	}
}

func TestAddRecordServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"message": "Item with this FIR already exists"})
	}))
	defer srv.Close()

	err := NewClient(srv.URL).AddRecord(context.Background(), "bearer-token", sampleRecord(), nil)
	if err == nil {
		t.Fatal("expected error")
	}

	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("err = %T, want *ServerError", err)
	}
	if se.Message != "Item with this FIR already exists" {
		t.Errorf("Message = %q", se.Message)
	}
	if se.Status != http.StatusConflict {
		t.Errorf("Status = %d", se.Status)
	}
}

func TestAddRecordServerErrorWithoutMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).AddRecord(context.Background(), "bearer-token", sampleRecord(), nil)

	var se *ServerError
	if !errors.As(err, &se) {
		t.Fatalf("err = %T, want *ServerError", err)
	}
	if se.Message != "" {
		t.Errorf("Message = %q, want empty for a non-JSON body", se.Message)
	}
}

func TestFetchRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/items/view-item" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer bearer-token" {
			t.Errorf("Authorization = %q", got)
		}

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		if body["id"] != "123" || body["year"] != "2023" {
			t.Errorf("request body = %v", body)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"id":           "123",
			"year":         "2023",
			"district":     "South Delhi",
			"city":         "Saket",
			"address":      "12 Example Road",
			"name":         "Test Person",
			"phone_number": "9876543210",
			"upload_date":  map[string]int64{"_seconds": 1700000000},
			"recent_view":  nil,
			"file_url":     "https://files.example.com/123.pdf",
		})
	}))
	defer srv.Close()

	fetched, err := NewClient(srv.URL).FetchRecord(context.Background(), "bearer-token", "123", "2023")
	if err != nil {
		t.Fatal(err)
	}

	if fetched.ID != "123" || fetched.Year != "2023" {
		t.Errorf("identity = %s/%s", fetched.ID, fetched.Year)
	}
	if fetched.UploadDate == nil || fetched.UploadDate.Seconds != 1700000000 {
		t.Errorf("UploadDate = %+v", fetched.UploadDate)
	}
	if got := fetched.UploadDate.Time().Unix(); got != 1700000000 {
		t.Errorf("UploadDate.Time().Unix() = %d", got)
	}
	if fetched.RecentView != nil {
		t.Errorf("RecentView = %+v, want nil for null", fetched.RecentView)
	}
	if fetched.FileURL != "https://files.example.com/123.pdf" {
		t.Errorf("FileURL = %q", fetched.FileURL)
	}
}

func TestFetchRecordFailuresCollapse(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "no such item", http.StatusNotFound)
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "boom", http.StatusInternalServerError)
			},
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			fetched, err := NewClient(srv.URL).FetchRecord(context.Background(), "t", "123", "2023")
			if fetched != nil {
				t.Errorf("fetched = %+v, want nil", fetched)
			}
			if !errors.Is(err, ErrItemNotFound) {
				t.Errorf("err = %v, want ErrItemNotFound", err)
			}
		})
	}
}

func TestFetchRecordTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	_, err := NewClient(srv.URL).FetchRecord(context.Background(), "t", "123", "2023")
	if !errors.Is(err, ErrItemNotFound) {
		t.Errorf("err = %v, want ErrItemNotFound", err)
	}
}
