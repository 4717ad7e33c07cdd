package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	// httptest servers keep idle keep-alive connections briefly after Close.
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

func TestSearchProperties_SendsOnlyProvidedParams(t *testing.T) {
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []map[string]any{
				{"id": "p1", "title": "Sunrise Flat", "city": "Pune", "price": 25000, "forType": "RENT", "propertyType": "APARTMENT"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	params := url.Values{}
	params.Set("city", "Pune")
	params.Set("minPrice", "10000")

	results, err := c.SearchProperties(context.Background(), params)
	if err != nil {
		t.Fatalf("SearchProperties failed: %v", err)
	}
	if len(results) != 1 || results[0].ID != "p1" {
		t.Fatalf("unexpected results: %+v", results)
	}

	if got := gotQuery.Get("city"); got != "Pune" {
		t.Errorf("expected city=Pune, got %q", got)
	}
	if _, present := gotQuery["bedrooms"]; present {
		t.Error("unconstrained field bedrooms must not appear in the query")
	}
	if len(gotQuery) != 2 {
		t.Errorf("expected exactly 2 params, got %v", gotQuery)
	}
}

func TestSearchProperties_EmptyQueryHasNoParams(t *testing.T) {
	var gotRawQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRawQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(map[string]any{"success": true, "data": []any{}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.SearchProperties(context.Background(), url.Values{}); err != nil {
		t.Fatalf("SearchProperties failed: %v", err)
	}
	if gotRawQuery != "" {
		t.Errorf("empty filter must send no query string, got %q", gotRawQuery)
	}
}

func TestGetProperty_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"success": false})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.GetProperty(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetProperty_ParsesFullRecord(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/properties/p7" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"id": "p7", "title": "Lake View Villa", "description": "Quiet.",
				"city": "Udaipur", "price": 9500000,
				"propertyType": "VILLA", "forType": "SALE",
				"bedrooms": 4, "area": 2400, "areaUnit": "sqft",
				"files": []map[string]string{{"id": "m1", "url": "/uploads/m1.jpg"}},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	p, err := c.GetProperty(context.Background(), "p7")
	if err != nil {
		t.Fatalf("GetProperty failed: %v", err)
	}
	if p.Title != "Lake View Villa" || p.PropertyType != TypeVilla {
		t.Errorf("unexpected property: %+v", p)
	}
	if p.Bedrooms == nil || *p.Bedrooms != 4 {
		t.Errorf("expected 4 bedrooms, got %v", p.Bedrooms)
	}
	if len(p.Files) != 1 || p.Files[0].URL != "/uploads/m1.jpg" {
		t.Errorf("unexpected media: %+v", p.Files)
	}
}

func TestCreateProperty_ReturnsAssignedID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode create request: %v", err)
		}
		if req.Title != "2BHK in Baner" {
			t.Errorf("unexpected title %q", req.Title)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]string{"id": "p1"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	id, err := c.CreateProperty(context.Background(), CreateRequest{
		Title: "2BHK in Baner", Price: 25000,
		PropertyType: TypeApartment, ForType: ForRent,
	})
	if err != nil {
		t.Fatalf("CreateProperty failed: %v", err)
	}
	if id != "p1" {
		t.Errorf("expected id p1, got %s", id)
	}
}

func TestAttachMedia_SendsMultipartBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("propertyId"); got != "p1" {
			t.Errorf("expected propertyId=p1, got %q", got)
		}
		if files := r.MultipartForm.File["images"]; len(files) != 2 {
			t.Errorf("expected 2 images, got %d", len(files))
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	err := c.AttachMedia(context.Background(), "p1", []MediaFile{
		{Name: "a.jpg", Content: []byte("aaa")},
		{Name: "b.jpg", Content: []byte("bbb")},
	})
	if err != nil {
		t.Fatalf("AttachMedia failed: %v", err)
	}
}

func TestAttachMedia_ServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := c.AttachMedia(context.Background(), "p1", []MediaFile{{Name: "a.jpg"}}); err == nil {
		t.Fatal("expected error on 500")
	}
}

func TestSendChatMessage_ParsesReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["message"] != "2BHK under 25000" {
			t.Errorf("unexpected message %q", req["message"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"response":   "Found 2 options",
			"properties": []map[string]string{{"id": "p9", "title": "Sunrise Flat"}},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	reply, err := c.SendChatMessage(context.Background(), "2BHK under 25000")
	if err != nil {
		t.Fatalf("SendChatMessage failed: %v", err)
	}
	if reply.Response != "Found 2 options" {
		t.Errorf("unexpected reply text %q", reply.Response)
	}
	if len(reply.Properties) != 1 || reply.Properties[0].ID != "p9" {
		t.Errorf("unexpected attached properties: %+v", reply.Properties)
	}
}

func TestLogin_ReturnsUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auth/login" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"user": map[string]string{"id": "u42", "email": "a@b.c"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	user, err := c.Login(context.Background(), "a@b.c", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if user.ID != "u42" {
		t.Errorf("expected user id u42, got %s", user.ID)
	}
}

func TestGetProperty_SharedFlightSurvivesFirstCallerCancel(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		once.Do(func() { close(entered) })
		<-release
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    map[string]any{"id": "p7", "title": "Lake View Villa"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	ctx1, cancel1 := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.GetProperty(ctx1, "p7")
		firstErr <- err
	}()
	<-entered

	secondErr := make(chan error, 1)
	go func() {
		_, err := c.GetProperty(context.Background(), "p7")
		secondErr <- err
	}()
	// Give the second call time to join the in-flight fetch before the
	// first caller bails out.
	time.Sleep(50 * time.Millisecond)
	cancel1()
	close(release)

	if err := <-firstErr; err != nil {
		t.Errorf("first caller failed: %v", err)
	}
	if err := <-secondErr; err != nil {
		t.Errorf("second caller must not inherit the first caller's cancellation: %v", err)
	}
}

func TestClient_RequestIDHeader(t *testing.T) {
	seen := map[string]bool{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			t.Error("missing X-Request-ID header")
		}
		if seen[id] {
			t.Errorf("request id %s reused", id)
		}
		seen[id] = true
		json.NewEncoder(w).Encode(map[string]any{"success": true, "data": []any{}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	for i := 0; i < 3; i++ {
		if _, err := c.SearchProperties(context.Background(), url.Values{}); err != nil {
			t.Fatalf("SearchProperties failed: %v", err)
		}
	}
}
