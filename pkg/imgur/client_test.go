package imgur

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/imgur-harvester/pkg/httpclient"
)

const testClientID = "abc123"

type stubRoute struct {
	status int
	body   string
}

func newStubClient(t *testing.T, routes map[string]stubRoute) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Client-ID "+testClientID {
			t.Errorf("unexpected Authorization header %q", got)
		}
		route, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(route.status)
		_, _ = w.Write([]byte(route.body))
	}))
	t.Cleanup(srv.Close)

	client, err := New(httpclient.Config{Timeout: 2 * time.Second}, testClientID, WithBaseURL(srv.URL+"/3"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestClientImage(t *testing.T) {
	client := newStubClient(t, map[string]stubRoute{
		"/3/image/PE2NI": {status: 200, body: envelopeJSON(t, 200, true, sampleImage("PE2NI"))},
	})

	env, err := client.Image(context.Background(), "PE2NI")
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	img, err := env.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if img.ID != "PE2NI" {
		t.Fatalf("id = %q", img.ID)
	}
}

func TestClientAlbumImagesPreservesOrder(t *testing.T) {
	ids := []string{"a1", "b2", "c3", "d4", "e5", "f6", "g7"}
	images := make([]Image, 0, len(ids))
	for _, id := range ids {
		images = append(images, sampleImage(id))
	}
	client := newStubClient(t, map[string]stubRoute{
		"/3/album/cXz3n/images": {status: 200, body: envelopeJSON(t, 200, true, images)},
	})

	env, err := client.AlbumImages(context.Background(), "cXz3n")
	if err != nil {
		t.Fatalf("AlbumImages: %v", err)
	}
	got, err := env.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if len(got) < 6 || len(got) != len(ids) {
		t.Fatalf("expected %d images, got %d", len(ids), len(got))
	}
	for i, img := range got {
		if img.ID != ids[i] {
			t.Fatalf("image[%d] = %q, want %q", i, img.ID, ids[i])
		}
	}
}

func TestClientAlbumImagesAPIError(t *testing.T) {
	client := newStubClient(t, map[string]stubRoute{
		"/3/album/cXz/images": {status: 400, body: albumNotFoundBody},
	})

	env, err := client.AlbumImages(context.Background(), "cXz")
	if err != nil {
		t.Fatalf("AlbumImages: %v", err)
	}
	_, err = env.Result()
	if !errors.Is(err, ErrAPI) {
		t.Fatalf("expected ErrAPI, got %v", err)
	}
	if KindOf(err) != KindAPI {
		t.Fatalf("kind = %s", KindOf(err))
	}
	apiErr, ok := AsAPIError(err)
	if !ok || apiErr.Request != "/3/album/cXz/images" {
		t.Fatalf("unexpected api error %+v", apiErr)
	}
	if want := "Request GET /3/album/cXz/images failed: Album not found"; err.Error() != want {
		t.Fatalf("message = %q, want %q", err.Error(), want)
	}
	var e *Error
	if !errors.As(err, &e) || e.Op != opAlbumImages || !strings.HasSuffix(e.URL, "/3/album/cXz/images") || e.StatusCode != 400 {
		t.Fatalf("api error not attributed to its call: %+v", e)
	}
}

func TestClientAlbumWithNullImages(t *testing.T) {
	client := newStubClient(t, map[string]stubRoute{
		"/3/album/cXz3n": {status: 200, body: albumJSON("null")},
	})

	env, err := client.Album(context.Background(), "cXz3n")
	if err != nil {
		t.Fatalf("Album: %v", err)
	}
	album, err := env.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if album.ID != "cXz3n" || album.Images != nil {
		t.Fatalf("unexpected album %+v", album)
	}
}

func TestClientAlbumWithInlinedImages(t *testing.T) {
	body := albumJSON(`[{"id":"a1","link":"https://i.imgur.com/a1.jpg","tags":[]}]`)
	client := newStubClient(t, map[string]stubRoute{
		"/3/album/cXz3n": {status: 200, body: body},
	})

	env, err := client.Album(context.Background(), "cXz3n")
	if err != nil {
		t.Fatalf("Album: %v", err)
	}
	album, err := env.Result()
	if err != nil {
		t.Fatalf("Result: %v", err)
	}
	if len(album.Images) != 1 || album.Images[0].ID != "a1" {
		t.Fatalf("unexpected images %+v", album.Images)
	}
}

func TestClientIgnoresHTTPStatusWhenPayloadMatches(t *testing.T) {
	client := newStubClient(t, map[string]stubRoute{
		"/3/image/PE2NI": {status: 500, body: envelopeJSON(t, 500, false, sampleImage("PE2NI"))},
	})

	env, err := client.Image(context.Background(), "PE2NI")
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	if _, err := env.Result(); err != nil {
		t.Fatalf("expected payload despite status, got %v", err)
	}
}

func TestClientMalformedBodyIsDecodeError(t *testing.T) {
	client := newStubClient(t, map[string]stubRoute{
		"/3/image/PE2NI":        {status: 200, body: `{"status":200,"success":true,"data":{"id":`},
		"/3/album/cXz3n":        {status: 200, body: `{"status":200,"success":true,"data":{"id":"cXz3n","views":"many"}}`},
		"/3/album/cXz3n/images": {status: 502, body: `<html>bad gateway</html>`},
	})
	ctx := context.Background()

	_, err := client.Image(ctx, "PE2NI")
	assertDecodeError(t, err, 200)
	_, err = client.Album(ctx, "cXz3n")
	assertDecodeError(t, err, 200)
	_, err = client.AlbumImages(ctx, "cXz3n")
	assertDecodeError(t, err, 502)
}

func assertDecodeError(t *testing.T, err error, status int) {
	t.Helper()
	if !IsDecode(err) {
		t.Fatalf("expected decode error, got %v", err)
	}
	var e *Error
	if !errors.As(err, &e) || e.StatusCode != status {
		t.Fatalf("expected status %d on error, got %+v", status, e)
	}
}

type failingTransport struct {
	err   error
	calls int
}

func (f *failingTransport) Get(context.Context, string, map[string]string) (httpclient.Response, error) {
	f.calls++
	return nil, f.err
}

func TestClientTransportFailure(t *testing.T) {
	cause := errors.New("connection reset by peer")
	transport := &failingTransport{err: cause}
	client := NewWithTransport(transport, testClientID)

	env, err := client.Image(context.Background(), "PE2NI")
	if env != nil {
		t.Fatalf("expected no envelope")
	}
	if !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be preserved, got %v", err)
	}
	if transport.calls != 1 {
		t.Fatalf("expected a single round trip, got %d", transport.calls)
	}
}

func TestClientConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	client, err := New(httpclient.Config{Timeout: time.Second}, testClientID, WithBaseURL(base))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = client.Album(context.Background(), "cXz3n")
	if !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestClientContextCancelled(t *testing.T) {
	client := newStubClient(t, map[string]stubRoute{
		"/3/image/PE2NI": {status: 200, body: envelopeJSON(t, 200, true, sampleImage("PE2NI"))},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.Image(ctx, "PE2NI"); !IsTransport(err) {
		t.Fatalf("expected transport error for cancelled context, got %v", err)
	}
}

func TestClientEscapesIDs(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		_, _ = w.Write([]byte(albumNotFoundBody))
	}))
	defer srv.Close()

	client, err := New(httpclient.Config{}, testClientID, WithBaseURL(srv.URL+"/3/"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.AlbumImages(context.Background(), "a/b"); err != nil {
		t.Fatalf("AlbumImages: %v", err)
	}
	if gotPath != "/3/album/a%2Fb/images" {
		t.Fatalf("path = %q", gotPath)
	}
}

func TestNewRequiresClientID(t *testing.T) {
	_, err := New(httpclient.Config{}, "  ")
	if !errors.Is(err, ErrConstruction) || !errors.Is(err, ErrMissingClientID) {
		t.Fatalf("expected construction error, got %v", err)
	}
}

func TestNewFailsOnInvalidCAFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(path, []byte("not a certificate"), 0o600); err != nil {
		t.Fatalf("write ca: %v", err)
	}

	_, err := New(httpclient.Config{CAFile: path}, testClientID)
	if KindOf(err) != KindConstruction {
		t.Fatalf("expected construction error, got %v", err)
	}
	if !strings.Contains(err.Error(), "no usable certificates") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestClientDefaultsToImgurBaseURL(t *testing.T) {
	client := NewWithTransport(&failingTransport{}, testClientID)
	if client.BaseURL() != DefaultBaseURL {
		t.Fatalf("base url = %q", client.BaseURL())
	}
}

func TestClientOversizeBodyIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(envelopeJSON(t, 200, true, sampleImage(strings.Repeat("x", 512)))))
	}))
	defer srv.Close()

	client, err := New(httpclient.Config{Timeout: 2 * time.Second, MaxBodyBytes: 128}, testClientID, WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	env, err := client.Image(context.Background(), "PE2NI")
	if env != nil {
		t.Fatalf("expected no envelope")
	}
	if !IsTransport(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if !errors.Is(err, httpclient.ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge in chain, got %v", err)
	}
}

func TestClientConcurrentCalls(t *testing.T) {
	ids := []string{"a1", "b2", "c3", "d4", "e5", "f6", "g7", "h8"}
	routes := make(map[string]stubRoute, len(ids))
	for _, id := range ids {
		routes["/3/image/"+id] = stubRoute{status: 200, body: envelopeJSON(t, 200, true, sampleImage(id))}
	}
	client := newStubClient(t, routes)

	var wg sync.WaitGroup
	errs := make([]error, len(ids))
	got := make([]string, len(ids))
	for i, id := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env, err := client.Image(context.Background(), id)
			if err != nil {
				errs[i] = err
				return
			}
			img, err := env.Result()
			errs[i] = err
			got[i] = img.ID
		}()
	}
	wg.Wait()

	for i, id := range ids {
		if errs[i] != nil {
			t.Fatalf("Image(%s): %v", id, errs[i])
		}
		if got[i] != id {
			t.Fatalf("Image(%s) returned %q", id, got[i])
		}
	}
}
