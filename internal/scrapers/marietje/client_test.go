package marietje

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marietje-uploads/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

const testRequestsPage = `<table class="requests">
<tr name='42'>
<td>x</td>
Alice</td>
</tr>
</table>`

// newTestServer imitates PHPMarietje: a successful login sets a session
// cookie and redirects, the requests page is only served to sessions.
func newTestServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/login.php", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		err := r.ParseForm()
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("login") != "alice" || r.PostForm.Get("password") != "hunter2" {
			fmt.Fprint(w, "<html><body><p class='error'>Could not login.</p></body></html>")
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: "session-1", Path: "/"})
		http.Redirect(w, r, "/index.php", http.StatusFound)
	})
	mux.HandleFunc("/index.php", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>Welcome</body></html>")
	})
	mux.HandleFunc("/request.php", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("PHPSESSID")
		if err != nil || cookie.Value != "session-1" {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, "not logged in")
			return
		}
		fmt.Fprint(w, testRequestsPage)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, baseUrl string) *Client {
	client, err := NewClient(ClientOptions{
		BaseUrl: baseUrl,
		Timeout: time.Second * 5,
	}, telemetry.SlogAPI{})
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestLoginAndRequestsPage(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	err := client.LoginUsernamePassword(ctx, "alice", "hunter2")
	require.NoError(t, err)

	page, err := client.RequestsPage(ctx)
	require.NoError(t, err)
	require.Equal(t, testRequestsPage, page)
}

func TestLoginFailed(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(t, server.URL)
	ctx := context.Background()

	err := client.LoginUsernamePassword(ctx, "alice", "wrong")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrLoginFailed))

	_, err = client.RequestsPage(ctx)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrLoginFailed))
}

func TestRequestsPageWithoutLogin(t *testing.T) {
	server := newTestServer(t)
	client := newTestClient(t, server.URL)

	_, err := client.RequestsPage(context.Background())
	require.ErrorContains(t, err, "403")
}

func TestTransportError(t *testing.T) {
	server := newTestServer(t)
	baseUrl := server.URL
	server.Close()

	client := newTestClient(t, baseUrl)
	err := client.LoginUsernamePassword(context.Background(), "alice", "hunter2")
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrLoginFailed))
}

func TestClientOptionsDefaults(t *testing.T) {
	opts := ClientOptions{}.withDefaults()
	require.Equal(t, DefaultBaseUrl, opts.BaseUrl)
	require.Equal(t, DefaultLoginPath, opts.LoginPath)
	require.Equal(t, DefaultRequestsPath, opts.RequestsPath)
	require.Equal(t, DefaultFailureMarker, opts.FailureMarker)
	require.Equal(t, time.Second*30, opts.Timeout)

	opts = ClientOptions{BaseUrl: "http://localhost:8080", FailureMarker: "Nope"}.withDefaults()
	require.Equal(t, "http://localhost:8080", opts.BaseUrl)
	require.Equal(t, "Nope", opts.FailureMarker)
}

func TestRateLimit(t *testing.T) {
	server := newTestServer(t)
	client, err := NewClient(ClientOptions{
		BaseUrl:   server.URL,
		RateLimit: 20,
	}, telemetry.SlogAPI{})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, client.LoginUsernamePassword(ctx, "alice", "hunter2"))

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.RequestsPage(ctx)
		require.NoError(t, err)
	}
	// the login used up the only token, three more requests at 20/s
	require.GreaterOrEqual(t, time.Since(start), time.Millisecond*100)
}
