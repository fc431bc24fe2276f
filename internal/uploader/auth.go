package uploader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"
)

const authFlowTimeout = 5 * time.Minute

// ClientConfigured reports whether the OAuth client environment variables
// are set. It lets the owning process choose detector-only mode up front
// instead of failing on the first upload.
func ClientConfigured() bool {
	_, err := clientConfigFromEnv()
	return err == nil
}

// clientConfigFromEnv builds the OAuth client config from environment
// variables. Missing variables are a configuration error, not a crash.
func clientConfigFromEnv() (*oauth2.Config, error) {
	clientID := strings.TrimSpace(os.Getenv("YOUTUBE_CLIENT_ID"))
	clientSecret := strings.TrimSpace(os.Getenv("YOUTUBE_CLIENT_SECRET"))
	projectID := strings.TrimSpace(os.Getenv("YOUTUBE_PROJECT_ID"))
	if clientID == "" || clientSecret == "" || projectID == "" {
		return nil, ErrNoClientConfig
	}

	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{youtube.YoutubeUploadScope},
	}, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	token := &oauth2.Token{}
	if err := json.Unmarshal(payload, token); err != nil {
		return nil, fmt.Errorf("parse token file %s: %w", path, err)
	}
	return token, nil
}

func saveToken(path string, token *oauth2.Token) error {
	payload, err := json.Marshal(token)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

// runLoopbackFlow walks the installed-app authorization flow: it listens on a
// loopback port, prints the consent URL, and waits for the redirect carrying
// the authorization code.
func runLoopbackFlow(ctx context.Context, config *oauth2.Config, printURL func(string)) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	defer listener.Close()

	flowConfig := *config
	flowConfig.RedirectURL = "http://" + listener.Addr().String()

	state := fmt.Sprintf("reeldrop-%d", time.Now().UnixNano())
	authURL := flowConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	if printURL != nil {
		printURL(authURL)
	}

	codes := make(chan string, 1)
	flowErrs := make(chan error, 1)
	server := &http.Server{
		ReadHeaderTimeout: 5 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query := r.URL.Query()
			if query.Get("state") != state {
				http.Error(w, "state mismatch", http.StatusBadRequest)
				flowErrs <- errors.New("authorization state mismatch")
				return
			}
			code := query.Get("code")
			if code == "" {
				http.Error(w, "missing code", http.StatusBadRequest)
				flowErrs <- errors.New("authorization response missing code")
				return
			}
			fmt.Fprintln(w, "Authorization complete. You can close this tab.")
			codes <- code
		}),
	}
	go func() {
		_ = server.Serve(listener)
	}()
	defer server.Close()

	flowCtx, cancel := context.WithTimeout(ctx, authFlowTimeout)
	defer cancel()

	select {
	case code := <-codes:
		return flowConfig.Exchange(flowCtx, code)
	case err := <-flowErrs:
		return nil, err
	case <-flowCtx.Done():
		return nil, fmt.Errorf("authorization flow: %w", flowCtx.Err())
	}
}
