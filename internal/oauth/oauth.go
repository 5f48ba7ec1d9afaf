// Package oauth serves the Slack app install flow: a redirect into Slack's
// OAuth consent page and the callback that exchanges the code for a bot
// token. The token is persisted to a file for the operator to move into
// configuration.
package oauth

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"

	"github.com/slack-go/slack"

	"kbwatch/internal/httpx"
)

const installScopes = "channels:history,chat:write,groups:history"

// Server handles /slack/install and /slack/oauth/callback.
type Server struct {
	clientID     string
	clientSecret string
	redirectURI  string
	tokenPath    string
}

func NewServer(clientID, clientSecret, redirectURI, tokenPath string) *Server {
	return &Server{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURI:  redirectURI,
		tokenPath:    tokenPath,
	}
}

// Handler returns the mux for the install flow endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/slack/install", s.handleInstall)
	mux.HandleFunc("/slack/oauth/callback", s.handleCallback)
	return mux
}

// InstallURL builds the Slack consent-page redirect target.
func (s *Server) InstallURL() string {
	q := url.Values{}
	q.Set("client_id", s.clientID)
	q.Set("scope", installScopes)
	q.Set("redirect_uri", s.redirectURI)
	return "https://slack.com/oauth/v2/authorize?" + q.Encode()
}

func (s *Server) handleInstall(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, s.InstallURL(), http.StatusFound)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing code parameter", http.StatusBadRequest)
		return
	}

	resp, err := slack.GetOAuthV2Response(httpx.ExternalClient(), s.clientID, s.clientSecret, code, s.redirectURI)
	if err != nil {
		log.Printf("oauth exchange error: %v", err)
		http.Error(w, "token exchange failed", http.StatusBadGateway)
		return
	}

	if err := s.SaveToken(resp.AccessToken); err != nil {
		log.Printf("oauth token save error: %v", err)
		http.Error(w, "token persistence failed", http.StatusInternalServerError)
		return
	}

	log.Printf("oauth install complete team=%s", resp.Team.Name)
	fmt.Fprintln(w, "Slack app installed. Bot token saved.")
}

// SaveToken writes the bot token to the configured path with owner-only
// permissions.
func (s *Server) SaveToken(token string) error {
	return os.WriteFile(s.tokenPath, []byte(token), 0600)
}

// Start serves the install flow on addr in a background goroutine.
func Start(addr string, s *Server) {
	log.Printf("OAuth install flow listening on %s (redirect_uri=%s)", addr, s.redirectURI)
	go func() {
		if err := http.ListenAndServe(addr, s.Handler()); err != nil {
			log.Printf("oauth server error: %v", err)
		}
	}()
}
