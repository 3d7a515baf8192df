// Package main provides the Spotify authorization helper for the catalog source.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/osa030/boombox/internal/infra/logger"
)

var (
	app          = kingpin.New("boombox-auth", "Spotify authorization helper for the boombox catalog")
	clientID     = app.Flag("client-id", "Spotify Client ID").Envar("SPOTIFY_CLIENT_ID").Required().String()
	clientSecret = app.Flag("client-secret", "Spotify Client Secret").Envar("SPOTIFY_CLIENT_SECRET").Required().String()
	port         = app.Flag("port", "Callback server port").Default("8888").Int()
	timeout      = app.Flag("timeout", "How long to wait for the authorization").Default("5m").Duration()
)

const completePage = `<!DOCTYPE html>
<html>
<head><title>boombox - Authorization Complete</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 20vh;">
  <h1>Authorization Complete</h1>
  <p>You can close this window and return to the terminal.</p>
</body>
</html>
`

// callbackHandler completes the authorization-code flow and hands the token over.
type callbackHandler struct {
	auth   *spotifyauth.Authenticator
	state  string
	tokens chan<- *oauth2.Token
}

func (h *callbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if st := r.FormValue("state"); st != h.state {
		http.Error(w, "State mismatch", http.StatusForbidden)
		zlog.Warn().Msgf("auth: state mismatch: got=%s", st)
		return
	}

	token, err := h.auth.Token(r.Context(), h.state, r)
	if err != nil {
		http.Error(w, "Failed to get token", http.StatusForbidden)
		zlog.Error().Err(err).Msg("auth: failed to exchange code")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = fmt.Fprint(w, completePage)

	select {
	case h.tokens <- token:
	default:
	}
}

func main() {
	_ = godotenv.Load()
	kingpin.MustParse(app.Parse(os.Args[1:]))

	if err := logger.Init(logger.Config{Output: "stderr", Level: "info"}); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	redirectURI := fmt.Sprintf("http://127.0.0.1:%d/callback", *port)
	auth := spotifyauth.New(
		spotifyauth.WithRedirectURL(redirectURI),
		spotifyauth.WithClientID(*clientID),
		spotifyauth.WithClientSecret(*clientSecret),
		// Catalog sources only read playlists
		spotifyauth.WithScopes(spotifyauth.ScopePlaylistReadPrivate),
	)

	tokens := make(chan *oauth2.Token, 1)
	handler := &callbackHandler{auth: auth, state: uuid.NewString(), tokens: tokens}

	mux := http.NewServeMux()
	mux.Handle("/callback", handler)
	server := &http.Server{Addr: fmt.Sprintf(":%d", *port), Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Msgf("Failed to start callback server: %v", err)
		}
	}()

	fmt.Println("Please visit the following URL to authorize boombox:")
	fmt.Println()
	fmt.Println(auth.AuthURL(handler.state))
	fmt.Println()
	fmt.Println("Waiting for authorization...")

	var token *oauth2.Token
	select {
	case token = <-tokens:
	case <-time.After(*timeout):
		zlog.Fatal().Msgf("Timed out after %v waiting for authorization", *timeout)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zlog.Error().Msgf("Failed to shutdown callback server: %v", err)
	}

	fmt.Println()
	fmt.Println("=== Authorization Successful ===")
	fmt.Println()
	fmt.Println("Add this to config/server.yaml:")
	fmt.Println()
	fmt.Println("spotify:")
	fmt.Printf("  refresh_token: \"%s\"\n", token.RefreshToken)
	fmt.Println()
	fmt.Println("Or set as environment variable:")
	fmt.Printf("export SPOTIFY_REFRESH_TOKEN=\"%s\"\n", token.RefreshToken)
}
