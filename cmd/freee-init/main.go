// Command freee-init performs the one-time freee OAuth handshake: it opens a
// local callback server, prints the authorization URL, exchanges the returned
// code and stores the token pair for the server to use.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/oauth2"

	"uriage/internal/config"
	"uriage/internal/freee"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if cfg.FreeeClientID == "" || cfg.FreeeClientSecret == "" {
		log.Fatalf("set FREEE_CLIENT_ID and FREEE_CLIENT_SECRET")
	}

	oauthCfg := freee.NewOAuthConfig(cfg.FreeeClientID, cfg.FreeeClientSecret, cfg.FreeeRedirectURL)

	redirect, err := url.Parse(cfg.FreeeRedirectURL)
	if err != nil {
		log.Fatalf("invalid redirect URL: %v", err)
	}

	codeCh := make(chan string, 1)
	srv := &http.Server{Addr: ":" + redirect.Port()}
	http.HandleFunc(redirect.Path, func(w http.ResponseWriter, r *http.Request) {
		if errStr := r.URL.Query().Get("error"); errStr != "" {
			http.Error(w, "OAuth error: "+errStr, http.StatusBadRequest)
			return
		}
		code := r.URL.Query().Get("code")
		fmt.Fprintln(w, "You may close this window and return to the terminal.")
		codeCh <- code
		go func() { time.Sleep(500 * time.Millisecond); _ = srv.Close() }()
	})
	go func() { _ = srv.ListenAndServe() }()

	authURL := oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Open this URL to authorize:\n%s\n", authURL)

	select {
	case code := <-codeCh:
		tok, err := oauthCfg.Exchange(context.Background(), code)
		if err != nil {
			log.Fatalf("token exchange: %v", err)
		}
		tokens := freee.OpenTokenStore(cfg.FreeeTokenFile)
		if err := tokens.Save(tok); err != nil {
			log.Fatalf("save token: %v", err)
		}
		fmt.Println("freee token stored")
	case <-time.After(5 * time.Minute):
		log.Fatalf("authorization timed out")
	case <-signalChan():
		log.Fatalf("interrupted")
	}
}

func signalChan() <-chan os.Signal {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	return c
}
