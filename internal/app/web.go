package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/relabs-tech/climate_panel/internal/httpapi"
)

// serveWeb serves svc on ln until ctx is cancelled. The returned channel
// yields the server's terminal error, if any.
func serveWeb(ctx context.Context, ln net.Listener, svc *httpapi.Service) <-chan error {
	srv := &http.Server{
		Handler:           svc.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Printf("web: server listening on %s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("web server: %w", err)
		}
		close(errc)
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("web: shutdown error: %v", err)
		}
	}()
	return errc
}
