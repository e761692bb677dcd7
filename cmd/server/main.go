package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"

	"github.com/momstretch/momstretch-server/accounts"
	accountrepofake "github.com/momstretch/momstretch-server/accounts/repofake"
	"github.com/momstretch/momstretch-server/auth"
	"github.com/momstretch/momstretch-server/email"
	"github.com/momstretch/momstretch-server/epds"
	epdsrepofake "github.com/momstretch/momstretch-server/epds/repofake"
	"github.com/momstretch/momstretch-server/federated"
	"github.com/momstretch/momstretch-server/history"
	historyrepofake "github.com/momstretch/momstretch-server/history/repofake"
	"github.com/momstretch/momstretch-server/internal/config"
	"github.com/momstretch/momstretch-server/server"
	"github.com/momstretch/momstretch-server/store"
	"github.com/momstretch/momstretch-server/token"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatalf("Error running server: %s\n", err)
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Printf("Server stopped\n")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	if err := config.Validate(c); err != nil {
		return fmt.Errorf("config.Validate: %w", err)
	}
	displayAppname(c.GetAppName())

	ctx := context.Background()

	httpHandler, err := buildServer(ctx, c)
	if err != nil {
		return err
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: httpHandler}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func buildServer(ctx context.Context, c config.Config) (*server.Server, error) {
	cipherKey, err := c.GetCipherKey()
	if err != nil {
		return nil, fmt.Errorf("config.GetCipherKey: %w", err)
	}
	cipher, err := token.NewCipher(cipherKey)
	if err != nil {
		return nil, fmt.Errorf("token.NewCipher: %w", err)
	}
	codec, err := token.NewCodec(cipher, c.GetSigningKey(), token.WithValidity(c.GetTokenValidity()))
	if err != nil {
		return nil, fmt.Errorf("token.NewCodec: %w", err)
	}

	verifier, err := federated.NewOIDCVerifier(ctx, c.GetFederatedIssuer(), c.GetFederatedAudience())
	if err != nil {
		return nil, fmt.Errorf("federated.NewOIDCVerifier: %w", err)
	}

	stores, dispatcher, err := buildStores(ctx, c)
	if err != nil {
		return nil, err
	}

	authService, err := auth.NewService(
		auth.Repos{Accounts: stores.Accounts, History: stores.History},
		codec, verifier, dispatcher)
	if err != nil {
		return nil, fmt.Errorf("auth.NewService: %w", err)
	}

	return server.New(c, authService, stores)
}

// buildStores wires Postgres when a database URI is configured and falls
// back to in-memory fakes with a logging mail dispatcher for local runs.
func buildStores(ctx context.Context, c config.Config) (server.Stores, email.Dispatcher, error) {
	if dsn := c.GetDatabaseURI(); dsn != "" {
		db, err := store.Open(ctx, dsn)
		if err != nil {
			return server.Stores{}, nil, fmt.Errorf("store.Open: %w", err)
		}
		stores := server.Stores{
			Accounts: accounts.NewPostgresRepo(db),
			History:  history.NewPostgresRepo(db),
			EPDS:     epds.NewPostgresRepo(db),
		}
		return stores, email.NewSMTPDispatcher(c), nil
	}

	log.Printf("DB_URI not set, using in-memory stores\n")
	stores := server.Stores{
		Accounts: accountrepofake.NewFakeAccountRepo(),
		History:  historyrepofake.NewFakeHistoryRepo(),
		EPDS:     epdsrepofake.NewFakeEPDSRepo(),
	}
	return stores, email.LogDispatcher{}, nil
}

func listenAndServe(server *http.Server) error {
	log.Printf("Server listening on %s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server.ListenAndServe %w", err)
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
