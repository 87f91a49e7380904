package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/MohdMusaiyab/infybyte-sub001/api"
	"github.com/MohdMusaiyab/infybyte-sub001/auth"
	"github.com/MohdMusaiyab/infybyte-sub001/internal/config"
	"github.com/MohdMusaiyab/infybyte-sub001/sessions"
	"github.com/MohdMusaiyab/infybyte-sub001/token"
	"github.com/MohdMusaiyab/infybyte-sub001/token/fallback"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Error: %s\n", err)
	}
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	if os.Getenv("INFYBYTE_DEBUG") != "" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	c := config.New()
	displayAppname(c.GetAppName())

	service, session, err := buildAuth(c)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if len(os.Args) < 2 {
		return errors.New("usage: infybyte login <email> <password> | whoami | refresh | logout")
	}

	switch os.Args[1] {
	case "login":
		if len(os.Args) != 4 {
			return errors.New("usage: infybyte login <email> <password>")
		}
		if err := service.Login(ctx, auth.Credentials{Email: os.Args[2], Password: os.Args[3]}); err != nil {
			return err
		}
		fmt.Printf("Logged in as %s\n", session.Current().User.Email)

	case "whoami":
		if err := restore(ctx, service, session); err != nil {
			return err
		}
		user, err := service.Me(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s <%s> (%s)\n", user.Name, user.Email, user.Role)

	case "refresh":
		if err := restore(ctx, service, session); err != nil {
			return err
		}
		fmt.Println("Session refreshed")

	case "logout":
		_, _ = session.Restore()
		if err := service.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("Logged out")

	default:
		return fmt.Errorf("unknown command %q", os.Args[1])
	}

	return nil
}

// restore rehydrates the persisted identity and re-establishes the session
// from the surviving refresh token, the same sequence the web app runs at
// startup.
func restore(ctx context.Context, service *auth.Service, session *sessions.Store) error {
	_, _ = session.Restore()
	if err := service.RefreshAuth(ctx); err != nil {
		return fmt.Errorf("not logged in: %w", err)
	}
	return nil
}

func buildAuth(c config.Config) (*auth.Service, *sessions.Store, error) {
	tokenOptions := []token.ManagerOption{}
	if secret := c.GetCredentialStoreSecret(); secret != "" {
		store, err := fallback.NewFileStore(c.GetCredentialStorePath(), secret)
		if err != nil {
			return nil, nil, err
		}
		tokenOptions = append(tokenOptions, token.WithFallbackStore(store))
	}
	tokens := token.NewManager(tokenOptions...)

	session, err := sessions.NewStore(sessions.NewFileIdentityRepo(c.GetIdentityPath()))
	if err != nil {
		return nil, nil, err
	}

	apiClient, err := api.NewClient(c.GetBaseURL(), tokens, session,
		api.WithHTTPClient(&http.Client{Timeout: c.GetRequestTimeout()}),
		api.WithRefreshTimeout(c.GetRefreshTimeout()),
		api.WithOnSessionExpired(func() {
			fmt.Fprintln(os.Stderr, "Session expired, please log in again")
		}),
	)
	if err != nil {
		return nil, nil, err
	}

	service, err := auth.NewService(auth.Deps{API: apiClient, Tokens: tokens, Session: session})
	if err != nil {
		return nil, nil, err
	}
	return service, session, nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
