package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-navigraph-efb/charts"
	"github.com/jrsteele09/go-navigraph-efb/credentials"
	"github.com/jrsteele09/go-navigraph-efb/internal/config"
	interrors "github.com/jrsteele09/go-navigraph-efb/internal/errors"
	"github.com/jrsteele09/go-navigraph-efb/navigraph"
)

// loginTimeout bounds how long we wait for the user to approve the pairing.
const loginTimeout = 10 * time.Minute

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("efb failed")
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

	c := config.New()
	configureLogging(c)
	displayAppname(c.GetAppName())

	if !c.HasCredentials() {
		return interrors.Wrapf(interrors.ErrNotConfigured, "CLIENT_ID and CLIENT_SECRET must be set")
	}

	store := credentials.NewFileStore(c.GetDataFolder())
	client := navigraph.NewClient(c, store)

	switch command(os.Args) {
	case "login":
		return runLogin(context.Background(), c, client)
	case "charts":
		if len(os.Args) < 3 {
			return errors.New("usage: efb charts <ICAO>")
		}
		return runCharts(context.Background(), client, strings.ToUpper(os.Args[2]))
	case "status":
		return runStatus(context.Background(), client)
	default:
		return errors.New("usage: efb <login|charts|status>")
	}
}

func command(args []string) string {
	if len(args) < 2 {
		return ""
	}
	return args[1]
}

// runLogin drives the device-authorization poll loop until a token is held,
// then verifies the returned ID token against the identity service's OIDC
// discovery document.
func runLogin(ctx context.Context, c config.Config, client *navigraph.Client) error {
	ctx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()

	client.Initialize(ctx)
	if client.HasToken() {
		fmt.Println("Signed in with stored credentials.")
		return verifyIdentity(ctx, c, client)
	}

	printPairingPrompt(client)

	ticker := time.NewTicker(time.Duration(client.AuthInterval()) * time.Second)
	defer ticker.Stop()

	lastCode := client.AuthCode()
	for !client.HasToken() {
		select {
		case <-ctx.Done():
			return errors.New("timed out waiting for device pairing")
		case <-ticker.C:
			client.Advance(ctx)
			if code := client.AuthCode(); code != "" && code != lastCode {
				lastCode = code
				printPairingPrompt(client)
			}
		}
	}

	fmt.Println("Signed in.")
	return verifyIdentity(ctx, c, client)
}

func printPairingPrompt(client *navigraph.Client) {
	if client.AuthCode() == "" {
		return
	}
	fmt.Printf("Open %s\n", client.AuthQRLink())
	fmt.Printf("and confirm code %s\n", client.AuthCode())
}

// verifyIdentity checks the ID token returned with the openid scope.
func verifyIdentity(ctx context.Context, c config.Config, client *navigraph.Client) error {
	rawIDToken := client.IDToken()
	if rawIDToken == "" {
		return nil
	}

	provider, err := oidc.NewProvider(ctx, c.GetIdentityBaseURL())
	if err != nil {
		return fmt.Errorf("oidc.NewProvider: %w", err)
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: c.GetClientID()})
	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return fmt.Errorf("verifier.Verify: %w", err)
	}

	log.Debug().Str("subject", idToken.Subject).Msg("identity verified")
	return nil
}

func runCharts(ctx context.Context, client *navigraph.Client, icao string) error {
	client.Initialize(ctx)
	if !client.HasToken() {
		return errors.New("not signed in, run 'efb login' first")
	}

	catalog := client.FetchCatalog(ctx, icao)
	if catalog.Total() == 0 {
		fmt.Printf("No charts found for %s\n", icao)
		return nil
	}

	printBucket("Arrival", catalog.Arrival)
	printBucket("Departure", catalog.Departure)
	printBucket("Airport", catalog.Airport)
	printBucket("Approach", catalog.Approach)
	return nil
}

func printBucket(name string, bucket []charts.Chart) {
	fmt.Printf("%s (%d)\n", name, len(bucket))
	for _, chart := range bucket {
		fmt.Printf("  %-12s %s\n", chart.ProcedureIdentifier, chart.FileName)
	}
}

func runStatus(ctx context.Context, client *navigraph.Client) error {
	client.Initialize(ctx)
	if !client.HasToken() {
		fmt.Println("Does not have token")
		return nil
	}

	fmt.Println("Has token")

	if summary, err := client.TokenSummary(); err == nil {
		fmt.Printf("Account: %s\n", summary.Subject)
		if !summary.ExpiresAt.IsZero() {
			fmt.Printf("Token expires: %s\n", summary.ExpiresAt.Format(time.RFC1123))
		}
	}

	if name := client.SubscriptionStatus(ctx); name != "" {
		fmt.Printf("Subscription: %s\n", name)
	} else {
		fmt.Println("Subscription: none")
	}
	return nil
}

func configureLogging(c config.Config) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if c.GetEnv() == "DEV" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
