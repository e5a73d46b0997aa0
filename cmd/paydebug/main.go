// paydebug drives the full checkout flow from a terminal against a running
// billing backend: init, present, verify. The operator stands in for the
// checkout popup by completing (or abandoning) the charge out of band.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"velt/config"
	"velt/internal/domain"
	"velt/pkg/checkout"
)

// stdinPresenter satisfies checkout.Presenter with an operator at a
// terminal instead of a popup.
type stdinPresenter struct {
	in *bufio.Reader
}

func (p *stdinPresenter) Open(ctx context.Context, s checkout.Session, cb checkout.Callbacks) error {
	fmt.Printf("\ncheckout session\n  reference: %s\n  amount:    %d %s (minor units)\n  email:     %s\n", s.Reference, s.Amount, s.Currency, s.Email)
	fmt.Print("complete the charge, then press Enter to report success (or type c to close): ")
	go func() {
		line, err := p.in.ReadString('\n')
		if err != nil || strings.TrimSpace(line) == "c" {
			cb.OnClose()
			return
		}
		cb.OnComplete(checkout.Completion{Reference: s.Reference})
	}()
	return nil
}

func main() {
	cfg := config.Load()
	baseURL := flag.String("base-url", "http://localhost:"+cfg.Server.Port, "billing backend base URL")
	token := flag.String("token", "", "bearer token for the billing API")
	userID := flag.String("user", "", "user id to pay as")
	email := flag.String("email", "", "payer email")
	plan := flag.String("plan", domain.PlanPublisherMonthly, "plan code to purchase")
	flag.Parse()

	if *token == "" || *userID == "" {
		fmt.Fprintln(os.Stderr, "usage: paydebug -token <jwt> -user <id> [-email <email>] [-plan <code>]")
		os.Exit(2)
	}

	sink := checkout.NewLogSink(checkout.DefaultLogCapacity)
	loader := checkout.NewLoader(func(ctx context.Context) (checkout.Presenter, error) {
		return &stdinPresenter{in: bufio.NewReader(os.Stdin)}, nil
	}, sink)
	backend := checkout.NewAPIClient(checkout.APIConfig{
		BaseURL:   *baseURL,
		AuthToken: *token,
	})
	flow := checkout.New(cfg.Paystack.PublicKey, backend, loader,
		checkout.WithLogSink(sink),
		checkout.WithReferencePrefix(cfg.Billing.ReferencePrefix),
		checkout.WithCurrency(cfg.Paystack.Currency),
		checkout.WithVerifyRetry(cfg.Billing.VerifyAttempts, cfg.Billing.VerifyBackoff),
	)

	result, err := flow.Pay(context.Background(), checkout.Identity{UserID: *userID, Email: *email}, *plan)
	fmt.Printf("\nstate:  %s\nstatus: %s\n", result.State, result.Status)
	if err != nil {
		fmt.Printf("error:  %v\n", err)
	}
	fmt.Println("\nlog:")
	for _, line := range flow.Logs() {
		fmt.Println("  " + line)
	}
	if result.State != checkout.StateSucceeded && result.State != checkout.StateCancelled {
		os.Exit(1)
	}
}
