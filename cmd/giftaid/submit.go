package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/thebiggive/hmrc-gift-aid/internal/claimfile"
	"github.com/thebiggive/hmrc-gift-aid/internal/config"
	"github.com/thebiggive/hmrc-gift-aid/internal/giftaid"
	"github.com/thebiggive/hmrc-gift-aid/internal/govtalk"
	"github.com/thebiggive/hmrc-gift-aid/internal/storage"
)

// stateStore records submission state. Workstation runs wire a NoopStateStore
// here so nothing persists.
type stateStore interface {
	AddPendingCorrelationID(ctx context.Context, correlationID string) error
	SetLastClaimTime(ctx context.Context, t time.Time) error
}

// newLocalClient builds a Gift Aid client from the local config file and
// credential file.
func newLocalClient(ctx context.Context, dryRun bool) (*giftaid.Client, *config.LocalConfig, error) {
	cfg, err := config.LoadLocal()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	credentialPath, err := config.CredentialFilePath()
	if err != nil {
		return nil, nil, fmt.Errorf("getting credential path: %w", err)
	}

	credentials, err := storage.NewFileCredentialStore(credentialPath)
	if err != nil {
		return nil, nil, fmt.Errorf("creating credential store: %w", err)
	}

	password, err := credentials.Password(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("getting gateway password: %w", err)
	}

	transport, err := govtalk.NewClient(govtalk.Config{URL: cfg.Gateway.URL})
	if err != nil {
		return nil, nil, fmt.Errorf("creating gateway client: %w", err)
	}

	client, err := giftaid.New(giftaid.Config{
		Logger:    slog.Default(),
		Password:  password,
		Product:   cfg.Vendor.Product,
		SenderID:  cfg.Gateway.SenderID,
		TestMode:  cfg.Gateway.TestMode || dryRun,
		Transport: transport,
		VendorID:  cfg.Vendor.ID,
		Version:   cfg.Vendor.Version,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating gift aid client: %w", err)
	}

	return client, cfg, nil
}

// runSubmit reads a claim document from a file and submits it to the gateway.
func runSubmit(ctx context.Context, inputPath string, dryRun bool, states stateStore) error {
	client, cfg, err := newLocalClient(ctx, dryRun)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading claim document: %w", err)
	}

	doc, err := claimfile.Parse(data)
	if err != nil {
		return err
	}

	req, err := doc.Request(giftaid.Charity{
		HMRCRef: cfg.Charity.HMRCRef,
		Name:    cfg.Charity.Name,
	})
	if err != nil {
		return fmt.Errorf("building claim request: %w", err)
	}

	fmt.Printf("Submitting %d donations for period ending %s...\n",
		len(doc.Donations), req.PeriodEnd().Format(time.DateOnly))

	result, err := client.Submit(ctx, req)
	if err != nil {
		return fmt.Errorf("submitting claim: %w", err)
	}

	if !result.Submitted {
		fmt.Println("Claim rejected by the gateway.")
		for _, msg := range result.Errors.Business {
			fmt.Println("  business:", msg.Text)
		}
		for _, msg := range result.Errors.Fatal {
			fmt.Println("  fatal:", msg.Text)
		}
		for _, id := range result.DonationIDsWithErrors {
			fmt.Println("  donation with error:", id)
		}
		return fmt.Errorf("claim rejected with %d business errors", len(result.Errors.Business))
	}

	if err := states.AddPendingCorrelationID(ctx, result.CorrelationID); err != nil {
		return fmt.Errorf("recording pending correlation id: %w", err)
	}
	if err := states.SetLastClaimTime(ctx, time.Now()); err != nil {
		return fmt.Errorf("recording last claim time: %w", err)
	}

	fmt.Println()
	fmt.Println("Claim accepted.")
	fmt.Println("  Correlation ID:", result.CorrelationID)
	fmt.Println("  Poll endpoint: ", result.Endpoint)
	fmt.Println("  Poll interval: ", result.Interval)
	fmt.Println()
	fmt.Printf("Run 'giftaid poll -correlation-id %s' to check the outcome.\n",
		result.CorrelationID)

	return nil
}
