package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/thebiggive/hmrc-gift-aid/internal/config"
	"github.com/thebiggive/hmrc-gift-aid/internal/storage"
)

// runSetCredential reads the gateway password from input and stores it in the
// local credential file.
func runSetCredential(input io.Reader) error {
	credentialPath, err := config.CredentialFilePath()
	if err != nil {
		return fmt.Errorf("getting credential path: %w", err)
	}

	fmt.Print("Gateway password: ")

	line, err := bufio.NewReader(input).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading password: %w", err)
	}

	password := strings.TrimSpace(line)
	if password == "" {
		return errors.New("password must not be empty")
	}

	credentials, err := storage.NewFileCredentialStore(credentialPath)
	if err != nil {
		return fmt.Errorf("creating credential store: %w", err)
	}

	if err := credentials.SavePassword(context.Background(), password); err != nil {
		return fmt.Errorf("saving password: %w", err)
	}

	fmt.Println()
	fmt.Println("Password saved to:", credentialPath)

	return nil
}
