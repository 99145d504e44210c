package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/thebiggive/hmrc-gift-aid/internal/config"
)

const configTemplate = `# Gift Aid Configuration

charity:
  # HMRC charities reference, from the HMRC charity registration letter.
  hmrc_ref: ""
  # Registered charity name.
  name: ""

gateway:
  # Government Gateway sender ID for the charity or its agent.
  sender_id: ""
  # Route submissions to the gateway test service.
  test_mode: true
  # Submission URL (default: live transaction engine).
  url: ""

vendor:
  # Vendor ID issued at gateway software registration.
  id: ""
  # Software product name and version reported to the gateway.
  product: ""
  version: ""
`

// runInit creates a sample configuration file.
func runInit() error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("getting config directory: %w", err)
	}

	configPath, err := config.ConfigFilePath()
	if err != nil {
		return fmt.Errorf("getting config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Println("Created config file:", configPath)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Edit the config file with your charity and gateway details")
	fmt.Println("  2. Run 'giftaid credential' to store the gateway password")
	fmt.Println("  3. Run 'giftaid submit -input claim.json -dry-run' to test")

	credentialPath := filepath.Join(configDir, "credential")
	fmt.Println()
	fmt.Printf("Password will be stored at: %s\n", credentialPath)

	return nil
}
