package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

const passphraseEnvVar = "HOTPOTATO_KEYSTORE_PASSPHRASE"

// resolvePassphrase checks HOTPOTATO_KEYSTORE_PASSPHRASE before prompting on
// the terminal, so a keystore passphrase never has to appear as a plain CLI
// argument or in shell history.
func resolvePassphrase() (string, error) {
	if value, ok := os.LookupEnv(passphraseEnvVar); ok {
		if strings.TrimSpace(value) == "" {
			return "", fmt.Errorf("%s is set but empty", passphraseEnvVar)
		}
		return value, nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", fmt.Errorf("keystore passphrase required; set %s or run interactively", passphraseEnvVar)
	}

	fmt.Fprint(os.Stderr, "Enter keystore passphrase: ")
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read passphrase: %w", err)
	}

	passphrase := string(raw)
	if strings.TrimSpace(passphrase) == "" {
		return "", errors.New("keystore passphrase cannot be empty")
	}
	return passphrase, nil
}
