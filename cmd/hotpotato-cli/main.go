// Command hotpotato-cli is a thin client for hotpotatod's JSON-RPC 2.0
// surface: each subcommand marshals its arguments into the matching
// hotpotato_* method and prints the result.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/DenhamPreen/hot-potato/crypto"
)

const defaultEndpoint = "http://localhost:8080/rpc"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	endpoint := os.Getenv("HOTPOTATO_RPC_ENDPOINT")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "generate-key":
		err = generateKey()
	case "export-keystore":
		err = requireArgs(args, 1, "export-keystore <keyFile>", func() error {
			passphrase, perr := resolvePassphrase()
			if perr != nil {
				return perr
			}
			return exportKeystore(args[0], passphrase)
		})
	case "import-keystore":
		err = requireArgs(args, 1, "import-keystore <keystoreFile>", func() error {
			passphrase, perr := resolvePassphrase()
			if perr != nil {
				return perr
			}
			return importKeystore(args[0], passphrase)
		})
	case "enter":
		err = requireArgs(args, 2, "enter <player> <amountPaid>", func() error {
			return call(endpoint, "hotpotato_enter", map[string]string{"player": args[0], "amountPaid": args[1]})
		})
	case "settle":
		err = requireArgs(args, 1, "settle <caller>", func() error {
			return call(endpoint, "hotpotato_settle", map[string]string{"caller": args[0]})
		})
	case "sponsor":
		err = requireArgs(args, 2, "sponsor <caller> <amount> [message]", func() error {
			message := ""
			if len(args) > 2 {
				message = args[2]
			}
			return call(endpoint, "hotpotato_sponsor", map[string]string{"caller": args[0], "amount": args[1], "message": message})
		})
	case "deposit":
		err = requireArgs(args, 1, "deposit <amount>", func() error {
			return call(endpoint, "hotpotato_deposit", map[string]string{"amount": args[0]})
		})
	case "update-creator":
		err = requireArgs(args, 2, "update-creator <caller> <newCreator>", func() error {
			return call(endpoint, "hotpotato_updateCreator", map[string]string{"caller": args[0], "newCreator": args[1]})
		})
	case "propose-creator":
		err = requireArgs(args, 2, "propose-creator <caller> <proposed>", func() error {
			return call(endpoint, "hotpotato_proposeCreator", map[string]string{"caller": args[0], "proposed": args[1]})
		})
	case "accept-creator":
		err = requireArgs(args, 1, "accept-creator <caller>", func() error {
			return call(endpoint, "hotpotato_acceptCreator", map[string]string{"caller": args[0]})
		})
	case "round":
		err = call(endpoint, "hotpotato_getRound", map[string]string{})
	case "config":
		err = call(endpoint, "hotpotato_getConfig", map[string]string{})
	case "snapshot":
		err = requireArgs(args, 1, "snapshot <roundId>", func() error {
			return call(endpoint, "hotpotato_getSnapshot", map[string]json.Number{"roundId": json.Number(args[0])})
		})
	case "has-played":
		err = requireArgs(args, 1, "has-played <address>", func() error {
			return call(endpoint, "hotpotato_hasPlayed", map[string]string{"address": args[0]})
		})
	case "events":
		err = call(endpoint, "hotpotato_getEvents", map[string]string{})
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func requireArgs(args []string, n int, usage string, run func() error) error {
	if len(args) < n {
		return fmt.Errorf("usage: hotpotato-cli %s", usage)
	}
	return run()
}

func generateKey() error {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return err
	}
	const fileName = "hotpotato.key"
	if err := os.WriteFile(fileName, key.Bytes(), 0o600); err != nil {
		return fmt.Errorf("save key to %s: %w", fileName, err)
	}
	fmt.Printf("Generated new key and saved to %s\n", fileName)
	fmt.Printf("Your address is: %s\n", key.PubKey().Address().String())
	return nil
}

// exportKeystore wraps a raw binary key file (as written by generate-key) in an
// encrypted Ethereum v3 keystore file, for operators who want the keeper key
// at rest behind a passphrase rather than as plain hex in config.
func exportKeystore(keyFile, passphrase string) error {
	raw, err := os.ReadFile(keyFile)
	if err != nil {
		return fmt.Errorf("read key file: %w", err)
	}
	key, err := crypto.PrivateKeyFromBytes(raw)
	if err != nil {
		return fmt.Errorf("parse key: %w", err)
	}
	const keystoreFile = "hotpotato.keystore.json"
	if err := crypto.SaveToKeystore(keystoreFile, key, passphrase); err != nil {
		return fmt.Errorf("save keystore: %w", err)
	}
	fmt.Printf("Wrote encrypted keystore to %s\n", keystoreFile)
	return nil
}

// importKeystore decrypts an Ethereum v3 keystore file and prints the raw
// hex key, for operators migrating a keeper key back into config.
func importKeystore(keystoreFile, passphrase string) error {
	key, err := crypto.LoadFromKeystore(keystoreFile, passphrase)
	if err != nil {
		return fmt.Errorf("load keystore: %w", err)
	}
	fmt.Printf("Your address is: %s\n", key.PubKey().Address().String())
	fmt.Printf("Raw hex key: %x\n", key.Bytes())
	return nil
}

type rpcRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *rpcError       `json:"error,omitempty"`
}

// call issues a single JSON-RPC 2.0 request carrying params as its one
// positional parameter object, and pretty-prints the result or error.
func call(endpoint, method string, params interface{}) error {
	rawParams, err := json.Marshal(params)
	if err != nil {
		return err
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  []json.RawMessage{rawParams},
		ID:      1,
	})
	if err != nil {
		return err
	}

	resp, err := http.Post(endpoint, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var parsed rpcResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if parsed.Error != nil {
		return fmt.Errorf("rpc error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, parsed.Result, "", "  "); err != nil {
		fmt.Println(string(parsed.Result))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}

func printUsage() {
	fmt.Println(`Usage: hotpotato-cli <command> [args]

Commands:
  generate-key                              generate a new key, saved to hotpotato.key
  export-keystore <keyFile>                 wrap a raw binary key file in an encrypted Ethereum keystore file
  import-keystore <keystoreFile>            decrypt a keystore file and print the raw hex key
  enter <player> <amountPaid>               take the current slot
  settle <caller>                           settle the outstanding ticket, paying caller the keeper reward
  sponsor <caller> <amount> [message]       sponsor or outbid the current round
  deposit <amount>                          credit a passive deposit to the pot
  update-creator <caller> <newCreator>      rotate the creator address
  propose-creator <caller> <proposed>       begin a two-step creator handover
  accept-creator <caller>                   accept a proposed creator handover
  round                                     print the live round state
  config                                    print the engine configuration
  snapshot <roundId>                        print a finalized round's snapshot
  has-played <address>                      check if an address has played this round
  events                                    print recent engine events

Set HOTPOTATO_RPC_ENDPOINT to override the default endpoint (http://localhost:8080/rpc).
Set HOTPOTATO_KEYSTORE_PASSPHRASE to supply a keystore passphrase non-interactively.`)
}
