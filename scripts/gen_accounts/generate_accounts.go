package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
)

// Generates fresh devnet accounts for the bridge config (faucet account,
// custody account, remote senders). Prints one address and private key
// per line.
func main() {
	count := flag.Int("count", 3, "number of accounts to generate")
	flag.Parse()

	for i := 1; i <= *count; i++ {
		key, err := crypto.GenerateKey()
		if err != nil {
			fmt.Printf("Failed to generate key for account%d: %v\n", i, err)
			os.Exit(1)
		}
		address := crypto.PubkeyToAddress(key.PublicKey)
		fmt.Printf("account%d address=%s key=%s\n",
			i, address.Hex(), hex.EncodeToString(crypto.FromECDSA(key)))
	}
}
