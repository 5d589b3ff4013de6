// Print random hex encoded key suitable for SECRET_KEY and REFRESH_SECRET_KEY
package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/pflag"
)

const defaultKeyBytesLen = 32

func main() {
	length := pflag.IntP("length", "n", defaultKeyBytesLen, "Key length in bytes")
	pflag.Parse()

	key, err := generate(*length)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error while generating secret key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(key)
}

func generate(length int) (string, error) {
	if length < 16 {
		return "", fmt.Errorf("key must be at least 16 bytes, got %d", length)
	}

	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
