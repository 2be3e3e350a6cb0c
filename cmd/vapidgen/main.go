// vapidgen generates a VAPID key pair for the push channel. Run once and put
// the output into config.yaml; keep the private key secret.
package main

import (
	"fmt"
	"os"

	"studytraka/webpush"
)

func main() {
	privateKey, publicKey, err := webpush.GenerateVAPIDKeys()

	if err != nil {
		fmt.Fprintln(os.Stderr, "error generating VAPID keys:", err)
		os.Exit(1)
	}

	fmt.Println("VAPID keys generated, add these to config.yaml under push:")
	fmt.Println()
	fmt.Println("vapid_public_key:", publicKey)
	fmt.Println("vapid_private_key:", privateKey)
}
