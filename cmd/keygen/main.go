package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"flag"
	"log"
	"os"
	"path/filepath"
)

// keygen writes the RSA key pair used to sign and verify access tokens.
func main() {
	dir := flag.String("dir", "certs", "output directory")
	bits := flag.Int("bits", 2048, "RSA key size")
	force := flag.Bool("force", false, "overwrite existing keys")
	flag.Parse()

	privPath := filepath.Join(*dir, "private.pem")
	pubPath := filepath.Join(*dir, "public.pem")
	if !*force {
		if _, err := os.Stat(privPath); err == nil {
			log.Fatalf("%s exists; pass -force to overwrite", privPath)
		}
	}
	if err := os.MkdirAll(*dir, 0o700); err != nil {
		log.Fatalf("mkdir: %v", err)
	}

	key, err := rsa.GenerateKey(rand.Reader, *bits)
	if err != nil {
		log.Fatalf("generate key: %v", err)
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		log.Fatalf("marshal private key: %v", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		log.Fatalf("marshal public key: %v", err)
	}

	if err := os.WriteFile(privPath, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}), 0o600); err != nil {
		log.Fatalf("write %s: %v", privPath, err)
	}
	if err := os.WriteFile(pubPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}), 0o644); err != nil {
		log.Fatalf("write %s: %v", pubPath, err)
	}
	log.Printf("wrote %s and %s", privPath, pubPath)
}
