// Command deidentify-demo exercises the deidentify pipeline end to end
// against one input document: load a signing key, process the document
// under the "default" profile, print a one-line result summary to stdout,
// and, when audit-out-file is given, write the audit envelope to it.
//
// usage: deidentify-demo <input-file> <profile-yaml> <signing-key-pem> [audit-out-file]
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/forensicpipe/deidentify/pkg/deidentify"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Println("usage: deidentify-demo <input-file> <profile-yaml> <signing-key-pem> [audit-out-file]")
		os.Exit(1)
	}
	inputPath, profilePath, keyPath := os.Args[1], os.Args[2], os.Args[3]

	input, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Println("read input:", err)
		os.Exit(1)
	}
	profileDoc, err := os.ReadFile(profilePath)
	if err != nil {
		fmt.Println("read profile:", err)
		os.Exit(1)
	}
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		fmt.Println("read signing key:", err)
		os.Exit(1)
	}

	pipeline, err := deidentify.New(deidentify.Config{
		ProfileDocuments: [][]byte{profileDoc},
		SigningKeyPEM:    keyPEM,
	})
	if err != nil {
		fmt.Println("build pipeline:", err)
		os.Exit(1)
	}

	result, record, _, err := pipeline.Process(context.Background(), input, "default")
	if err != nil {
		fmt.Println("process:", err)
		os.Exit(1)
	}

	fmt.Printf("document_id=%s pages=%d detections=%d redactions=%d success=%v\n",
		result.DocumentID, result.PagesProcessed, len(result.Detections), result.RedactionsApplied, result.Success)

	if len(os.Args) >= 5 {
		f, err := os.Create(os.Args[4])
		if err != nil {
			fmt.Println("create audit-out-file:", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := record.Persist(f); err != nil {
			fmt.Println("persist audit record:", err)
			os.Exit(1)
		}
		fmt.Println("audit record written to", os.Args[4])
	}
}
