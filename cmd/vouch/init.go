package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// starterIntent is the scaffold written by `vouch init`.
const starterIntent = `apiVersion: vouch/v1
kind: Intent
meta:
  name: example
  description: Starter intent, edit to taste

goal: Demonstrate a verified run

params:
  - name: greeting
    default: hello

preconditions:
  - name: shell available
    command: "which sh"
    expect: success

steps:
  - name: greet
    description: Print the greeting
    command: "echo {{greeting}}"
    expect: "{{greeting}}"

  - name: count
    depends_on: [greet]
    command: "echo {{greeting}} | wc -c"
    expect: ">1"

postconditions:
  - name: still sane
    command: "true"
    expect: success
`

// handleInit implements `vouch init [--output=<path>]`.
func handleInit() error {
	outputPath := "intent.yaml"

	for _, arg := range os.Args[2:] {
		if strings.HasPrefix(arg, "--output=") {
			outputPath = strings.TrimPrefix(arg, "--output=")
		}
	}

	if _, err := os.Stat(outputPath); err == nil {
		return fmt.Errorf("file %q already exists (use --output to specify a different path)", outputPath)
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, []byte(starterIntent), 0644); err != nil {
		return fmt.Errorf("write intent: %w", err)
	}

	fmt.Printf("Created %s\n", outputPath)
	fmt.Println("Edit the file to declare your contract and steps, then run:")
	fmt.Printf("  vouch run %s\n", outputPath)

	return nil
}
