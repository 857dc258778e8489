package main

import (
	"log"

	"github.com/thiagokokada/statetree/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		log.Fatalf("statetree: %v", err)
	}
}
