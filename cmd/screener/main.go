package main

import (
	"os"

	"github.com/davidosland-lab/enhanced-global-stock-tracker-frontend-sub009/cmd/screener/commands"
)

// main is the entry point for the screener CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/screener [command]
func main() {
	os.Exit(commands.Execute())
}
