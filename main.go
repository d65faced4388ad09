// main is the entry point of the code review analyzer CLI.
package main

import (
	"fmt"
	"os"

	"github.com/nishalpattan/code-review-analyzer/cmd"
	"github.com/nishalpattan/code-review-analyzer/internal/contract"
	"github.com/nishalpattan/code-review-analyzer/internal/store"
)

func main() {
	err := cmd.Execute()

	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Failed to stop profiling", stopErr)
	}
	store.CloseStores()
	contract.SyncLogger()

	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
