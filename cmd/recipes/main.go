// recipes is an interactive recipe recommender backed by Amazon Bedrock.
// Chat with a model, and the recipes it settles on are written to disk.
package main

import (
	"os"

	"github.com/corey/gourmand/cmd/recipes/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
