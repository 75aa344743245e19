package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pageza/foodgram/backend/cmd/manage/commands"
)

func main() {
	if err := commands.NewRootCommand(commands.OpenFromConfig).ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
