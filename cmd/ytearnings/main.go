package main

import (
	"context"
	"os"

	"ytearnings/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background()))
}
