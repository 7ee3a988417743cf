package main

import (
	"context"
	"os"

	"github.com/trebuchet-org/treb-deploy/internal/cli"
)

func main() {
	err := cli.Execute(context.Background(), cli.NewRootCmd())
	os.Exit(cli.ExitCode(err))
}
