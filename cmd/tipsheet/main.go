package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/phillip-england/tipsheet/internal/tipsheetcli"
)

func main() {
	if err := tipsheetcli.Execute(os.Args[1:]); err != nil {
		if errors.Is(err, tipsheetcli.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr)
			tipsheetcli.PrintUsage(os.Stderr)
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
