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
			fmt.Fprintln(os.Stderr, "usage: tipsheet generate --hours <file> [--tips <file>] [--out report.xlsx]")
			fmt.Fprintln(os.Stderr, "       tipsheet serve [--addr :5000]")
			fmt.Fprintln(os.Stderr, "       tipsheet setup [--access-password <password>] [--force]")
			fmt.Fprintln(os.Stderr, "       tipsheet config init|show")
			fmt.Fprintln(os.Stderr, "       tipsheet history list|show|rerun")
			os.Exit(2)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
