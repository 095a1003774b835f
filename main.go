package main

import (
	"os"

	"github.com/PercyRoc/CangFenBao-sub014/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
