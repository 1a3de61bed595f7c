package main

import (
	"os"

	"github.com/jayteealao/gitmigrate/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
