package main

import (
	"github.com/Ruthe06/cloudsharefiles/cmd"
	"github.com/Ruthe06/cloudsharefiles/internal/logging"
)

func main() {
	logging.Init()
	cmd.Execute()
}
