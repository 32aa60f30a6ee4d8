package main

import (
	"github.com/grailbio/base/grail"
	"github.com/grailbio/sirad/cmd/sirad/cmd"
)

func main() {
	shutdown := grail.Init()
	defer shutdown()
	cmd.Run()
}
