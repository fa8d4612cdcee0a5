package main

import (
	"runtime"

	"imagecurator/cmd"
	"imagecurator/signalhandler"
)

func main() {
	// Leave headroom for cgo decoder threads
	runtime.GOMAXPROCS(signalhandler.GetOptimalProcs())

	cmd.Execute()
}
