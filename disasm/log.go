package disasm

import (
	"io"
	"io/ioutil"
	"log"
	"os"
)

// PrintDebugInfo toggles per-instruction decode tracing to stderr. Off by
// default so disassembling a large class file costs nothing.
var PrintDebugInfo = false

var logger *log.Logger

func init() {
	var w io.Writer = ioutil.Discard
	if PrintDebugInfo {
		w = os.Stderr
	}
	logger = log.New(w, "", log.Lshortfile)
}
