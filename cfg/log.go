package cfg

import (
	"io"
	"io/ioutil"
	"log"
	"os"
)

// PrintDebugInfo toggles per-block leader-set tracing to stderr.
var PrintDebugInfo = false

var logger *log.Logger

func init() {
	var w io.Writer = ioutil.Discard
	if PrintDebugInfo {
		w = os.Stderr
	}
	logger = log.New(w, "", log.Lshortfile)
}
