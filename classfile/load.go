package classfile

import (
	"bytes"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// Load memory-maps path and parses it as a class file. Class files are
// read once and discarded after a single decompile pass (spec §5: no
// persistent in-memory cache across runs), so mmap avoids a full read()
// copy for files that may be read only partially before a parse error.
func Load(path string) (*ClassFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("classfile: mmap %s: %w", path, err)
	}
	defer m.Unmap()

	cf, err := Parse(bytes.NewReader(m))
	if err != nil {
		return nil, fmt.Errorf("classfile: parse %s: %w", path, err)
	}
	return cf, nil
}
