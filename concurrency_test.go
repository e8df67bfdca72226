package ghostmem

import (
	"encoding/binary"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// S6: concurrent fault storm. Each goroutine owns its own region and
// pattern; no goroutine should ever observe another's bytes.
func TestConcurrentFaultStorm(t *testing.T) {
	m := newTestManager(t, Config{ResidentCap: 5})

	const goroutines = 4
	const pages = 10

	var wg sync.WaitGroup
	errs := make([]error, goroutines)

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			buf, err := m.Allocate(pages * PageSize)
			if err != nil || buf == nil {
				errs[id] = err
				return
			}
			pattern := uint32(0x1000*(id+1) + id)
			for p := 0; p < pages; p++ {
				var word [4]byte
				binary.LittleEndian.PutUint32(word[:], pattern)
				if _, err := buf.WriteAt(word[:], int64(p*PageSize)); err != nil {
					errs[id] = err
					return
				}
			}
			for p := 0; p < pages; p++ {
				var word [4]byte
				if _, err := buf.ReadAt(word[:], int64(p*PageSize)); err != nil {
					errs[id] = err
					return
				}
				if binary.LittleEndian.Uint32(word[:]) != pattern {
					errs[id] = fmt.Errorf("goroutine %d page %d: pattern mismatch", id, p)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "goroutine %d", i)
	}
	assert.LessOrEqual(t, m.pt.len(), m.cfg.residentCap()+1)
}
