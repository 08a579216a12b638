package idgen

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextID_Unique(t *testing.T) {
	const n = 10000
	seen := make(map[int64]struct{}, n)
	for i := 0; i < n; i++ {
		id := NextID()
		_, dup := seen[id]
		assert.False(t, dup, "duplicate id %d", id)
		seen[id] = struct{}{}
	}
}

func TestNextID_ConcurrentUnique(t *testing.T) {
	const workers = 8
	const perWorker = 1000

	var mu sync.Mutex
	seen := make(map[int64]struct{}, workers*perWorker)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int64, 0, perWorker)
			for i := 0; i < perWorker; i++ {
				local = append(local, NextID())
			}
			mu.Lock()
			defer mu.Unlock()
			for _, id := range local {
				seen[id] = struct{}{}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*perWorker, len(seen))
}

func TestBusinessNumberFormats(t *testing.T) {
	assert.True(t, strings.HasPrefix(GenerateAccountNo(), "CBI"))
	assert.True(t, strings.HasPrefix(GenerateFDNo(), "FD"))
	assert.True(t, strings.HasPrefix(GenerateTransactionNo(), "TXN"))
	assert.True(t, strings.HasPrefix(GenerateTicketNo(), "TKT"))

	card := GenerateCardNo()
	assert.Len(t, card, 16)
	assert.True(t, strings.HasPrefix(card, "4532"))

	cvv := GenerateCVV()
	assert.Len(t, cvv, 3)
}
