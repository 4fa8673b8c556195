package main

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"

	"github.com/cdnctl/snapdiff/pkg/aggregate"
	"github.com/cdnctl/snapdiff/pkg/category"
	"github.com/cdnctl/snapdiff/pkg/snapshot"
)

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchLoopLogsTotal(t *testing.T) {
	var out lockedBuffer
	logger := log.NewLogfmtLogger(&out)

	agg := aggregate.New(snapshot.Files{CurrentPath: currentFile, PendingPath: pendingFile}, nil)
	agg.Register(category.ContentServers)
	defer agg.Dispose()

	stop := make(chan struct{})
	wg := &sync.WaitGroup{}
	wg.Add(1)
	go watchLoop(context.Background(), agg, 10*time.Millisecond, logger, stop, wg)

	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), `total=4 pending="4 changes pending"`)
	}, time.Second, 10*time.Millisecond)

	close(stop)
	wg.Wait()
	// logged once, since it did not change
	assert.Equal(t, 1, strings.Count(out.String(), "total=4 "))
}
