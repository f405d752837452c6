package anton

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// LockStatus mirrors the teacher's heartbeat liveness states, applied here
// to a single process-wide Anton lock instead of a gateway process.
type LockStatus string

const (
	LockAlive LockStatus = "alive"
	LockStale LockStatus = "stale"
	LockDead  LockStatus = "dead"
)

// LockInfo is the data persisted in the lock file.
type LockInfo struct {
	PID       int       `json:"pid"`
	TaskFile  string    `json:"task_file"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

const lockHeartbeatInterval = 5 * time.Second
const lockStaleMultiple = 3 // a lock older than 3 heartbeats is reclaimable

// Lock is a scoped, heartbeat-refreshed lock file serializing runs across
// processes that use the same lock path. The task file is recorded in the
// lock file but is not compared, so runs on different task files that share
// a lock path also exclude each other. Grounded on the
// teacher's heartbeat.Writer/Check (atomic tmp+rename heartbeat, age-based
// staleness), generalized from a liveness probe to a mutual-exclusion lock.
type Lock struct {
	path     string
	taskFile string

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started time.Time
}

// NewLock creates a lock at path for the given task file.
func NewLock(path, taskFile string) *Lock {
	return &Lock{path: path, taskFile: taskFile}
}

// Acquire checks for a live competing lock and, if none exists, writes the
// lock file and starts the heartbeat goroutine. Callers must call Release
// in a defer — including on panic — to guarantee the lock is freed.
func (l *Lock) Acquire() error {
	status, info, err := CheckLock(l.path)
	if err != nil {
		return fmt.Errorf("check lock: %w", err)
	}
	if status == LockAlive {
		return fmt.Errorf("anton lock held by pid %d since %s", info.PID, info.StartedAt)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.started = time.Now()
	l.done = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel

	l.write()

	go func() {
		defer close(l.done)
		ticker := time.NewTicker(lockHeartbeatInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				l.write()
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Release stops the heartbeat goroutine and removes the lock file. Safe to
// call even if Acquire was never called or already released.
func (l *Lock) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel == nil {
		return
	}
	l.cancel()
	<-l.done
	l.cancel = nil
	os.Remove(l.path)
}

func (l *Lock) write() {
	info := LockInfo{
		PID:       os.Getpid(),
		TaskFile:  l.taskFile,
		StartedAt: l.started,
		Timestamp: time.Now(),
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return
	}
	os.Rename(tmp, l.path)
}

// CheckLock reads a lock file and classifies its liveness. A lock older
// than lockStaleMultiple heartbeat intervals is considered reclaimable.
func CheckLock(path string) (LockStatus, *LockInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return LockDead, nil, nil
		}
		return LockDead, nil, fmt.Errorf("read lock: %w", err)
	}

	var info LockInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return LockDead, nil, fmt.Errorf("unmarshal lock: %w", err)
	}

	if time.Since(info.Timestamp) > lockHeartbeatInterval*lockStaleMultiple {
		return LockStale, &info, nil
	}
	return LockAlive, &info, nil
}
