// SPDX-License-Identifier: MIT

package session

import (
	"context"
	"time"

	"github.com/zwlin/pagebot/internal/log"
	"github.com/zwlin/pagebot/internal/metrics"
)

// Sweep evicts sessions idle for longer than ttl and reports how many were
// removed. A session whose turn gate is currently held is skipped; it will
// be collected on a later sweep.
func (st *Store) Sweep(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	cutoff := st.now().Add(-ttl)

	st.mu.Lock()
	defer st.mu.Unlock()

	evicted := 0
	for userID, s := range st.byUser {
		if !s.LastSeen().Before(cutoff) {
			continue
		}
		select {
		case s.turn <- struct{}{}:
			<-s.turn
		default:
			continue // turn in flight
		}
		delete(st.byUser, userID)
		delete(st.byID, s.ID)
		evicted++
		st.logger.Debug().
			Str(log.FieldSessionID, s.ID).
			Str(log.FieldUserID, userID).
			Msg("session evicted")
	}
	if evicted > 0 {
		metrics.SetSessionsLive(len(st.byID))
	}
	return evicted
}

// RunJanitor periodically sweeps idle sessions until ctx is done. With a
// zero ttl it returns immediately: sessions then live for the process
// lifetime, which is the default.
func (st *Store) RunJanitor(ctx context.Context, interval, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(ttl); n > 0 {
				st.logger.Info().Int("evicted", n).Msg("session sweep")
			}
		}
	}
}
