package listener

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"airdrop-engine/internal/observability"
	"airdrop-engine/internal/storage"
)

// ListenAndRefresh watches the campaigns table via LISTEN/NOTIFY and keeps
// the active-campaign gauge current. Campaign rows change on every create,
// update and airdrop, and disappear when a campaign is exhausted.
func ListenAndRefresh(ctx context.Context, st *storage.Store, channel string, baseBackoff time.Duration) {
	conn, err := st.PgxPool().Acquire(ctx)
	if err != nil {
		log.Error().Err(err).Msg("acquire conn for listen")
		return
	}
	defer conn.Release()

	if channel == "" {
		channel = st.ListenChannel()
	}
	if _, err = conn.Exec(ctx, "LISTEN "+channel); err != nil {
		log.Error().Err(err).Str("channel", channel).Msg("listen")
		return
	}
	log.Info().Str("channel", channel).Msg("listening for campaign changes")

	refreshGauge(ctx, st)

	var lastRefresh time.Time
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("listener stopped")
			return
		default:
			ntf, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				backoff := jitter(baseBackoff)
				log.Error().Err(err).Dur("retry_in", backoff).Msg("notify wait error")
				time.Sleep(backoff)
				continue
			}
			if time.Since(lastRefresh) < 200*time.Millisecond {
				continue // debounce burst of notifications
			}
			lastRefresh = time.Now()
			log.Debug().Str("channel", ntf.Channel).Str("campaign", ntf.Payload).Msg("campaign change")
			refreshGauge(ctx, st)
		}
	}
}

func refreshGauge(ctx context.Context, st *storage.Store) {
	n, err := st.CountCampaigns(ctx)
	if err != nil {
		log.Error().Err(err).Msg("count campaigns")
		return
	}
	observability.ActiveCampaigns.Set(float64(n))
}

func jitter(base time.Duration) time.Duration {
	if base <= 0 {
		base = time.Second
	}
	factor := 0.5 + rand.Float64() // 0.5x-1.5x
	return time.Duration(float64(base) * factor)
}
