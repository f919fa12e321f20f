package feed

import (
	"go.uber.org/zap"

	"cafedash/internal/metrics"
)

// Player drives one reusable sound handle.
type Player interface {
	Prepare(src string) error
	// Restart rewinds to position zero and plays.
	Restart() error
	Release()
}

// Chime is the new-order cue for one view. Triggers never queue: a
// trigger during playback restarts it.
type Chime struct {
	player Player
	src    string
	logger *zap.Logger
	ready  bool
}

func NewChime(player Player, src string, logger *zap.Logger) *Chime {
	return &Chime{player: player, src: src, logger: logger}
}

func (c *Chime) Open() error {
	if c.ready {
		return nil
	}
	if err := c.player.Prepare(c.src); err != nil {
		return err
	}
	c.ready = true
	return nil
}

// Trigger never fails from the caller's point of view.
func (c *Chime) Trigger() {
	if !c.ready {
		c.logger.Warn("order alert skipped, sound not prepared")
		metrics.AlertFailuresTotal.Inc()
		return
	}
	if err := c.player.Restart(); err != nil {
		c.logger.Warn("order alert playback failed", zap.Error(err))
		metrics.AlertFailuresTotal.Inc()
		return
	}
	metrics.OrderAlertsTotal.Inc()
}

func (c *Chime) Close() {
	if !c.ready {
		return
	}
	c.player.Release()
	c.ready = false
}
