package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Sink plays an asset on an output device.
type Sink interface {
	Play(ctx context.Context, asset Asset) error
}

// Actuator plays recorded assets, falling back to a default sound when
// nothing was recorded.
type Actuator struct {
	Sink    Sink
	Default *Asset
	Logger  *slog.Logger
}

// NewActuator returns an Actuator. A nil fallback selects DefaultChime.
func NewActuator(sink Sink, fallback *Asset, logger *slog.Logger) *Actuator {
	if fallback == nil {
		fallback = DefaultChime()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Actuator{Sink: sink, Default: fallback, Logger: logger}
}

// Play plays asset, or the default asset when asset is nil. Every failure
// is reported as ErrPlaybackFailed.
func (a *Actuator) Play(ctx context.Context, asset *Asset) error {
	target := asset
	if target == nil {
		target = a.Default
	}
	if !target.Valid() {
		return fmt.Errorf("%w: invalid asset handle", ErrPlaybackFailed)
	}
	if a.Sink == nil {
		return fmt.Errorf("%w: no output sink", ErrPlaybackFailed)
	}

	if err := a.Sink.Play(ctx, *target); err != nil {
		a.Logger.Warn("playback failed", "asset", target.ID, "err", err)
		if errors.Is(err, ErrPlaybackFailed) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrPlaybackFailed, err)
	}
	a.Logger.Debug("playback started", "asset", target.ID, "default", asset == nil)
	return nil
}
