package audio

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestActuatorPlaysAsset(t *testing.T) {
	sink := &fakeSink{}
	a := NewActuator(sink, nil, nil)
	asset := NewAsset("audio/wav", []byte("recorded"))

	if err := a.Play(context.Background(), asset); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if len(sink.played) != 1 || sink.played[0].ID != asset.ID {
		t.Errorf("played = %+v", sink.played)
	}
}

func TestActuatorFallsBackToDefault(t *testing.T) {
	sink := &fakeSink{}
	fallback := NewAsset("audio/wav", []byte("beep"))
	a := NewActuator(sink, fallback, nil)

	if err := a.Play(context.Background(), nil); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if len(sink.played) != 1 || sink.played[0].ID != fallback.ID {
		t.Errorf("expected default asset, played %+v", sink.played)
	}
}

func TestActuatorReportsFailures(t *testing.T) {
	a := NewActuator(&fakeSink{err: errAutoplay}, nil, nil)
	err := a.Play(context.Background(), NewAsset("", []byte("x")))
	if !errors.Is(err, ErrPlaybackFailed) {
		t.Errorf("sink failure err = %v, want ErrPlaybackFailed", err)
	}

	a = NewActuator(&fakeSink{}, nil, nil)
	err = a.Play(context.Background(), &Asset{ID: "empty"})
	if !errors.Is(err, ErrPlaybackFailed) {
		t.Errorf("invalid handle err = %v, want ErrPlaybackFailed", err)
	}
}

func TestDefaultChimeIsWAV(t *testing.T) {
	chime := DefaultChime()
	if !chime.Valid() {
		t.Fatal("default chime should be playable")
	}
	if !bytes.HasPrefix(chime.Data, []byte("RIFF")) || string(chime.Data[8:12]) != "WAVE" {
		t.Error("default chime should carry a RIFF/WAVE header")
	}
	if DefaultChime() != chime {
		t.Error("default chime should be cached")
	}
}

func TestAssetFileRoundTrip(t *testing.T) {
	path := t.TempDir() + "/clip.wav"
	asset := NewAsset("audio/wav", []byte("RIFFxxxxWAVE"))
	if err := asset.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	loaded, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if !bytes.Equal(loaded.Data, asset.Data) {
		t.Error("loaded data differs")
	}
	if loaded.Extension() != ".wav" {
		t.Errorf("extension = %q", loaded.Extension())
	}
}
