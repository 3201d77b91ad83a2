package core

import "testing"

func TestApplyProcessorOptions(t *testing.T) {
	cfg := ApplyProcessorOptions(WithSampleRate(96000), WithBlockSize(2048), WithChannels(1))
	if cfg.SampleRate != 96000 {
		t.Fatalf("sample rate = %v, want 96000", cfg.SampleRate)
	}
	if cfg.BlockSize != 2048 {
		t.Fatalf("block size = %d, want 2048", cfg.BlockSize)
	}
	if cfg.Channels != 1 {
		t.Fatalf("channels = %d, want 1", cfg.Channels)
	}
}

func TestInvalidOptionsIgnored(t *testing.T) {
	cfg := ApplyProcessorOptions(WithSampleRate(0), WithBlockSize(-1), WithChannels(0))
	def := DefaultProcessorConfig()
	if cfg != def {
		t.Fatalf("cfg = %#v, want %#v", cfg, def)
	}
}

func TestProcessorConfigValidate(t *testing.T) {
	if err := DefaultProcessorConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	bad := []ProcessorConfig{
		{SampleRate: 0, BlockSize: 256, Channels: 2},
		{SampleRate: 44100, BlockSize: 0, Channels: 2},
		{SampleRate: 44100, BlockSize: 256, Channels: 0},
	}
	for i, cfg := range bad {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error for %#v", i, cfg)
		}
	}
}
