package core

import "testing"

func TestApplyProcessorOptions(t *testing.T) {
	cfg := ApplyProcessorOptions(WithSampleRate(512), WithBlockSize(32))
	if cfg.SampleRate != 512 {
		t.Fatalf("sample rate = %v, want 512", cfg.SampleRate)
	}
	if cfg.BlockSize != 32 {
		t.Fatalf("block size = %d, want 32", cfg.BlockSize)
	}
}

func TestInvalidOptionsIgnored(t *testing.T) {
	cfg := ApplyProcessorOptions(WithSampleRate(0), WithBlockSize(-1), nil)
	def := DefaultProcessorConfig()
	if cfg != def {
		t.Fatalf("cfg = %#v, want %#v", cfg, def)
	}
}
