package ratectl

import "testing"

func validConfig(mode Mode) Config {
	return Config{
		Mode:             mode,
		Quality:          200,
		Bitrate:          2_000_000,
		MinQuality:       40,
		MaxQuality:       360,
		MinIFrameQuality: 80,
		MinQStep:         4,
		MaxQStep:         40,
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := validConfig(CRF)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestConfigValidateRejectsBadMode(t *testing.T) {
	cfg := validConfig(Mode(99))
	if err := cfg.Validate(); err != ErrBadMode {
		t.Fatalf("got %v, want ErrBadMode", err)
	}
}

func TestConfigValidateRejectsABRWithoutBitrate(t *testing.T) {
	cfg := validConfig(ABR)
	cfg.Bitrate = 0
	if err := cfg.Validate(); err != ErrBadBitrate {
		t.Fatalf("got %v, want ErrBadBitrate", err)
	}
}

func TestCQPPassesThrough(t *testing.T) {
	cfg := validConfig(CQP)
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	c := NewController(cfg, 25, 1)
	for _, hasRef := range []bool{false, true} {
		if got := c.NextQuality(hasRef, 50); got != cfg.Quality {
			t.Fatalf("NextQuality(hasRef=%v) = %d, want %d", hasRef, got, cfg.Quality)
		}
	}
}

func TestCRFStaysWithinBounds(t *testing.T) {
	cfg := validConfig(CRF)
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	c := NewController(cfg, 25, 1)
	for i := 0; i < 50; i++ {
		hasRef := i > 0
		complexity := float64((i * 37) % 100)
		q := c.NextQuality(hasRef, complexity)
		if q < cfg.MinQuality || q > cfg.MaxQuality {
			t.Fatalf("frame %d: quality %d out of [%d, %d]", i, q, cfg.MinQuality, cfg.MaxQuality)
		}
		c.Sample(float64(q))
	}
}

func TestCRFHighComplexityLowersQuality(t *testing.T) {
	cfg := validConfig(CRF)
	cfg.Validate()
	low := NewController(cfg, 25, 1)
	high := NewController(cfg, 25, 1)
	qLow := low.NextQuality(true, 10)
	qHigh := high.NextQuality(true, 90)
	if qHigh > qLow {
		t.Fatalf("high-complexity quality %d should not exceed low-complexity quality %d", qHigh, qLow)
	}
}

func TestABRStaysWithinBounds(t *testing.T) {
	cfg := validConfig(ABR)
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	c := NewController(cfg, 25, 1)
	for i := 0; i < 300; i++ {
		hasRef := i > 0
		q := c.NextQuality(hasRef, 50)
		if q < cfg.MinQuality || q > cfg.MaxQuality {
			t.Fatalf("frame %d: quality %d out of [%d, %d]", i, q, cfg.MinQuality, cfg.MaxQuality)
		}
		// Simulate output bytes scaling inversely with QP (lower QP -> more bytes).
		qp := QualityToQP(q)
		bytes := 200000.0 / float64(qp+1)
		c.Sample(bytes)
	}
}

func TestSampleResetsEveryRFResetPeriod(t *testing.T) {
	cfg := validConfig(ABR)
	cfg.Validate()
	c := NewController(cfg, 25, 1)
	for i := 0; i < RFResetPeriod; i++ {
		c.Sample(100)
	}
	if len(c.samples) != 0 {
		t.Fatalf("expected samples to reset after %d frames, got %d buffered", RFResetPeriod, len(c.samples))
	}
	if c.rfAvg != 100 {
		t.Fatalf("rfAvg = %v, want 100", c.rfAvg)
	}
}
