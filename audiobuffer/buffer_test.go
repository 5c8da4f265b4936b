package audiobuffer

import "testing"

func TestBuffer_DrainIfReady_BelowThreshold(t *testing.T) {
	buf := New(100)
	buf.Append(make([]byte, 50))

	if _, ok := buf.DrainIfReady(); ok {
		t.Error("expected DrainIfReady to be false below threshold")
	}
	if buf.Len() != 50 {
		t.Errorf("expected buffer to retain 50 bytes, got %d", buf.Len())
	}
}

func TestBuffer_DrainIfReady_AtThreshold(t *testing.T) {
	buf := New(100)
	buf.Append(make([]byte, 60))
	buf.Append(make([]byte, 40))

	drained, ok := buf.DrainIfReady()
	if !ok {
		t.Fatal("expected DrainIfReady to succeed at threshold")
	}
	if len(drained) != 100 {
		t.Errorf("expected 100 drained bytes, got %d", len(drained))
	}
	if buf.Len() != 0 {
		t.Errorf("expected buffer empty after drain, got %d bytes", buf.Len())
	}
}

func TestBuffer_DrainForce_BelowThreshold(t *testing.T) {
	buf := New(1000)
	buf.Append(make([]byte, 10))

	drained := buf.DrainForce()
	if len(drained) != 10 {
		t.Errorf("expected 10 forced bytes, got %d", len(drained))
	}
	if buf.Len() != 0 {
		t.Errorf("expected buffer empty after force drain, got %d bytes", buf.Len())
	}
}

func TestBuffer_DrainForce_Empty(t *testing.T) {
	buf := New(100)
	if drained := buf.DrainForce(); len(drained) != 0 {
		t.Errorf("expected empty drain, got %d bytes", len(drained))
	}
}

func TestBytesForSeconds_ClampsRange(t *testing.T) {
	if got := BytesForSeconds(0.1); got != int(minBufferSeconds*DefaultSampleRate) {
		t.Errorf("expected clamp to min, got %d", got)
	}
	if got := BytesForSeconds(20); got != int(maxBufferSeconds*DefaultSampleRate) {
		t.Errorf("expected clamp to max, got %d", got)
	}
	if got := BytesForSeconds(4.0); got != 32000 {
		t.Errorf("expected 32000 bytes for 4s, got %d", got)
	}
}

func TestNew_DefaultsThreshold(t *testing.T) {
	buf := New(0)
	if buf.thresholdBytes != BytesForSeconds(DefaultBufferSeconds) {
		t.Errorf("expected default threshold, got %d", buf.thresholdBytes)
	}
}
