package codec

import "testing"

func TestPrimitivesRoundTrip(t *testing.T) {
	e := NewEncoder()
	e.Add1B(0xAB)
	e.Add2B(0x1234)
	e.Add4B(0xDEADBEEF)
	e.AddDouble(3.5)
	e.AddStr("hello")

	d := NewDecoder(e.Bytes())
	if got := d.Next1B(); got != 0xAB {
		t.Errorf("Next1B = %x, want AB", got)
	}
	if got := d.Next2B(); got != 0x1234 {
		t.Errorf("Next2B = %x, want 1234", got)
	}
	if got := d.Next4B(); got != 0xDEADBEEF {
		t.Errorf("Next4B = %x, want DEADBEEF", got)
	}
	if got := d.NextDouble(); got != 3.5 {
		t.Errorf("NextDouble = %v, want 3.5", got)
	}
	if got := d.NextStr(); got != "hello" {
		t.Errorf("NextStr = %q, want hello", got)
	}
	if err := d.Err(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.IsEnd() {
		t.Fatalf("expected IsEnd after consuming exactly what was written")
	}
}

func TestDecoderTruncation(t *testing.T) {
	d := NewDecoder([]byte{0x01})
	d.Next4B()
	if d.Err() == nil {
		t.Fatalf("expected truncation error reading 4 bytes from a 1-byte buffer")
	}
	// Subsequent calls stay inert and do not panic.
	if got := d.Next1B(); got != 0 {
		t.Errorf("Next1B after error = %d, want 0", got)
	}
}

func TestCompressBlockRoundTrip(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog, repeatedly, for compressibility")
	block, err := CompressBlock(payload)
	if err != nil {
		t.Fatalf("CompressBlock: %v", err)
	}
	got, consumed, err := DecompressBlock(block)
	if err != nil {
		t.Fatalf("DecompressBlock: %v", err)
	}
	if consumed != len(block) {
		t.Errorf("consumed = %d, want %d", consumed, len(block))
	}
	if string(got) != string(payload) {
		t.Errorf("round trip payload mismatch: got %q", got)
	}
}

func TestCompressBlockRejectsBadCRC(t *testing.T) {
	block, err := CompressBlock([]byte("corruptible payload"))
	if err != nil {
		t.Fatalf("CompressBlock: %v", err)
	}
	block[8] ^= 0xFF // flip a CRC byte
	if _, _, err := DecompressBlock(block); err == nil {
		t.Fatalf("expected CRC mismatch to be rejected")
	}
}
