package idempotency

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{"uuid", "550e8400-e29b-41d4-a716-446655440000", nil},
		{"alphanumeric with separators", "reserve-ord_42", nil},
		{"empty", "", ErrKeyRequired},
		{"over max length", strings.Repeat("a", DefaultMaxKeyLength+1), ErrKeyTooLong},
		{"at max length", strings.Repeat("a", DefaultMaxKeyLength), nil},
		{"spaces", "abc 123", ErrKeyInvalid},
		{"special characters", "abc@123", ErrKeyInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ValidateKey(tt.key), tt.wantErr)
		})
	}
}

func TestValidateKeyWithMaxLength(t *testing.T) {
	assert.NoError(t, ValidateKeyWithMaxLength("short-key", 16))
	assert.ErrorIs(t, ValidateKeyWithMaxLength("a-key-over-the-limit", 16), ErrKeyTooLong)
}

func TestComputeFingerprint(t *testing.T) {
	// SHA-256 of the empty input, hex encoded.
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		ComputeFingerprint(nil))

	body := []byte(`{"productId":"acme-widget","quantity":5}`)
	got := ComputeFingerprint(body)

	assert.Len(t, got, 64)
	assert.Equal(t, got, ComputeFingerprint(body), "fingerprint must be deterministic")
	assert.NotEqual(t, got, ComputeFingerprint([]byte(`{"productId":"acme-widget","quantity":6}`)))
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"abc123", "abc123"},
		{"  abc123", "abc123"},
		{"abc123  ", "abc123"},
		{"  abc123  ", "abc123"},
		{"\tabc123\t", "abc123"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeKey(tt.key))
	}
}

func TestIsValidKeyChar(t *testing.T) {
	for _, valid := range []rune{'a', 'A', '5', '-', '_'} {
		assert.True(t, IsValidKeyChar(valid), "%c should be accepted", valid)
	}
	for _, invalid := range []rune{' ', '@', '.', '/'} {
		assert.False(t, IsValidKeyChar(invalid), "%c should be rejected", invalid)
	}
}

func BenchmarkComputeFingerprint(b *testing.B) {
	body := []byte(`{"productId":"acme-widget","quantity":5,"referenceId":"ord-456"}`)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ComputeFingerprint(body)
	}
}
