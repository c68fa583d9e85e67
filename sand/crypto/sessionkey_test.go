package crypto

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy unavailable") }

func TestSessionKeyManagerRoundTrip(t *testing.T) {
	m, err := GenerateSessionKeyManager()
	require.NoError(t, err)

	for _, msg := range []string{"a", "Hello from A", "ünïcödé ✓", string(bytes.Repeat([]byte("x"), 4096))} {
		ct, err := m.Encrypt([]byte(msg))
		require.NoError(t, err)
		assert.NotContains(t, string(ct), msg)

		pt, err := m.Decrypt(ct)
		require.NoError(t, err)
		assert.Equal(t, msg, string(pt))
	}
}

func TestSessionKeyManagerEmptyInput(t *testing.T) {
	m, err := GenerateSessionKeyManager()
	require.NoError(t, err)

	_, err = m.Encrypt(nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
	_, err = m.Decrypt([]byte{})
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestSessionKeyManagerTamperEveryBit(t *testing.T) {
	m, err := GenerateSessionKeyManager()
	require.NoError(t, err)

	ct, err := m.Encrypt([]byte("tamper me"))
	require.NoError(t, err)

	for i := 0; i < len(ct)*8; i++ {
		forged := append([]byte(nil), ct...)
		forged[i/8] ^= 1 << (i % 8)
		pt, err := m.Decrypt(forged)
		require.ErrorIs(t, err, ErrAuthenticationFailed, "bit %d", i)
		require.Nil(t, pt, "bit %d", i)
	}
}

func TestSessionKeyManagerForeignKey(t *testing.T) {
	a, _ := GenerateSessionKeyManager()
	b, _ := GenerateSessionKeyManager()

	ct, err := a.Encrypt([]byte("for a only"))
	require.NoError(t, err)
	_, err = b.Decrypt(ct)
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}

func TestSessionKeyManagerSharedKey(t *testing.T) {
	a, _ := GenerateSessionKeyManager()
	b, err := NewSessionKeyManager(a.Key())
	require.NoError(t, err)

	ct, _ := a.Encrypt([]byte("same key"))
	pt, err := b.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, "same key", string(pt))

	_, err = NewSessionKeyManager([]byte("short"))
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}

func TestSessionKeyManagerDestroy(t *testing.T) {
	m, _ := GenerateSessionKeyManager()
	raw := m.key
	m.Destroy()

	assert.True(t, m.Destroyed())
	assert.Equal(t, make([]byte, KeySize), raw)
	assert.Nil(t, m.Key())

	_, err := m.Encrypt([]byte("x"))
	assert.ErrorIs(t, err, ErrKeyDestroyed)
	_, err = m.Decrypt([]byte("x"))
	assert.ErrorIs(t, err, ErrKeyDestroyed)

	m.Destroy()
}

func TestGenerateSessionKeyManagerRNGFailure(t *testing.T) {
	prev := randReader
	randReader = failingReader{}
	defer func() { randReader = prev }()

	_, err := GenerateSessionKeyManager()
	assert.ErrorIs(t, err, ErrKeyGeneration)

	_, err = NewX25519Agreement()
	assert.ErrorIs(t, err, ErrKeyGeneration)
}

func TestX25519AgreementSharedKey(t *testing.T) {
	a, err := NewX25519Agreement()
	require.NoError(t, err)
	b, err := NewX25519Agreement()
	require.NoError(t, err)

	ka, err := a.Agree(b.Material())
	require.NoError(t, err)
	kb, err := b.Agree(a.Material())
	require.NoError(t, err)
	assert.Equal(t, ka.Key(), kb.Key())

	ct, _ := ka.Encrypt([]byte("hello"))
	pt, err := kb.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(pt))

	_, err = a.Agree(make([]byte, 32))
	assert.ErrorIs(t, err, ErrInvalidPublicKey)
	_, err = a.Agree([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrInvalidPublicKey)

	a.Destroy()
	assert.Equal(t, [32]byte{}, a.kp.PrivateKey)
	_, err = a.Agree(b.Material())
	assert.ErrorIs(t, err, ErrKeyDestroyed)
}

func TestLocalAgreementIgnoresPeer(t *testing.T) {
	a, err := NewLocalAgreement()
	require.NoError(t, err)
	b, err := NewLocalAgreement()
	require.NoError(t, err)

	ka, err := a.Agree(b.Material())
	require.NoError(t, err)
	assert.Equal(t, a.Material(), ka.Key())
	assert.NotEqual(t, b.Material(), ka.Key())

	// manager is independent of the agreement's own key
	ka.Destroy()
	assert.Len(t, a.Material(), KeySize)

	a.Destroy()
	assert.Nil(t, a.Material())
	_, err = a.Agree(nil)
	assert.ErrorIs(t, err, ErrKeyDestroyed)
}
