package password

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cheapHasher() *Argon2idHasher {
	return NewArgon2idHasherWithParams(Params{Time: 1, Memory: 1024, Threads: 1, SaltLen: 8, KeyLen: 16})
}

func TestArgon2idHasher_RoundTrip(t *testing.T) {
	h := cheapHasher()
	encoded, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$"))

	ok, err := h.Verify("correct horse battery staple", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify("wrong", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2idHasher_SaltsDiffer(t *testing.T) {
	h := cheapHasher()
	a, _ := h.Hash("same")
	b, _ := h.Hash("same")
	assert.NotEqual(t, a, b)
}

func TestArgon2idHasher_EmptyPassword(t *testing.T) {
	_, err := cheapHasher().Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestArgon2idHasher_InvalidHash(t *testing.T) {
	h := cheapHasher()
	for _, bad := range []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=0$c2FsdA$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$!!$a2V5",
	} {
		_, err := h.Verify("x", bad)
		assert.ErrorIs(t, err, ErrInvalidHash, bad)
	}
}

func TestArgon2idHasher_NeedsRehash(t *testing.T) {
	cheap := cheapHasher()
	encoded, err := cheap.Hash("pw")
	require.NoError(t, err)

	assert.False(t, cheap.NeedsRehash(encoded))
	assert.True(t, NewArgon2idHasher().NeedsRehash(encoded))
	assert.True(t, cheap.NeedsRehash("garbage"))
}
