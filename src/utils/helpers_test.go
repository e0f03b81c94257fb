package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"tms/src/models"
	"tms/src/types"
)

func TestWithSuffix(t *testing.T) {
	t.Setenv("QUEUE_SUFFIX", "")
	assert.Equal(t, "emails", WithSuffix("emails"))

	t.Setenv("QUEUE_SUFFIX", "staging")
	assert.Equal(t, "emails-staging", WithSuffix("emails"))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	assert.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, CheckPasswordHash("s3cret-pass", hash))
	assert.False(t, CheckPasswordHash("wrong-pass", hash))
}

func TestGenerateJWT(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	user := &models.User{Email: "tourist@example.com", Role: types.ROLE_TOURIST}
	user.ID = 7

	token, err := GenerateJWT(user)
	assert.NoError(t, err)
	assert.Equal(t, 3, len(strings.Split(token, ".")))
}

func TestMakeSlug(t *testing.T) {
	s := MakeSlug("Cozy Cabin @ the Lake")
	assert.True(t, strings.HasPrefix(s, "cozy-cabin-at-the-lake-"))

	assert.NotEqual(t, MakeSlug("Cozy Cabin"), MakeSlug("Cozy Cabin"))
}

func TestEncryptDecryptMessage(t *testing.T) {
	key := []byte("0123456789abcdef0123456789abcdef")

	enc, err := EncryptMessage(key, "booking:42")
	assert.NoError(t, err)
	assert.NotEqual(t, "booking:42", enc)

	dec, err := DecryptMessage(key, enc)
	assert.NoError(t, err)
	assert.Equal(t, "booking:42", *dec)

	_, err = DecryptMessage(key, "not-hex")
	assert.Error(t, err)

	_, err = DecryptMessage(key, "abcd")
	assert.Error(t, err)

	_, err = DecryptMessage([]byte("short-key"), enc)
	assert.Error(t, err)
}
