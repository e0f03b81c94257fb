package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserRoleValid(t *testing.T) {
	assert.True(t, ROLE_TOURIST.Valid())
	assert.True(t, ROLE_GUIDE.Valid())
	assert.True(t, ROLE_PROVIDER.Valid())
	assert.True(t, ROLE_ADMIN.Valid())
	assert.False(t, UserRole("superuser").Valid())
	assert.False(t, UserRole("").Valid())
}

func TestUserRoleCanHost(t *testing.T) {
	assert.True(t, ROLE_GUIDE.CanHost())
	assert.True(t, ROLE_PROVIDER.CanHost())
	assert.False(t, ROLE_TOURIST.CanHost())
	assert.False(t, ROLE_ADMIN.CanHost())
}

func TestSubjectTypeValid(t *testing.T) {
	assert.True(t, SUBJECT_ACCOMMODATION.Valid())
	assert.True(t, SUBJECT_GUIDE.Valid())
	assert.False(t, SubjectType("vehicle").Valid())
}
