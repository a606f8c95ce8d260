package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campuskit/campus-api/internal/domain/entity"
)

func TestAllowed(t *testing.T) {
	assert.True(t, Allowed(entity.RoleAdmin, entity.RoleAdmin))
	assert.True(t, Allowed(entity.RoleInstructor, entity.RoleAdmin, entity.RoleInstructor))
	assert.False(t, Allowed(entity.RoleStudent, entity.RoleAdmin))
	assert.False(t, Allowed(entity.Role(""), entity.RoleAdmin))
	assert.False(t, Allowed(entity.RoleAdmin), "empty required set allows nobody")
}
