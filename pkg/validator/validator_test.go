package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signupForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,min=6"`
}

func TestValidate(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(&signupForm{Email: "a@x.com", Password: "secret1"}))

	err := v.Validate(&signupForm{Email: "a@x.com", Password: "123"})
	require.Error(t, err)
	assert.Equal(t, "password must be at least 6 characters.", Message(err))

	err = v.Validate(&signupForm{Email: "nope", Password: "secret1"})
	assert.Equal(t, "Please enter a valid email address.", Message(err))

	err = v.Validate(&signupForm{Password: "secret1"})
	assert.Equal(t, "email is required.", Message(err))
}
