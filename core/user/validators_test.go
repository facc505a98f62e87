package user_test

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/tathmini/core/user"
	"github.com/trezcool/tathmini/tests"
)

func TestNewStaff_passwordPolicy(t *testing.T) {
	validate := testutil.NewValidate()

	tests := []struct {
		name    string
		pwd     string
		wantTag string
	}{
		{name: "too short", pwd: "Ab1#", wantTag: "pwdminlen"},
		{name: "whitespace", pwd: "Abc 123#xyz", wantTag: "pwdnospace"},
		{name: "all numeric", pwd: "1234567890", wantTag: "pwdnotallnum"},
		{name: "no special char", pwd: "Abcdef123", wantTag: "pwdcplx"},
		{name: "no upper", pwd: "abcdef1#3", wantTag: "pwdcplx"},
		{name: "similar to name", pwd: "Grace#Hopper1", wantTag: "pwdtoosim"},
		{name: "common", pwd: "P@ssw0rd1", wantTag: "pwdnocommon"},
		{name: "valid", pwd: "Kx9#mQ2!vR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate.Struct(user.NewStaff{
				Name:            "Grace Hopper",
				Email:           "grace@test.cd",
				Password:        tt.pwd,
				PasswordConfirm: tt.pwd,
			})
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			verrs, ok := err.(validator.ValidationErrors)
			if assert.True(t, ok, "want validator.ValidationErrors, got %v", err) {
				assert.Equal(t, tt.wantTag, verrs[0].Tag())
				assert.Equal(t, "password", verrs[0].Field())
			}
		})
	}
}

func TestNewStaff_passwordConfirm(t *testing.T) {
	validate := testutil.NewValidate()
	err := validate.Struct(user.NewStaff{
		Name:            "Grace",
		Email:           "grace@test.cd",
		Password:        "Kx9#mQ2!vR",
		PasswordConfirm: "Kx9#mQ2!vr",
	})
	verrs, ok := err.(validator.ValidationErrors)
	if assert.True(t, ok) {
		assert.Equal(t, "password_confirm", verrs[0].Field())
		assert.Equal(t, "eqfield", verrs[0].Tag())
	}
}
