package service

import (
	"strings"
	"testing"

	"eduplatform-web/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fieldErrors(t *testing.T, err error) map[string][]string {
	t.Helper()
	if err == nil {
		return nil
	}
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}

func TestValidateLogin(t *testing.T) {
	tests := []struct {
		name  string
		creds domain.Credentials
		want  map[string][]string
	}{
		{"valid", domain.Credentials{Email: "a@b.com", Password: "validpass1!"}, nil},
		{"empty", domain.Credentials{}, map[string][]string{
			"email":    {"Email is required"},
			"password": {"Password is required"},
		}},
		{"bad_email_short_password", domain.Credentials{Email: "a@b", Password: "1234567"}, map[string][]string{
			"email":    {"Invalid email address"},
			"password": {"Password must be at least 8 characters"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fieldErrors(t, ValidateLogin(tt.creds)))
		})
	}
}

func TestValidateRegister(t *testing.T) {
	valid := domain.RegisterRequest{
		Email: "ann@example.com", Password: "Str0ng!pass", ConfirmPassword: "Str0ng!pass",
		FirstName: "Ann", LastName: "Lee", AcceptTerms: true,
	}
	assert.NoError(t, ValidateRegister(valid))

	weak := valid
	weak.Password, weak.ConfirmPassword = "password", "different"
	weak.FirstName = "A"
	weak.LastName = strings.Repeat("x", 51)
	weak.AcceptTerms = false

	got := fieldErrors(t, ValidateRegister(weak))
	assert.Equal(t, []string{
		"Password must contain at least one uppercase letter",
		"Password must contain at least one number",
		"Password must contain at least one special character",
	}, got["password"])
	assert.Equal(t, []string{"Passwords don't match"}, got["confirmPassword"])
	assert.Equal(t, []string{"First name must be at least 2 characters"}, got["firstName"])
	assert.Equal(t, []string{"Last name must be less than 50 characters"}, got["lastName"])
	assert.Equal(t, []string{"You must accept the terms and conditions"}, got["acceptTerms"])
	assert.NotContains(t, got, "email")

	badRole := valid
	badRole.Role = "SUPERUSER"
	assert.Contains(t, fieldErrors(t, ValidateRegister(badRole)), "role")
}

func TestValidateResetPassword(t *testing.T) {
	assert.NoError(t, ValidateResetPassword(domain.ResetPasswordRequest{
		Token: "t", NewPassword: "N3w!passw", ConfirmPassword: "N3w!passw",
	}))

	got := fieldErrors(t, ValidateResetPassword(domain.ResetPasswordRequest{NewPassword: "N3w!passw"}))
	assert.Equal(t, []string{"Reset token is missing"}, got["token"])
	assert.Equal(t, []string{"Please confirm your password"}, got["confirmPassword"])
}

func TestValidateChangePassword(t *testing.T) {
	got := fieldErrors(t, ValidateChangePassword(domain.ChangePasswordRequest{}))
	assert.Equal(t, []string{"Current password is required"}, got["currentPassword"])
	assert.Equal(t, []string{"New password is required"}, got["newPassword"])

	assert.NoError(t, ValidateChangePassword(domain.ChangePasswordRequest{
		CurrentPassword: "Old!pass1", NewPassword: "N3w!passw", ConfirmPassword: "N3w!passw",
	}))
}

func TestValidateCourse(t *testing.T) {
	price, discount, hours, seats := 10.0, -1.0, 1001, 0

	got := fieldErrors(t, ValidateCourse(domain.CourseRequest{}, true))
	assert.Equal(t, []string{"Course title is required"}, got["title"])
	assert.Equal(t, []string{"Course level is required"}, got["level"])

	assert.NoError(t, ValidateCourse(domain.CourseRequest{}, false))

	got = fieldErrors(t, ValidateCourse(domain.CourseRequest{
		Title:         "Go",
		Level:         "GURU",
		Price:         &price,
		DiscountPrice: &discount,
		DurationHours: &hours,
		MaxStudents:   &seats,
	}, false))
	assert.Equal(t, []string{"Title must be between 5 and 200 characters"}, got["title"])
	assert.Equal(t, []string{"Unknown course level"}, got["level"])
	assert.Equal(t, []string{"Discount price cannot be negative"}, got["discountPrice"])
	assert.Equal(t, []string{"Duration cannot exceed 1000 hours"}, got["durationHours"])
	assert.Equal(t, []string{"Maximum students must be at least 1"}, got["maxStudents"])
	assert.NotContains(t, got, "price")
}
