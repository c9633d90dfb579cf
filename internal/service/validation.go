package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"eduplatform-web/internal/domain"
)

var (
	emailRegex   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	lowerRegex   = regexp.MustCompile(`[a-z]`)
	upperRegex   = regexp.MustCompile(`[A-Z]`)
	digitRegex   = regexp.MustCompile(`[0-9]`)
	specialRegex = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

const minPasswordLength = 8

func checkEmail(v *domain.ValidationError, email string) {
	switch {
	case email == "":
		v.Add("email", "Email is required")
	case !emailRegex.MatchString(email) || len(email) > 255:
		v.Add("email", "Invalid email address")
	}
}

// checkStrongPassword applies the password policy of registration and password changes
func checkStrongPassword(v *domain.ValidationError, field, label, password string) {
	if password == "" {
		v.Add(field, label+" is required")
		return
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		v.Add(field, "Password must be at least 8 characters")
	}
	if !lowerRegex.MatchString(password) {
		v.Add(field, "Password must contain at least one lowercase letter")
	}
	if !upperRegex.MatchString(password) {
		v.Add(field, "Password must contain at least one uppercase letter")
	}
	if !digitRegex.MatchString(password) {
		v.Add(field, "Password must contain at least one number")
	}
	if !specialRegex.MatchString(password) {
		v.Add(field, "Password must contain at least one special character")
	}
}

func checkConfirm(v *domain.ValidationError, password, confirm string) {
	switch {
	case confirm == "":
		v.Add("confirmPassword", "Please confirm your password")
	case password != confirm:
		v.Add("confirmPassword", "Passwords don't match")
	}
}

func checkName(v *domain.ValidationError, field, label, name string) {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	switch {
	case n == 0:
		v.Add(field, label+" is required")
	case n < 2:
		v.Add(field, label+" must be at least 2 characters")
	case n > 50:
		v.Add(field, label+" must be less than 50 characters")
	}
}

// ValidateLogin checks the login form
func ValidateLogin(creds domain.Credentials) error {
	var v domain.ValidationError
	checkEmail(&v, creds.Email)
	switch {
	case creds.Password == "":
		v.Add("password", "Password is required")
	case utf8.RuneCountInString(creds.Password) < minPasswordLength:
		v.Add("password", "Password must be at least 8 characters")
	}
	return v.OrNil()
}

// ValidateRegister checks the registration form
func ValidateRegister(req domain.RegisterRequest) error {
	var v domain.ValidationError
	checkName(&v, "firstName", "First name", req.FirstName)
	checkName(&v, "lastName", "Last name", req.LastName)
	checkEmail(&v, req.Email)
	checkStrongPassword(&v, "password", "Password", req.Password)
	checkConfirm(&v, req.Password, req.ConfirmPassword)
	if !req.AcceptTerms {
		v.Add("acceptTerms", "You must accept the terms and conditions")
	}
	if req.Role != "" && !req.Role.Valid() {
		v.Add("role", "Unknown role")
	}
	return v.OrNil()
}

// ValidateEmail checks the single email field of the forgot-password and
// resend-verification forms
func ValidateEmail(email string) error {
	var v domain.ValidationError
	checkEmail(&v, email)
	return v.OrNil()
}

// ValidateResetPassword checks the reset form. The token comes from the
// emailed link.
func ValidateResetPassword(req domain.ResetPasswordRequest) error {
	var v domain.ValidationError
	if strings.TrimSpace(req.Token) == "" {
		v.Add("token", "Reset token is missing")
	}
	checkStrongPassword(&v, "password", "Password", req.NewPassword)
	checkConfirm(&v, req.NewPassword, req.ConfirmPassword)
	return v.OrNil()
}

// ValidateChangePassword checks the change-password form
func ValidateChangePassword(req domain.ChangePasswordRequest) error {
	var v domain.ValidationError
	if req.CurrentPassword == "" {
		v.Add("currentPassword", "Current password is required")
	}
	checkStrongPassword(&v, "newPassword", "New password", req.NewPassword)
	checkConfirm(&v, req.NewPassword, req.ConfirmPassword)
	if req.CurrentPassword != "" && req.CurrentPassword == req.NewPassword {
		v.Add("newPassword", "New password must be different from current password")
	}
	return v.OrNil()
}

// ValidateCourse checks a course create or update request. Updates may omit
// the title and level to keep the current ones.
func ValidateCourse(req domain.CourseRequest, create bool) error {
	var v domain.ValidationError

	title := utf8.RuneCountInString(strings.TrimSpace(req.Title))
	switch {
	case title == 0 && create:
		v.Add("title", "Course title is required")
	case title > 0 && (title < 5 || title > 200):
		v.Add("title", "Title must be between 5 and 200 characters")
	}
	if utf8.RuneCountInString(req.ShortDescription) > 500 {
		v.Add("shortDescription", "Short description cannot exceed 500 characters")
	}
	if utf8.RuneCountInString(req.Description) > 5000 {
		v.Add("description", "Description cannot exceed 5000 characters")
	}

	switch req.Level {
	case domain.CourseLevelBeginner, domain.CourseLevelIntermediate, domain.CourseLevelAdvanced, domain.CourseLevelExpert:
	case "":
		if create {
			v.Add("level", "Course level is required")
		}
	default:
		v.Add("level", "Unknown course level")
	}

	if req.Price != nil && *req.Price < 0 {
		v.Add("price", "Price cannot be negative")
	}
	if req.DiscountPrice != nil && *req.DiscountPrice < 0 {
		v.Add("discountPrice", "Discount price cannot be negative")
	}
	if d := req.DurationHours; d != nil {
		if *d < 1 {
			v.Add("durationHours", "Duration must be at least 1 hour")
		} else if *d > 1000 {
			v.Add("durationHours", "Duration cannot exceed 1000 hours")
		}
	}
	if req.MaxStudents != nil && *req.MaxStudents < 1 {
		v.Add("maxStudents", "Maximum students must be at least 1")
	}
	return v.OrNil()
}
