package usecase

import (
	"math"
	"strconv"
	"strings"

	"emprende/internal/domain/entity"
	"emprende/pkg/errors"
)

const (
	MsgProductNameRequired        = "product name is required"
	MsgProductPriceInvalid        = "enter a valid price"
	MsgProductDescriptionRequired = "product description is required"
	MsgProductImageRequired       = "select an image for the product"

	MsgRegistrationIncomplete = "complete all fields"
	MsgPasswordsDoNotMatch    = "passwords do not match"
	MsgPasswordTooShort       = "password must be at least 6 characters"
	MsgInvalidUserType        = "user type must be cliente or emprendedor"
	MsgLoginIncomplete        = "email and password are required"
)

// minPasswordLength is the shortest password Firebase Auth accepts.
const minPasswordLength = 6

// ProductForm is the raw listing form as submitted; Price is kept as text so that a missing or
// non-numeric value can be told apart from zero.
type ProductForm struct {
	Name        string
	Price       string
	Description string
	Category    string
	HasImage    bool
}

type ValidProduct struct {
	Name        string
	Price       float64
	Description string
	Category    string
}

// ValidateProductForm checks the fields in display order and reports only the first problem.
func ValidateProductForm(form ProductForm) (*ValidProduct, error) {
	name := strings.TrimSpace(form.Name)
	if name == "" {
		return nil, errors.Validation(MsgProductNameRequired)
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(form.Price), 64)
	if err != nil || price <= 0 || math.IsInf(price, 0) || math.IsNaN(price) {
		return nil, errors.Validation(MsgProductPriceInvalid)
	}

	description := strings.TrimSpace(form.Description)
	if description == "" {
		return nil, errors.Validation(MsgProductDescriptionRequired)
	}

	if !form.HasImage {
		return nil, errors.Validation(MsgProductImageRequired)
	}

	category := strings.TrimSpace(form.Category)
	if category == entity.CategoryAll {
		category = ""
	}

	return &ValidProduct{
		Name:        name,
		Price:       price,
		Description: description,
		Category:    category,
	}, nil
}

type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
	UserName        string
	UserType        string
}

// ValidateRegistration normalizes input in place (trimmed email and user name, default user type).
func ValidateRegistration(input *RegisterInput) error {
	input.Email = strings.TrimSpace(input.Email)
	input.UserName = strings.TrimSpace(input.UserName)
	input.UserType = strings.TrimSpace(input.UserType)

	if input.Email == "" || input.Password == "" || input.ConfirmPassword == "" || input.UserName == "" {
		return errors.Validation(MsgRegistrationIncomplete)
	}
	if input.Password != input.ConfirmPassword {
		return errors.Validation(MsgPasswordsDoNotMatch)
	}
	if len(input.Password) < minPasswordLength {
		return errors.Validation(MsgPasswordTooShort)
	}

	if input.UserType == "" {
		input.UserType = entity.UserTypeClient
	}
	if !entity.IsValidUserType(input.UserType) {
		return errors.Validation(MsgInvalidUserType)
	}

	return nil
}
