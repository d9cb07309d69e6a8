package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"kursusku_backend/internals/features/finance/payments/dto"
	"kursusku_backend/internals/helpers/apperror"
)

const (
	MinAmount int64 = 1000
	MaxAmount int64 = 999999999
)

var (
	ErrAmountTooSmall = fmt.Errorf("Amount must be at least %d", MinAmount)
	ErrAmountTooLarge = fmt.Errorf("Amount must not exceed %d", MaxAmount)
	ErrInvalidEmail   = errors.New("Invalid email format")
	ErrInvalidPhone   = errors.New("Invalid phone number format")
	ErrInvalidDisc    = errors.New("Discount must be between 0 and the transaction amount")
)

var (
	emailRe    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	nonDigitRe = regexp.MustCompile(`\D`)
)

// ValidateAmount: inclusive [1000, 999999999].
func ValidateAmount(amount int64) error {
	if amount < MinAmount {
		return ErrAmountTooSmall
	}
	if amount > MaxAmount {
		return ErrAmountTooLarge
	}
	return nil
}

func ValidateEmail(email string) error {
	if !emailRe.MatchString(strings.TrimSpace(email)) {
		return ErrInvalidEmail
	}
	return nil
}

// NormalizePhone buang non-digit lalu prefix 62 / 0.
func NormalizePhone(phone string) string {
	digits := nonDigitRe.ReplaceAllString(phone, "")
	switch {
	case strings.HasPrefix(digits, "62"):
		return digits[2:]
	case strings.HasPrefix(digits, "0"):
		return digits[1:]
	}
	return digits
}

// ValidatePhoneNumber menerima +62 812-3456-7890, 081234567890, 812345678, dst.
func ValidatePhoneNumber(phone string) error {
	body := NormalizePhone(phone)
	if len(body) < 9 || len(body) > 12 {
		return ErrInvalidPhone
	}
	return nil
}

func ValidateDiscount(discount, amount int64) error {
	if discount < 0 || discount > amount {
		return ErrInvalidDisc
	}
	return nil
}

// ValidateTransactionRequest mengumpulkan SEMUA kesalahan, bukan berhenti di yang pertama.
func ValidateTransactionRequest(req dto.TransactionRequest) []apperror.FieldError {
	var errs []apperror.FieldError
	add := func(field string, err error) {
		errs = append(errs, apperror.FieldError{Field: field, Message: err.Error()})
	}
	addMsg := func(field, msg string) {
		errs = append(errs, apperror.FieldError{Field: field, Message: msg})
	}

	if err := ValidateAmount(req.Amount); err != nil {
		add("amount", err)
	}
	if strings.TrimSpace(req.OrderID) == "" {
		addMsg("order_id", "Order ID is required")
	}
	if req.UserID == uuid.Nil {
		addMsg("user_id", "User ID is required")
	}

	name := strings.TrimSpace(req.Customer.FirstName + " " + req.Customer.LastName)
	if name == "" {
		addMsg("customer.first_name", "Customer name is required")
	}
	if strings.TrimSpace(req.Customer.Email) == "" {
		addMsg("customer.email", "Customer email is required")
	} else if err := ValidateEmail(req.Customer.Email); err != nil {
		add("customer.email", err)
	}
	if strings.TrimSpace(req.Customer.Phone) == "" {
		addMsg("customer.phone", "Customer phone is required")
	} else if err := ValidatePhoneNumber(req.Customer.Phone); err != nil {
		add("customer.phone", err)
	}

	if len(req.Items) == 0 {
		addMsg("items", "At least one item is required")
	}
	for i, it := range req.Items {
		if it.Price <= 0 {
			addMsg(fmt.Sprintf("items[%d].price", i), "Item price must be positive")
		}
		if it.Quantity <= 0 {
			addMsg(fmt.Sprintf("items[%d].quantity", i), "Item quantity must be positive")
		}
		if strings.TrimSpace(it.Name) == "" {
			addMsg(fmt.Sprintf("items[%d].name", i), "Item name is required")
		}
	}

	if len(req.Items) > 0 && req.ItemsTotal() != req.Amount {
		addMsg("items", fmt.Sprintf("Sum of item price x quantity (%d) must equal amount (%d)", req.ItemsTotal(), req.Amount))
	}

	if err := ValidateDiscount(req.Discount, req.Amount); err != nil {
		add("discount", err)
	} else if req.Discount > 0 && req.GrossAmount() < MinAmount {
		addMsg("discount", fmt.Sprintf("Amount after discount must be at least %d", MinAmount))
	}
	return errs
}
