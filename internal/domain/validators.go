package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	MinPasswordLength = 8
	MinUsernameLength = 3
	MaxUsernameLength = 64
	MaxNameLength     = 100
)

// ValidateUsername checks length and rejects surrounding whitespace.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username is required")
	}
	if strings.TrimSpace(username) != username {
		return fmt.Errorf("username must not start or end with whitespace")
	}
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength || n > MaxUsernameLength {
		return fmt.Errorf("username must be %d-%d characters", MinUsernameLength, MaxUsernameLength)
	}
	return nil
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// ValidateName checks a table or player name.
func ValidateName(kind, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%s name is required", kind)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("%s name must be at most %d characters", kind, MaxNameLength)
	}
	return nil
}

// ValidateBlinds requires a positive small blind and a big blind no smaller than it.
func ValidateBlinds(smallBlind, bigBlind int64) error {
	if smallBlind <= 0 {
		return fmt.Errorf("small blind must be positive, got %d", smallBlind)
	}
	if bigBlind < smallBlind {
		return fmt.Errorf("big blind (%d) must be at least the small blind (%d)", bigBlind, smallBlind)
	}
	return nil
}

// ValidatePositiveAmount checks that an amount is positive.
func ValidatePositiveAmount(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount(fmt.Sprintf("amount must be positive, got %d", amount))
	}
	return nil
}

// ValidateNonNegativeAmount checks that an amount is zero or more.
func ValidateNonNegativeAmount(amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount(fmt.Sprintf("amount must not be negative, got %d", amount))
	}
	return nil
}
