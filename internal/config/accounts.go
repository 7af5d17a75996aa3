package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Account types accepted in the accounts file.
const (
	AccountTypeAdmin   = "admin"
	AccountTypeService = "service"
)

// Account is one administrator identity the server may act as.
type Account struct {
	Email       string `json:"email"`
	AccountType string `json:"account_type"`
	ExtraInfo   string `json:"extra_info,omitempty"`
}

// Description renders the account for tool and resource listings.
func (a Account) Description() string {
	return fmt.Sprintf("Account for email: %s of type: %s. Extra info: %s", a.Email, a.AccountType, a.ExtraInfo)
}

// Validate validates an account entry.
func (a *Account) Validate() error {
	if a.Email == "" || !strings.Contains(a.Email, "@") {
		return fmt.Errorf("invalid email %q", a.Email)
	}
	switch a.AccountType {
	case AccountTypeAdmin, AccountTypeService:
	case "":
		a.AccountType = AccountTypeAdmin
	default:
		return fmt.Errorf("account_type must be %q or %q, got %q", AccountTypeAdmin, AccountTypeService, a.AccountType)
	}
	return nil
}

// Accounts is the immutable set of configured accounts.
type Accounts struct {
	list  []Account
	index map[string]int
}

// NewAccounts validates list and rejects duplicate emails.
func NewAccounts(list []Account) (*Accounts, error) {
	a := &Accounts{index: make(map[string]int, len(list))}
	for i := range list {
		acc := list[i]
		if err := acc.Validate(); err != nil {
			return nil, fmt.Errorf("account[%d]: %w", i, err)
		}
		key := strings.ToLower(acc.Email)
		if _, dup := a.index[key]; dup {
			return nil, fmt.Errorf("account[%d]: duplicate email %q", i, acc.Email)
		}
		a.index[key] = len(a.list)
		a.list = append(a.list, acc)
	}
	return a, nil
}

// LoadAccounts reads the accounts file at path.
func LoadAccounts(path string) (*Accounts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("accounts configuration file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read accounts configuration: %w", err)
	}

	var doc struct {
		Accounts []Account `json:"accounts"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse accounts configuration: %w", err)
	}
	return NewAccounts(doc.Accounts)
}

// All returns the accounts in file order.
func (a *Accounts) All() []Account {
	out := make([]Account, len(a.list))
	copy(out, a.list)
	return out
}

// Lookup finds an account by email, case-insensitively.
func (a *Accounts) Lookup(email string) (Account, bool) {
	i, ok := a.index[strings.ToLower(email)]
	if !ok {
		return Account{}, false
	}
	return a.list[i], true
}

// Emails returns the configured emails in file order.
func (a *Accounts) Emails() []string {
	out := make([]string, len(a.list))
	for i, acc := range a.list {
		out[i] = acc.Email
	}
	return out
}

// Len returns the number of configured accounts.
func (a *Accounts) Len() int {
	return len(a.list)
}
