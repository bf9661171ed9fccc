package services

import (
	"context"
	"net"
	"net/mail"
	"strings"

	"publication-system/models"
)

var disposableDomains = map[string]struct{}{
	"10minutemail.com":  {},
	"tempmail.org":      {},
	"guerrillamail.com": {},
	"mailinator.com":    {},
	"yopmail.com":       {},
	"temp-mail.org":     {},
	"throwaway.email":   {},
	"getnada.com":       {},
	"maildrop.cc":       {},
	"sharklasers.com":   {},
}

// EmailValidator checks registration addresses. When lookupMX is set the
// domain must publish at least one MX record.
type EmailValidator struct {
	lookupMX func(ctx context.Context, domain string) ([]*net.MX, error)
}

func NewEmailValidator(checkMX bool) *EmailValidator {
	v := &EmailValidator{}
	if checkMX {
		v.lookupMX = net.DefaultResolver.LookupMX
	}
	return v
}

func (v *EmailValidator) Validate(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return models.ErrorValidation{Message: "Invalid email format"}
	}
	at := strings.LastIndex(email, "@")
	domain := email[at+1:]
	if !strings.Contains(domain, ".") {
		return models.ErrorValidation{Message: "Invalid email format"}
	}
	if _, ok := disposableDomains[domain]; ok {
		return models.ErrorValidation{Message: "Disposable email addresses are not allowed"}
	}
	if v.lookupMX != nil {
		records, err := v.lookupMX(ctx, domain)
		if err != nil || len(records) == 0 {
			return models.ErrorValidation{Message: "Email domain does not exist"}
		}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
