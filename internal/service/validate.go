package service

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/wishlist-service/internal/problem"
)

const (
	maxNameLen        = 100
	maxDescriptionLen = 1000
	maxCategoryLen    = 50
	maxMessageLen     = 500
	maxURLLen         = 2048
	minUsernameLen    = 3
	maxUsernameLen    = 50
	minPasswordLen    = 8
	maxPasswordLen    = 100
)

var (
	scriptPattern = regexp.MustCompile(`(?i)<\s*script`)
	maxPrice      = decimal.RequireFromString("9999999999.99")
	validate      = validator.New()
)

// ContainsScript reports whether s carries an HTML script tag.
func ContainsScript(s string) bool {
	return scriptPattern.MatchString(s)
}

// fieldErrors collects per-field validation messages.
type fieldErrors map[string]string

func (fe fieldErrors) add(field, msg string) {
	if _, ok := fe[field]; !ok {
		fe[field] = msg
	}
}

func (fe fieldErrors) err() error {
	if len(fe) == 0 {
		return nil
	}
	return problem.Validation(fe, "request validation failed")
}

// text trims s and checks its length bounds and content.
func (fe fieldErrors) text(field, s string, minLen, maxLen int) string {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	switch {
	case n < minLen && minLen == 1:
		fe.add(field, field+" is required")
	case n < minLen:
		fe.add(field, field+" must be at least "+strconv.Itoa(minLen)+" characters")
	case n > maxLen:
		fe.add(field, field+" must be at most "+strconv.Itoa(maxLen)+" characters")
	case ContainsScript(s):
		fe.add(field, field+" must not contain script tags")
	}
	return s
}

// optionalText is text for nullable columns; blank becomes nil.
func (fe fieldErrors) optionalText(field string, s *string, maxLen int) *string {
	if s == nil {
		return nil
	}
	v := fe.text(field, *s, 0, maxLen)
	if v == "" {
		return nil
	}
	return &v
}

func (fe fieldErrors) url(field string, s *string) *string {
	v := fe.optionalText(field, s, maxURLLen)
	if v != nil && validate.Var(*v, "http_url") != nil {
		fe.add(field, field+" must be an http or https URL")
	}
	return v
}

func (fe fieldErrors) email(field, s string) string {
	s = normalizeEmail(s)
	if validate.Var(s, "required,email,max=255") != nil {
		fe.add(field, field+" must be a valid email address")
	}
	return s
}

func (fe fieldErrors) price(field string, p *decimal.Decimal) *decimal.Decimal {
	if p == nil {
		return nil
	}
	switch {
	case p.IsNegative():
		fe.add(field, field+" must not be negative")
	case p.GreaterThan(maxPrice):
		fe.add(field, field+" is too large")
	}
	rounded := p.Round(2)
	return &rounded
}
