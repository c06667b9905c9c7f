package validation

import (
	"sort"
	"strings"
	"time"
)

// DateLayout is the layout of date form fields.
const DateLayout = "2006-01-02"

type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Fields returns the violated field names in a stable order.
func (v Violations) Fields() []string {
	out := make([]string, 0, len(v))
	for f := range v {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

// RequiredID flags zero or negative identifiers, which mean "nothing selected".
func RequiredID(field string, id int64, v Violations) {
	if id <= 0 {
		v[field] = "required"
	}
}

func MinInt(field string, val, minVal int, v Violations) {
	if val < minVal {
		v[field] = "too_small"
	}
}

// Date flags values that are present but not a YYYY-MM-DD date.
func Date(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		return
	}
	if _, err := time.Parse(DateLayout, value); err != nil {
		v[field] = "invalid_date"
	}
}

// NotBefore flags field when its date is earlier than the reference date.
// Unparseable values are left to Date.
func NotBefore(field, value, reference string, v Violations) {
	d, err := time.Parse(DateLayout, value)
	if err != nil {
		return
	}
	ref, err := time.Parse(DateLayout, reference)
	if err != nil {
		return
	}
	if d.Before(ref) {
		v[field] = "before_date"
	}
}
