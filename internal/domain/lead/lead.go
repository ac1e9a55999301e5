// Package lead holds the rules around contact-form leads: what a valid
// submission is, how it is cleaned before storage and the aggregates shown on
// the dashboard.
package lead

import (
	"fmt"
	"html"
	"net/mail"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/okian/delhihouse/internal/domain/model"
)

// Field length caps.
const (
	MaxNameLen    = 120
	MaxEmailLen   = 254
	MaxPhoneLen   = 32
	MaxMessageLen = 5000
)

// DateLayout renders timestamps as "05 Mar 2026, 18:30".
const DateLayout = "02 Jan 2006, 15:04"

var strict = bluemonday.StrictPolicy()

// Validate checks a submission after trimming. It returns a ValidationError
// listing every failing field.
func Validate(s model.Submission) error {
	s = trim(s)
	ve := &ValidationError{}
	required := func(field, v string, maxLen int) {
		switch {
		case v == "":
			ve.add(field, "is required")
		case utf8.RuneCountInString(v) > maxLen:
			ve.add(field, fmt.Sprintf("must be at most %d characters", maxLen))
		}
	}
	required("name", s.Name, MaxNameLen)
	required("email", s.Email, MaxEmailLen)
	required("phone", s.Phone, MaxPhoneLen)
	required("message", s.Message, MaxMessageLen)

	if s.Email != "" && !validEmail(s.Email) {
		ve.add("email", "is not a valid address")
	}
	if s.Phone != "" && !validPhone(s.Phone) {
		ve.add("phone", "is not a valid phone number")
	}
	if len(ve.Fields) == 0 {
		return nil
	}
	return ve
}

// Prepare sanitizes s and validates what is left, so a field holding only
// markup counts as missing.
func Prepare(s model.Submission) (model.Submission, error) {
	s = Sanitize(s)
	if err := Validate(s); err != nil {
		return model.Submission{}, err
	}
	return s, nil
}

// Sanitize trims every field and strips markup so stored leads are plain text.
func Sanitize(s model.Submission) model.Submission {
	s = trim(s)
	s.Name = clean(s.Name)
	s.Email = clean(s.Email)
	s.Phone = clean(s.Phone)
	s.Message = clean(s.Message)
	return s
}

func clean(v string) string {
	// StrictPolicy escapes what it keeps; rendering escapes again.
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(v)))
}

func trim(s model.Submission) model.Submission {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	s.Phone = strings.TrimSpace(s.Phone)
	s.Message = strings.TrimSpace(s.Message)
	s.Token = strings.TrimSpace(s.Token)
	return s
}

func validEmail(v string) bool {
	addr, err := mail.ParseAddress(v)
	return err == nil && addr.Address == v && strings.Contains(v[strings.LastIndex(v, "@"):], ".")
}

func validPhone(v string) bool {
	digits := 0
	for _, r := range v {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case strings.ContainsRune("+ ()-.", r):
		default:
			return false
		}
	}
	return digits >= 7
}

// Stats are the dashboard counters.
type Stats struct {
	Total    int `json:"total"`
	Last24h  int `json:"last_24h"`
	ThisWeek int `json:"this_week"`
}

// ComputeStats counts leads newer than now-24h and now-7d. A lead exactly at
// a cutoff is not counted; leads without a timestamp only count towards Total.
func ComputeStats(leads []model.Lead, now time.Time) Stats {
	dayAgo := now.Add(-24 * time.Hour)
	weekAgo := now.AddDate(0, 0, -7)
	st := Stats{Total: len(leads)}
	for _, l := range leads {
		if l.Timestamp == nil {
			continue
		}
		if l.Timestamp.After(dayAgo) {
			st.Last24h++
		}
		if l.Timestamp.After(weekAgo) {
			st.ThisWeek++
		}
	}
	return st
}

// SortNewestFirst orders leads by timestamp descending; leads without a
// timestamp go last, ties keep their id order.
func SortNewestFirst(leads []model.Lead) {
	sort.SliceStable(leads, func(i, j int) bool {
		a, b := leads[i].Timestamp, leads[j].Timestamp
		switch {
		case a == nil && b == nil:
			return leads[i].ID < leads[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case a.Equal(*b):
			return leads[i].ID < leads[j].ID
		default:
			return a.After(*b)
		}
	})
}

// FormatDate renders ts in loc, or "N/A" when ts is nil.
func FormatDate(ts *time.Time, loc *time.Location) string {
	if ts == nil {
		return "N/A"
	}
	if loc == nil {
		loc = time.UTC
	}
	return ts.In(loc).Format(DateLayout)
}

// Find returns the lead with id.
func Find(leads []model.Lead, id string) (model.Lead, bool) {
	for _, l := range leads {
		if l.ID == id {
			return l, true
		}
	}
	return model.Lead{}, false
}

// Without returns a copy of leads minus the lead with id.
func Without(leads []model.Lead, id string) []model.Lead {
	out := make([]model.Lead, 0, len(leads))
	for _, l := range leads {
		if l.ID != id {
			out = append(out, l)
		}
	}
	return out
}
