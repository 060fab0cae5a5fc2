package services

import (
	"regexp"
	"strings"
	"time"
	"unicode"
)

// Quality flags attached to a scored submission.
const (
	FlagTooShort          = "too_short"
	FlagLowDetail         = "low_detail"
	FlagRepeatedChars     = "repeated_chars"
	FlagContactOnly       = "contact_only"
	FlagMissingDate       = "missing_date"
	FlagMissingGuestCount = "missing_guest_count"
	FlagMissingVenue      = "missing_venue"
	FlagMissingBudget     = "missing_budget"
)

// Fixed value sets for enumerated submission fields.
var (
	eventTypeSet = map[string]bool{
		"wedding": true, "corporate": true, "birthday": true,
		"festival": true, "private": true, "other": true,
	}
	contactPreferenceSet = map[string]bool{
		"email": true, "phone": true, "either": true,
	}
	urgencySet = map[string]bool{
		"urgent": true, "soon": true, "flexible": true, "planning": true,
	}
	settingSet = map[string]bool{
		"indoor": true, "outdoor": true, "mixed": true, "unsure": true,
	}

	// Event types where suppliers cannot quote without a headcount
	guestCountRequiredTypes = map[string]bool{
		"wedding": true, "corporate": true, "festival": true,
	}
)

const (
	minMessageChars       = 80
	shortMessageChars     = 120
	repeatedRunThreshold  = 12
	contactOnlyMaxLetters = 20
	contactOnlyMaxDigits  = 9
	urgentWindowDays      = 14
	maxHints              = 6
)

var (
	emailLikeRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phoneLikeRe = regexp.MustCompile(`(\+?\d[\d\s\-()]{7,})`)
)

// EnquirySubmission is the raw field map of an inbound enquiry, before any
// state is created.
type EnquirySubmission struct {
	FullName          string
	Email             string
	Phone             string
	EventType         string
	ContactPreference string
	Urgency           string
	Setting           string
	EventDate         *time.Time
	GuestCount        *int
	VenueKnown        bool
	VenueName         string
	VenuePostcode     string
	BudgetRange       string
	ServingStyle      string
	DietaryNotes      string
	Message           string
}

// ScoreResult is the scorer's verdict on a submission.
type ScoreResult struct {
	OK      bool     `json:"ok"`
	Errors  []string `json:"errors,omitempty"`
	Hints   []string `json:"hints,omitempty"`
	Flags   []string `json:"flags,omitempty"`
	Score   int      `json:"score"`
	Urgency string   `json:"urgency,omitempty"`
}

// ScoreEnquiry validates and scores a raw submission. It is a pure function of
// its inputs: no store access, no clock reads (the caller supplies now), so
// identical inputs always produce identical verdicts.
func ScoreEnquiry(sub EnquirySubmission, now time.Time) ScoreResult {
	var (
		errs  []string
		hints []string
		flags []string
	)

	addFlag := func(f string) {
		for _, existing := range flags {
			if existing == f {
				return
			}
		}
		flags = append(flags, f)
	}

	// Required contact fields
	if strings.TrimSpace(sub.FullName) == "" {
		errs = append(errs, "full name is required")
	}
	if strings.TrimSpace(sub.Email) == "" {
		errs = append(errs, "email is required")
	}

	// Enumerated fields must be in their fixed sets if provided
	if sub.EventType != "" && !eventTypeSet[sub.EventType] {
		errs = append(errs, "unknown event type")
	}
	if sub.ContactPreference != "" && !contactPreferenceSet[sub.ContactPreference] {
		errs = append(errs, "unknown contact preference")
	}
	if sub.Urgency != "" && !urgencySet[sub.Urgency] {
		errs = append(errs, "unknown urgency")
	}
	if sub.Setting != "" && !settingSet[sub.Setting] {
		errs = append(errs, "unknown indoor/outdoor setting")
	}

	message := strings.TrimSpace(sub.Message)
	messageLen := len([]rune(message))

	if messageLen < minMessageChars {
		addFlag(FlagTooShort)
		errs = append(errs, "message is too short")
		hints = append(hints, "Write at least 80 characters so suppliers understand what you need")
	}

	hasVenue := sub.VenueName != "" || sub.VenuePostcode != ""
	hasAnyDetail := sub.GuestCount != nil || sub.EventDate != nil || hasVenue || sub.BudgetRange != ""
	if !hasAnyDetail {
		addFlag(FlagLowDetail)
		errs = append(errs, "provide at least one of: guest count, event date, venue, budget range")
		hints = append(hints, "Add a guest count, date, venue or budget so suppliers can quote accurately")
	}

	if hasRepeatedRun(message, repeatedRunThreshold) {
		addFlag(FlagRepeatedChars)
		errs = append(errs, "message looks like filler text")
	}

	contactOnly := isContactDetailsOnly(message)
	if contactOnly {
		addFlag(FlagContactOnly)
		errs = append(errs, "message appears to contain only contact details")
	}

	if sub.VenueKnown && !hasVenue {
		errs = append(errs, "venue name or postcode is required when the venue is known")
	}

	if guestCountRequiredTypes[sub.EventType] && sub.GuestCount == nil {
		errs = append(errs, "guest count is required for this event type")
	}

	// Advisory flags: always computed, never block validation
	if sub.EventDate == nil {
		addFlag(FlagMissingDate)
		hints = append(hints, "Include your event date to get faster responses")
	}
	if sub.GuestCount == nil {
		addFlag(FlagMissingGuestCount)
		hints = append(hints, "An estimated guest count helps suppliers price accurately")
	}
	if !hasVenue {
		addFlag(FlagMissingVenue)
		hints = append(hints, "Mention your venue or its postcode if you have one")
	}
	if sub.BudgetRange == "" {
		addFlag(FlagMissingBudget)
		hints = append(hints, "Sharing a budget range attracts better-matched quotes")
	}

	// Urgency normalization: a near-term date implies urgent
	urgency := sub.Urgency
	if urgency == "" && sub.EventDate != nil {
		until := sub.EventDate.Sub(now)
		if until >= 0 && until <= urgentWindowDays*24*time.Hour {
			urgency = "urgent"
		}
	}

	score := 100
	if messageLen < shortMessageChars {
		score -= 10
	}
	if sub.GuestCount == nil {
		score -= 12
	}
	if sub.EventDate == nil {
		score -= 12
	}
	if !hasVenue {
		score -= 12
	}
	if sub.BudgetRange == "" {
		score -= 8
	}
	if sub.DietaryNotes == "" {
		score -= 4
	}
	if sub.ServingStyle == "" {
		score -= 7
	}
	if sub.Setting == "" {
		score -= 6
	}
	if hasRepeatedRun(message, repeatedRunThreshold) {
		score -= 35
	}
	if contactOnly {
		score -= 45
	}
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return ScoreResult{
		OK:      len(errs) == 0,
		Errors:  errs,
		Hints:   dedupeAndCap(hints, maxHints),
		Flags:   flags,
		Score:   score,
		Urgency: urgency,
	}
}

// hasRepeatedRun reports whether s contains a run of at least n identical runes.
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
			if run >= n {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}

// isContactDetailsOnly applies the contact-details-only heuristic: very few
// letters combined with something that looks like an email, a phone number, or
// a long digit run.
func isContactDetailsOnly(s string) bool {
	letters := 0
	digits := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
		}
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if letters >= contactOnlyMaxLetters {
		return false
	}
	return emailLikeRe.MatchString(s) || phoneLikeRe.MatchString(s) || digits > contactOnlyMaxDigits
}

func dedupeAndCap(in []string, limit int) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
