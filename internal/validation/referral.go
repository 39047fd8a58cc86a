package validation

import (
	"regexp"
	"strings"
)

// ReferralKind says which user column a referral code refers to.
type ReferralKind int

const (
	ReferralInvalid ReferralKind = iota
	ReferralIBO
	ReferralSponsor
)

var referralSuffix = regexp.MustCompile(`(IBO|SP)-[A-Z0-9]+$`)

// ParseReferralCode accepts IBO-XXXX, SP-XXXX and the name-slug forms
// some-name-IBO-XXXX / some-name-SP-XXXX, case-insensitively. It returns the
// bare code in upper case.
func ParseReferralCode(raw string) (ReferralKind, string) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	match := referralSuffix.FindString(code)
	switch {
	case strings.HasPrefix(match, IBOPrefix):
		return ReferralIBO, match
	case strings.HasPrefix(match, SponsorPrefix):
		return ReferralSponsor, match
	}
	return ReferralInvalid, ""
}
