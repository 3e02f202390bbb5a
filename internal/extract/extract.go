// Package extract pulls structured financial facts out of free-form post
// text. It is deliberately AI-free: a pure function of the text, so numeric
// facts survive even when the enrichment provider is down.
package extract

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/grepr-agent/internal/models"
)

// Plausibility bounds for monetary amounts; values outside are treated as
// noise (years, percentages, phone numbers, meme numbers).
const (
	minAmount = 100
	maxAmount = 100_000_000
)

// numFR matches a number in French formatting: "2500", "2 500", "2,5".
// The non-breaking space shows up when text is copied from bank statements.
const numFR = `(\d{1,3}(?:[\s\x{00A0}]\d{3})*(?:[.,]\d+)?)`

// amountPatterns find monetary mentions in any of the common phrasings:
// suffixed magnitude (150k€), grouped thousands (100 000 €), currency-first
// (€100k) and spelled-out euros. Ordered from most to least specific.
var amountPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*([km])\s*[€$]`),
	regexp.MustCompile(`(\d{1,3}(?:[\s\x{00A0}]\d{3})*)\s*[€$]`),
	regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*[€$]`),
	regexp.MustCompile(`(?i)[€$]\s*(\d+(?:[.,]\d+)?)\s*([km])?`),
	regexp.MustCompile(`(?i)(\d{1,3}(?:[\s\x{00A0}]\d{3})*)\s*euros?`),
	regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*([km])?\s*euros?`),
}

// Contextual patterns below run against lowercased text. Value-before-keyword
// forms come first so that "150k€ de patrimoine" wins over a later unrelated
// number following the word "patrimoine" in the same sentence.
var patrimoinePatterns = []*regexp.Regexp{
	regexp.MustCompile(numFR + `\s*([km])?\s*(?:€|euros?)?\s*(?:de\s+)?patrimoine`),
	regexp.MustCompile(`patrimoine[^\d]*` + numFR + `\s*([km])?`),
	regexp.MustCompile(`atteint\s+` + numFR + `\s*([km])?`),
	regexp.MustCompile(`j'?ai\s+` + numFR + `\s*([km])?\s*[€$]`),
}

var revenusAnnuelsPatterns = []*regexp.Regexp{
	regexp.MustCompile(numFR + `\s*([km])?\s*[€$]?\s*(?:par\s+an|/an|annuel)`),
	regexp.MustCompile(`salaire[^\d]*` + numFR + `\s*([km])?`),
	regexp.MustCompile(`revenu[^\d]*` + numFR + `\s*([km])?`),
	regexp.MustCompile(`gagne[^\d]*` + numFR + `\s*([km])?`),
}

var revenusMensuelsPatterns = []*regexp.Regexp{
	regexp.MustCompile(numFR + `\s*([km])?\s*[€$]?\s*(?:par\s+mois|/mois|mensuel)`),
	regexp.MustCompile(numFR + `\s*[€$]\s*net`),
}

var epargnePatterns = []*regexp.Regexp{
	regexp.MustCompile(`épargn\w*[^\d]*` + numFR + `\s*([km])?\s*[€$]?\s*(?:par\s+mois|/mois|mensuel)`),
	regexp.MustCompile(`met\w*\s+(?:de\s+côté\s+)?` + numFR + `\s*([km])?\s*[€$]?\s*(?:par\s+mois|/mois)`),
	regexp.MustCompile(`investis?\w*\s+` + numFR + `\s*([km])?\s*[€$]?\s*(?:par\s+mois|/mois)`),
}

// Duration is extracted before age: "depuis 28 ans" is a duration even
// though it looks like an age.
var dureePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:depuis|en|sur|pendant)\s+(\d+)\s*ans?`),
	regexp.MustCompile(`(\d+)\s*ans?\s+(?:plus\s+tard|après|de\s+travail|d'investissement|d'épargne)`),
	regexp.MustCompile(`ça\s+fait\s+(\d+)\s*ans?`),
	regexp.MustCompile(`il\s+y\s+a\s+(\d+)\s*ans?`),
}

var agePatterns = []*regexp.Regexp{
	regexp.MustCompile(`j'?ai\s+(\d{2})\s*ans`),
	regexp.MustCompile(`âgée?\s+de\s+(\d{2})\s*ans`),
	regexp.MustCompile(`âge\s*:?\s*(\d{2})`),
	regexp.MustCompile(`(\d{2})\s*a\s*[,.]`),
	regexp.MustCompile(`^(\d{2})\s*ans\b`),
}

// Financial extracts amounts, income, savings, age and duration mentions
// from text. The result is never nil; absent facts stay nil inside it.
func Financial(text string) *models.ExtractedFacts {
	facts := &models.ExtractedFacts{Amounts: []int{}}
	if text == "" {
		return facts
	}

	// Typographic apostrophes break the contextual patterns
	text = strings.ReplaceAll(text, "’", "'")
	lower := strings.ToLower(text)

	facts.Amounts = findAmounts(text)

	facts.Patrimoine = findContextual(lower, patrimoinePatterns, minAmount)
	facts.RevenusAnnuels = findRevenusAnnuels(lower)
	facts.RevenusMensuels = findContextual(lower, revenusMensuelsPatterns, minAmount)
	facts.EpargneMensuelle = findContextual(lower, epargnePatterns, 50)

	facts.DureeAnnees = findYears(lower, dureePatterns, 1, 50)
	facts.Age = findAge(lower, facts.DureeAnnees)

	return facts
}

// findAmounts collects every plausible monetary amount, deduplicated and
// sorted descending
func findAmounts(text string) []int {
	seen := make(map[int]bool)
	for _, pattern := range amountPatterns {
		for _, match := range pattern.FindAllStringSubmatch(text, -1) {
			mult := ""
			if len(match) > 2 {
				mult = match[2]
			}
			value, ok := parseFrenchNumber(match[1], mult)
			if ok && value >= minAmount && value <= maxAmount {
				seen[value] = true
			}
		}
	}

	amounts := make([]int, 0, len(seen))
	for v := range seen {
		amounts = append(amounts, v)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(amounts)))
	return amounts
}

// findContextual returns the first pattern hit whose value clears the floor
func findContextual(lower string, patterns []*regexp.Regexp, floor int) *int {
	for _, pattern := range patterns {
		match := pattern.FindStringSubmatch(lower)
		if match == nil {
			continue
		}
		mult := ""
		if len(match) > 2 {
			mult = match[2]
		}
		if value, ok := parseFrenchNumber(match[1], mult); ok && value >= floor {
			return &value
		}
	}
	return nil
}

// findRevenusAnnuels extracts annual income; a value that looks monthly
// (under 10k) is annualized
func findRevenusAnnuels(lower string) *int {
	for _, pattern := range revenusAnnuelsPatterns {
		match := pattern.FindStringSubmatch(lower)
		if match == nil {
			continue
		}
		mult := ""
		if len(match) > 2 {
			mult = match[2]
		}
		value, ok := parseFrenchNumber(match[1], mult)
		if !ok || value <= 0 {
			continue
		}
		if value < 10000 {
			value *= 12
		}
		return &value
	}
	return nil
}

func findYears(lower string, patterns []*regexp.Regexp, min, max int) *int {
	for _, pattern := range patterns {
		match := pattern.FindStringSubmatch(lower)
		if match == nil {
			continue
		}
		years, err := strconv.Atoi(match[1])
		if err == nil && years >= min && years <= max {
			return &years
		}
	}
	return nil
}

// findAge extracts the author's age. An age candidate that numerically
// matches an already-extracted duration is discarded as a false positive
// ("depuis 28 ans" is not an age even when "j'ai 28 ans" appears nearby).
func findAge(lower string, duree *int) *int {
	for _, pattern := range agePatterns {
		match := pattern.FindStringSubmatch(lower)
		if match == nil {
			continue
		}
		age, err := strconv.Atoi(match[1])
		if err != nil || age < 18 || age > 70 {
			continue
		}
		if duree != nil && age == *duree {
			continue
		}
		return &age
	}
	return nil
}

// parseFrenchNumber parses a number string that may carry space or
// non-breaking-space thousand separators, a decimal comma, and a k/M
// magnitude suffix
func parseFrenchNumber(num, mult string) (int, bool) {
	cleaned := strings.NewReplacer("\u00a0", "", " ", "", ",", ".").Replace(num)
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	switch strings.ToLower(mult) {
	case "k":
		value *= 1000
	case "m":
		value *= 1_000_000
	}
	return int(value), true
}
