package enrich

// DefaultCategory is the catch-all assigned when classification fails or
// returns something outside the vocabulary
const DefaultCategory = "Autre"

// Categories is the closed vocabulary for classification. Extended beyond
// the obvious asset classes to reduce how much lands in "Autre".
var Categories = []string{
	"ETF",
	"Immobilier",
	"Crypto",
	"Epargne",
	"Fiscalite",
	"Actions",
	"Strategie",
	"Milestone",
	"Question",
	"Retour XP",
	"Budget",
	"Retraite",
	"Credit",
	"Carriere",
	"Actualite",
	"Autre",
}

// CategoryDescriptions guides the classifier toward the intended split
var CategoryDescriptions = map[string]string{
	"ETF":        "Posts sur les ETF (CW8, WPEA, S&P500, MSCI World, Nasdaq, etc.)",
	"Immobilier": "SCPI, résidence principale (RP), investissement locatif, crédit immo, LMNP",
	"Crypto":     "Bitcoin, Ethereum, cryptomonnaies, DeFi, staking",
	"Epargne":    "Livrets (A, LDDS), assurance-vie, PEA, épargne de précaution, fonds euros",
	"Fiscalite":  "Impôts, déclarations, optimisation fiscale, niches fiscales, PFU",
	"Actions":    "Stock picking, actions individuelles, dividendes, analyse fondamentale",
	"Strategie":  "DCA, allocation d'actifs, diversification, rééquilibrage",
	"Milestone":  "Réussites financières avec montants (ex: 'J'ai atteint 100k€', 'premier million')",
	"Question":   "Cas pratique personnel demandant des conseils (ex: 'J'ai 25 ans, 30k€, que faire?')",
	"Retour XP":  "Retours d'expérience détaillés sur un investissement, courtier, ou stratégie",
	"Budget":     "Gestion de budget, suivi des dépenses, épargne mensuelle, taux d'épargne",
	"Retraite":   "Préparation retraite, PER, PERCO, PERCOL, simulation retraite, trimestres",
	"Credit":     "Crédits conso, prêts immo, rachat de crédit, remboursement anticipé, taux",
	"Carriere":   "Salaire, négociation salariale, reconversion pro liée aux finances, freelance",
	"Actualite":  "News financières, changements de loi, évolution des taux, réforme",
	"Autre":      "Sujets ne rentrant dans AUCUNE autre catégorie (utiliser en dernier recours)",
}

// ValidCategory reports whether c belongs to the vocabulary
func ValidCategory(c string) bool {
	for _, cat := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}
