package domain

import "github.com/voltixaudit/voltix/internal/classification"

// CO2Derating discounts each measure's CO2 reduction for overlap with the
// other measures. Kept as the literal historical constant.
const CO2Derating = 0.5

// SolarCostThreshold is the annual cost above which solar PV is proposed.
const SolarCostThreshold = 500000

type Input struct {
	Class      classification.Class
	AnnualCost float64
	AnnualKWh  float64
}

// Draft is a generated measure before it is attached to a project.
type Draft struct {
	Category       Category
	Title          string
	Description    string
	Priority       Priority
	AnnualSaving   float64
	Investment     float64
	PaybackYears   float64
	CO2ReductionKg float64
}

type rule struct {
	category    Category
	title       string
	description string
	saving      float64
	payback     float64
	applies     func(Input) bool
	priority    func(Input) Priority
	investment  func(Input) float64
}

func always(Input) bool { return true }

func classIn(classes ...classification.Class) func(Input) bool {
	return func(in Input) bool {
		for _, c := range classes {
			if in.Class == c {
				return true
			}
		}
		return false
	}
}

func fixedPriority(p Priority) func(Input) Priority {
	return func(Input) Priority { return p }
}

func fixedInvestment(amount float64) func(Input) float64 {
	return func(Input) float64 { return amount }
}

var poorClasses = classIn(classification.ClassE, classification.ClassF, classification.ClassG)

// rules are evaluated in order and the output keeps that order.
var rules = []rule{
	{
		category:    CategoryLighting,
		title:       "Remplacer les lampes par des LED",
		description: "Remplacer toutes les lampes fluorescentes et halogènes par des LED économiques. Les LED consomment jusqu'à 80% moins d'énergie et durent 10 fois plus longtemps.",
		saving:      0.25,
		payback:     2.0,
		applies:     always,
		priority: func(in Input) Priority {
			if poorClasses(in) {
				return PriorityHigh
			}
			return PriorityMedium
		},
		investment: func(in Input) float64 { return in.AnnualKWh * 50 },
	},
	{
		category:    CategoryCooling,
		title:       "Installer des climatiseurs inverter A+++",
		description: "Remplacer les anciens climatiseurs par des modèles inverter haute efficacité énergétique. Économie de 40% sur la consommation de climatisation.",
		saving:      0.30,
		payback:     3.5,
		applies:     classIn(classification.ClassD, classification.ClassE, classification.ClassF, classification.ClassG),
		priority:    fixedPriority(PriorityHigh),
		investment:  fixedInvestment(1500000),
	},
	{
		category:    CategoryInsulation,
		title:       "Améliorer l'isolation thermique",
		description: "Renforcer l'isolation des murs et du toit pour réduire les besoins en climatisation. Installation de films solaires sur les vitres.",
		saving:      0.20,
		payback:     4.0,
		applies:     poorClasses,
		priority:    fixedPriority(PriorityHigh),
		investment:  fixedInvestment(800000),
	},
	{
		category:    CategoryRenewable,
		title:       "Installer des panneaux solaires photovoltaïques",
		description: "Installation d'un système solaire pour couvrir 30-50% des besoins électriques. Réduction significative de la facture électrique.",
		saving:      0.40,
		payback:     7.5,
		applies:     func(in Input) bool { return in.AnnualCost > SolarCostThreshold },
		priority:    fixedPriority(PriorityMedium),
		investment:  fixedInvestment(3000000),
	},
	{
		category:    CategoryAutomation,
		title:       "Installer un système de gestion énergétique",
		description: "Mise en place de détecteurs de présence, thermostats programmables et système de coupure automatique. Optimisation de la consommation.",
		saving:      0.15,
		payback:     3.3,
		applies:     always,
		priority:    fixedPriority(PriorityMedium),
		investment:  fixedInvestment(500000),
	},
}

// Synthesize evaluates the rule table against in. The result depends only on
// in, so repeated calls return identical sets.
func Synthesize(in Input) []Draft {
	out := make([]Draft, 0, len(rules))
	for _, r := range rules {
		if !r.applies(in) {
			continue
		}
		out = append(out, Draft{
			Category:       r.category,
			Title:          r.title,
			Description:    r.description,
			Priority:       r.priority(in),
			AnnualSaving:   in.AnnualCost * r.saving,
			Investment:     r.investment(in),
			PaybackYears:   r.payback,
			CO2ReductionKg: in.AnnualKWh * r.saving * CO2Derating,
		})
	}
	return out
}
