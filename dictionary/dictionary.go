package dictionary

import "github.com/pulsemed/protosearch/core"

// abbreviations maps common EMS shorthand to its canonical form.
// Lookups are exact, on lowercased tokens; first match wins. Canonical
// forms must never themselves appear as keys, so that normalization of
// already-canonical text is a no-op.
var abbreviations = map[string]string{
	"epi":    "epinephrine",
	"narcan": "naloxone",
	"nitro":  "nitroglycerin",
	"ntg":    "nitroglycerin",
	"asa":    "aspirin",
	"amio":   "amiodarone",
	"d50":    "dextrose 50%",
	"d25":    "dextrose 25%",
	"mag":    "magnesium sulfate",
	"neb":    "nebulizer",
	"bvm":    "bag-valve-mask",
	"nrb":    "non-rebreather mask",
	"npa":    "nasopharyngeal airway",
	"opa":    "oropharyngeal airway",
	"ett":    "endotracheal tube",
	"igel":   "supraglottic airway",
	"iv":     "intravenous",
	"io":     "intraosseous",
	"im":     "intramuscular",
	"sq":     "subcutaneous",
	"sl":     "sublingual",
	"cpr":    "cardiopulmonary resuscitation",
	"rosc":   "return of spontaneous circulation",
	"sob":    "shortness of breath",
	"loc":    "level of consciousness",
	"ams":    "altered mental status",
	"mi":     "myocardial infarction",
	"chf":    "congestive heart failure",
	"cva":    "stroke",
	"svt":    "supraventricular tachycardia",
	"vfib":   "ventricular fibrillation",
	"vtach":  "ventricular tachycardia",
	"afib":   "atrial fibrillation",
	"gsw":    "gunshot wound",
	"mvc":    "motor vehicle collision",
	"ob":     "obstetric",
	"peds":   "pediatric",
	"bgl":    "blood glucose",
	"etco2":  "end-tidal carbon dioxide",
	"spo2":   "oxygen saturation",
}

// phrases maps two-token shorthand to a canonical multi-word form.
// Phrase expansion runs before single-token lookup.
var phrases = map[string]string{
	"epi pen":     "epinephrine auto-injector",
	"c spine":     "cervical spine",
	"king airway": "supraglottic airway",
	"chest comp":  "chest compressions",
	"sugar low":   "hypoglycemia",
}

// Weighted keyword lists driving intent classification. Weights reflect
// how strongly a term signals the category; dosing vocabulary leans drug,
// action verbs lean procedure, presentations lean symptom.
var (
	drugTerms = map[string]float64{
		"epinephrine":   3,
		"naloxone":      3,
		"nitroglycerin": 3,
		"aspirin":       3,
		"albuterol":     3,
		"amiodarone":    3,
		"dextrose":      3,
		"fentanyl":      3,
		"midazolam":     3,
		"ketamine":      3,
		"glucagon":      3,
		"atropine":      3,
		"adenosine":     3,
		"ondansetron":   3,
		"diphenhydramine": 3,
		"dose":   2,
		"dosage": 2,
		"dosing": 2,
		"mg":     2,
		"mcg":    2,
		"mg/kg":  2,
		"mcg/kg": 2,
		"drip":   2,
		"bolus":  2,
		"infusion": 2,
		"medication": 1,
		"drug":       1,
	}

	procedureTerms = map[string]float64{
		"intubation":      3,
		"cardioversion":   3,
		"defibrillation":  3,
		"cricothyrotomy":  3,
		"decompression":   3,
		"cannulation":     3,
		"tourniquet":      3,
		"splint":          2,
		"splinting":       2,
		"suction":         2,
		"compressions":    2,
		"ventilation":     2,
		"airway":          2,
		"pacing":          2,
		"immobilization":  2,
		"extrication":     2,
		"resuscitation":   2,
		"auto-injector":   2,
		"nebulizer":       2,
		"intravenous":     1,
		"intraosseous":    1,
		"procedure":       1,
		"technique":       1,
	}

	symptomTerms = map[string]float64{
		"anaphylaxis":  3,
		"seizure":      3,
		"syncope":      3,
		"dyspnea":      3,
		"wheezing":     3,
		"stridor":      3,
		"hypotension":  3,
		"hypoglycemia": 3,
		"overdose":     3,
		"unresponsive": 3,
		"choking":      3,
		"bleeding":     2,
		"hemorrhage":   2,
		"pain":         2,
		"nausea":       2,
		"vomiting":     2,
		"fever":        2,
		"burns":        2,
		"trauma":       2,
		"shock":        2,
		"stroke":       2,
		"allergy":      1,
		"allergic":     1,
		"distress":     1,
	}
)

// Canonical returns the canonical form for an abbreviation token.
// The second return is false when the token has no expansion.
func Canonical(token string) (string, bool) {
	expanded, ok := abbreviations[token]
	return expanded, ok
}

// Phrase returns the canonical expansion for a two-token phrase.
func Phrase(first, second string) (string, bool) {
	expanded, ok := phrases[first+" "+second]
	return expanded, ok
}

// IntentWeight returns the weight a token contributes toward a category.
// Unknown tokens contribute 0.
func IntentWeight(category core.IntentCategory, token string) float64 {
	switch category {
	case core.IntentDrug:
		return drugTerms[token]
	case core.IntentProcedure:
		return procedureTerms[token]
	case core.IntentSymptom:
		return symptomTerms[token]
	default:
		return 0
	}
}

// ScoredCategories lists the categories that carry keyword tables, in the
// fixed order classification evaluates them.
func ScoredCategories() []core.IntentCategory {
	return []core.IntentCategory{core.IntentDrug, core.IntentProcedure, core.IntentSymptom}
}
