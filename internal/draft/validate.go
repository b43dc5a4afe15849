package draft

import "strings"

// Rule identifies which check rejected a draft.
type Rule int

const (
	RuleClientName Rule = iota + 1
	RuleClientCity
	RuleClientICE
	RuleLines
	RuleUnitPrice
	RuleQuantity
	RuleCheque
	RuleEffet
)

type ValidationError struct {
	Rule    Rule
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(rule Rule, msg string) error {
	return &ValidationError{Rule: rule, Message: msg}
}

// Validate checks d in a fixed order and reports the first failure.
func Validate(d Draft) error {
	if strings.TrimSpace(d.ClientName) == "" {
		return invalid(RuleClientName, "Le nom du client est requis")
	}
	if strings.TrimSpace(d.ClientCity) == "" {
		return invalid(RuleClientCity, "La ville du client est requise")
	}
	if !isICE(strings.TrimSpace(d.ClientICE)) {
		return invalid(RuleClientICE, "L'ICE doit contenir exactement 15 chiffres")
	}
	if len(d.Lines) == 0 {
		return invalid(RuleLines, "Au moins un article est requis")
	}
	for _, l := range d.Lines {
		if !l.UnitPrice.IsPositive() {
			return invalid(RuleUnitPrice, "Le prix unitaire doit être supérieur à 0")
		}
	}
	for _, l := range d.Lines {
		if !l.Quantity.IsPositive() {
			return invalid(RuleQuantity, "La quantité doit être supérieure à 0")
		}
	}

	switch p := d.Payment.(type) {
	case Cheque:
		if strings.TrimSpace(p.Number) == "" {
			return invalid(RuleCheque, "Le numéro de chèque est requis")
		}
		if strings.TrimSpace(p.Bank) == "" {
			return invalid(RuleCheque, "Le nom de la banque est requis")
		}
	case Effet:
		if strings.TrimSpace(p.City) == "" {
			return invalid(RuleEffet, "La ville de l'effet est requise")
		}
		if strings.TrimSpace(p.DueDate) == "" {
			return invalid(RuleEffet, "La date d'échéance est requise")
		}
	}
	return nil
}

func isICE(s string) bool {
	if len(s) != ICELength {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
