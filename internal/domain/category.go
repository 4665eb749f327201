package domain

// CategoryKind restricts which transaction types may use a category.
type CategoryKind string

const (
	CategoryIncome  CategoryKind = "income"
	CategoryExpense CategoryKind = "expense"
	CategoryBoth    CategoryKind = "both"
)

// Category is an entry of the static reference set used to classify transactions.
type Category struct {
	ID    string
	Label string
	Kind  CategoryKind
}

// Accepts reports whether a transaction of type t may be filed under c.
func (c *Category) Accepts(t TransactionType) bool {
	switch c.Kind {
	case CategoryBoth:
		return true
	case CategoryIncome:
		return t == TransactionCredit
	case CategoryExpense:
		return t == TransactionDebit
	default:
		return false
	}
}

// DefaultCategories is the reference set seeded on first start.
func DefaultCategories() []*Category {
	return []*Category{
		{ID: "ADHESION", Label: "Adhésions", Kind: CategoryIncome},
		{ID: "DON", Label: "Dons", Kind: CategoryIncome},
		{ID: "SUBVENTION", Label: "Subventions", Kind: CategoryIncome},
		{ID: "EVENEMENT", Label: "Événements", Kind: CategoryBoth},
		{ID: "PRESTATION", Label: "Prestations", Kind: CategoryIncome},
		{ID: "BOUTIQUE", Label: "Boutique", Kind: CategoryBoth},
		{ID: "CARBURANT", Label: "Carburant", Kind: CategoryExpense},
		{ID: "MAINTENANCE", Label: "Entretien et réparations", Kind: CategoryExpense},
		{ID: "PIECES", Label: "Pièces détachées", Kind: CategoryExpense},
		{ID: "ASSURANCE", Label: "Assurances", Kind: CategoryExpense},
		{ID: "LOYER", Label: "Loyer et hangar", Kind: CategoryExpense},
		{ID: "FRAIS_BANCAIRES", Label: "Frais bancaires", Kind: CategoryExpense},
		{ID: "ADMINISTRATIF", Label: "Frais administratifs", Kind: CategoryExpense},
		{ID: "AUTRE", Label: "Autre", Kind: CategoryBoth},
	}
}
