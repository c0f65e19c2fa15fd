package core

// DefaultCategories is the built-in category set every store starts with.
// The SQL migrations seed the same rows.
func DefaultCategories() []Category {
	return []Category{
		{Name: "Food", Type: Expense, Icon: IconFood, Color: "#F97316"},
		{Name: "Transport", Type: Expense, Icon: IconTransport, Color: "#3B82F6"},
		{Name: "Housing", Type: Expense, Icon: IconHousing, Color: "#8B5CF6"},
		{Name: "Utilities", Type: Expense, Icon: IconUtilities, Color: "#EAB308"},
		{Name: "Entertainment", Type: Expense, Icon: IconEntertainment, Color: "#EC4899"},
		{Name: "Health", Type: Expense, Icon: IconHealth, Color: "#EF4444"},
		{Name: "Shopping", Type: Expense, Icon: IconShopping, Color: "#14B8A6"},
		{Name: "Education", Type: Expense, Icon: IconEducation, Color: "#6366F1"},
		{Name: "Other", Type: Expense, Icon: IconFallback, Color: FallbackColor},
		{Name: "Salary", Type: Income, Icon: IconSalary, Color: "#22C55E"},
		{Name: "Freelance", Type: Income, Icon: IconFreelance, Color: "#06B6D4"},
		{Name: "Investments", Type: Income, Icon: IconInvestments, Color: "#10B981"},
		{Name: "Gifts", Type: Income, Icon: IconGifts, Color: "#F472B6"},
		{Name: "Other Income", Type: Income, Icon: IconWallet, Color: "#84CC16"},
	}
}
