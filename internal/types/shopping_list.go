package types

// ShoppingListItem is one aggregated ingredient line
type ShoppingListItem struct {
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	TotalAmount     int    `json:"total_amount"`
}

// ShoppingList keeps items in first-encounter order
type ShoppingList struct {
	Owner string             `json:"owner"`
	Items []ShoppingListItem `json:"items"`
}

func (l *ShoppingList) Empty() bool {
	return l == nil || len(l.Items) == 0
}
