package cart

import (
	"github.com/google/uuid"

	"github.com/lokapasar/lokapasar-backend/pkg/db/models"
)

const defaultItemWeightGrams = 1000

// Line is one cart row resolved against the live catalog.
type Line struct {
	Item    models.CartItem
	Product models.Product
	Variant *models.ProductVariant
}

// UnitPrice resolves the sell price for the line.
func (l Line) UnitPrice() int64 {
	if l.Variant != nil {
		return l.Variant.EffectivePrice(l.Product.Price)
	}
	return l.Product.Price
}

// WeightGrams resolves the shippable weight for one unit of the line.
// Listings without a weight ship as 1kg.
func (l Line) WeightGrams() int {
	if l.Product.WeightGrams > 0 {
		return l.Product.WeightGrams
	}
	return defaultItemWeightGrams
}

// Subtotal is the line total in rupiah.
func (l Line) Subtotal() int64 {
	return l.UnitPrice() * int64(l.Item.Qty)
}

// Group is the per-merchant slice of a cart. Each group ships separately and
// becomes its own order at checkout.
type Group struct {
	OrgID       uuid.UUID
	Lines       []Line
	Subtotal    int64
	WeightGrams int
}

// GroupByOrg splits resolved cart lines into per-merchant groups, accumulating
// subtotal and shipping weight. Groups keep the order of first appearance;
// ordering across groups carries no meaning.
func GroupByOrg(lines []Line) []Group {
	var groups []Group
	index := make(map[uuid.UUID]int)
	for _, line := range lines {
		i, ok := index[line.Item.OrgID]
		if !ok {
			i = len(groups)
			index[line.Item.OrgID] = i
			groups = append(groups, Group{OrgID: line.Item.OrgID})
		}
		groups[i].Lines = append(groups[i].Lines, line)
		groups[i].Subtotal += line.Subtotal()
		groups[i].WeightGrams += line.WeightGrams() * line.Item.Qty
	}
	return groups
}
