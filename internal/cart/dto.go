package cart

import (
	"github.com/google/uuid"
)

// ItemDTO is one cart line as shown to the buyer.
type ItemDTO struct {
	ID          uuid.UUID  `json:"id"`
	OrgID       uuid.UUID  `json:"org_id"`
	ProductID   uuid.UUID  `json:"product_id"`
	VariantID   *uuid.UUID `json:"variant_id,omitempty"`
	ProductName string     `json:"product_name"`
	VariantName *string    `json:"variant_name,omitempty"`
	UnitPrice   int64      `json:"unit_price"`
	Qty         int        `json:"qty"`
	WeightGrams int        `json:"weight_grams"`
	Subtotal    int64      `json:"subtotal"`
}

// GroupDTO is the per-merchant slice of the cart.
type GroupDTO struct {
	OrgID       uuid.UUID `json:"org_id"`
	Items       []ItemDTO `json:"items"`
	Subtotal    int64     `json:"subtotal"`
	WeightGrams int       `json:"weight_grams"`
}

// CartDTO is the buyer's grouped cart. Unavailable lines reference listings
// that were removed or taken down after they were added; they carry no price
// and are excluded from the groups.
type CartDTO struct {
	Groups      []GroupDTO  `json:"groups"`
	Subtotal    int64       `json:"subtotal"`
	Unavailable []uuid.UUID `json:"unavailable_item_ids,omitempty"`
}

func itemFromLine(line Line) ItemDTO {
	dto := ItemDTO{
		ID:          line.Item.ID,
		OrgID:       line.Item.OrgID,
		ProductID:   line.Item.ProductID,
		VariantID:   line.Item.VariantID,
		ProductName: line.Product.Name,
		UnitPrice:   line.UnitPrice(),
		Qty:         line.Item.Qty,
		WeightGrams: line.WeightGrams(),
		Subtotal:    line.Subtotal(),
	}
	if line.Variant != nil {
		name := line.Variant.Name
		dto.VariantName = &name
	}
	return dto
}

func cartFromGroups(groups []Group, unavailable []uuid.UUID) *CartDTO {
	dto := &CartDTO{Unavailable: unavailable}
	for _, group := range groups {
		groupDTO := GroupDTO{
			OrgID:       group.OrgID,
			Subtotal:    group.Subtotal,
			WeightGrams: group.WeightGrams,
		}
		for _, line := range group.Lines {
			groupDTO.Items = append(groupDTO.Items, itemFromLine(line))
		}
		dto.Groups = append(dto.Groups, groupDTO)
		dto.Subtotal += group.Subtotal
	}
	return dto
}
