package domain

import "errors"

type SaleType string

// remember to add new types to the validSaleTypes map
const (
	SaleTypeStandard SaleType = "standard"
	SaleTypeDrop     SaleType = "drop"
)

var validSaleTypes = map[SaleType]struct{}{
	SaleTypeStandard: {},
	SaleTypeDrop:     {},
}

func ToSaleType(s string) (SaleType, error) {
	saleType := SaleType(s)
	if _, ok := validSaleTypes[saleType]; ok {
		return saleType, nil
	}

	return "", errors.New("invalid sale type")
}

func SaleTypes() []SaleType {
	result := make([]SaleType, 0, len(validSaleTypes))
	for saleType := range validSaleTypes {
		result = append(result, saleType)
	}
	return result
}
