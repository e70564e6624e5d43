package catalog

// demoProducts 상위 API의 상품 조회 권한이 없을 때(403) 페이지 요청을 실패시키는 대신
// 노출되는 고정 데모 상품 목록입니다.
var demoProducts = []Product{
	{
		ID:          "demo-1",
		Name:        "데모 상품 1",
		Description: "상위 API 연동이 완료되면 실제 상품이 노출됩니다.",
		Code:        "DEMO-001",
		Price:       1000,
		Currency:    defaultCurrency,
		ImageURL:    placeholderURL("demo-1"),
	},
	{
		ID:          "demo-2",
		Name:        "데모 상품 2",
		Description: "상위 API 연동이 완료되면 실제 상품이 노출됩니다.",
		Code:        "DEMO-002",
		Price:       2500,
		Currency:    defaultCurrency,
		ImageURL:    placeholderURL("demo-2"),
	},
	{
		ID:          "demo-3",
		Name:        "데모 상품 3",
		Description: "상위 API 연동이 완료되면 실제 상품이 노출됩니다.",
		Code:        "DEMO-003",
		Price:       4900,
		Currency:    defaultCurrency,
		ImageURL:    placeholderURL("demo-3"),
	},
}

// demoPage 데모 상품 목록을 요청된 페이지 범위로 잘라 반환합니다.
func (c *Catalog) demoPage(q ProductQuery) *ProductPage {
	start := (q.Page - 1) * q.Limit
	end := start + q.Limit

	total := len(demoProducts)
	if end > total {
		end = total
	}

	products := []Product{}
	if start < total {
		products = append(products, demoProducts[start:end]...)
	}

	return &ProductPage{
		Products: products,
		Total:    total,
		Page:     q.Page,
		Limit:    q.Limit,
		HasMore:  end < total,
	}
}
