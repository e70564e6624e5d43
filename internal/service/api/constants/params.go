package constants

// URL 쿼리 파라미터 키 상수입니다.
const (
	// QueryParamPage 상품 목록 페이지 번호 쿼리 파라미터 키
	QueryParamPage = "page"

	// QueryParamLimit 페이지당 상품 개수 쿼리 파라미터 키
	QueryParamLimit = "limit"

	// QueryParamCategory 카테고리 필터 쿼리 파라미터 키
	QueryParamCategory = "category"

	// QueryParamSearch 상품 목록 검색어 쿼리 파라미터 키
	QueryParamSearch = "search"

	// QueryParamQuery 검색 전용 엔드포인트의 검색어 쿼리 파라미터 키
	QueryParamQuery = "q"
)

// URL 경로 파라미터 키 상수입니다.
const (
	// PathParamProductID 상품 식별자 경로 파라미터 키
	PathParamProductID = "productId"

	// PathParamImageID 이미지 식별자 경로 파라미터 키
	PathParamImageID = "imageId"
)
