package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	apperrors "github.com/darkkaiser/catalog-server/internal/pkg/errors"
	applog "github.com/darkkaiser/catalog-server/pkg/log"
)

const (
	// svgContentType 플레이스홀더 이미지의 Content-Type
	svgContentType = "image/svg+xml"

	// defaultImageContentType 상위 API가 Content-Type을 알려주지 않을 때 사용되는 기본값
	defaultImageContentType = "image/jpeg"

	// placeholderIDMaxLength 플레이스홀더 이미지에 표기되는 상품 ID의 최대 길이
	placeholderIDMaxLength = 8
)

// staticPlaceholderSVG 상품 ID 표기가 불가능할 때 사용되는 최후의 정적 플레이스홀더입니다.
const staticPlaceholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="400" height="400" viewBox="0 0 400 400"><rect width="400" height="400" fill="#e9ecef"/><text x="200" y="200" font-family="sans-serif" font-size="24" fill="#868e96" text-anchor="middle" dominant-baseline="middle">No Image</text></svg>`

// cachedImage 캐시에 보관되는 이미지 바이너리와 Content-Type입니다.
type cachedImage struct {
	data        []byte
	contentType string
}

// imageCache 다운로드된 이미지를 보관하는 고정 용량의 메모리 캐시입니다.
// 용량 초과 시 가장 먼저 저장된 항목부터 제거됩니다(FIFO).
type imageCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]cachedImage
	order    []string
}

// newImageCache 지정된 용량의 이미지 캐시를 생성합니다.
func newImageCache(capacity int) *imageCache {
	if capacity < 1 {
		capacity = 1
	}

	return &imageCache{
		capacity: capacity,
		entries:  make(map[string]cachedImage, capacity),
	}
}

// get 캐시에서 이미지를 조회합니다.
func (c *imageCache) get(key string) (cachedImage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	image, ok := c.entries[key]
	return image, ok
}

// put 이미지를 캐시에 저장합니다. 용량이 가득 차면 가장 오래된 항목을 제거합니다.
func (c *imageCache) put(key string, image cachedImage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = image
		return
	}

	if len(c.entries) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}

	c.entries[key] = image
	c.order = append(c.order, key)
}

// len 현재 캐시에 보관된 항목 수를 반환합니다.
func (c *imageCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// imageCacheKey (상품 ID, 이미지 ID) 쌍에 대한 캐시 키를 생성합니다.
func imageCacheKey(productID, imageID string) string {
	return productID + "_" + imageID
}

// Image 지정된 상품의 이미지 바이너리와 Content-Type을 반환합니다.
//
// 캐시에 없으면 상위 API에서 상품의 이미지 목록을 조회하여 imageID와 일치하는
// 항목을 찾고, 해당 항목의 다운로드 참조를 통해 바이너리를 받아 캐시에 저장합니다.
// 일치하는 이미지가 없거나 다운로드 참조가 없으면 NotFound 에러를 반환합니다.
func (c *Catalog) Image(ctx context.Context, productID, imageID string) ([]byte, string, error) {
	key := imageCacheKey(productID, imageID)
	if image, ok := c.images.get(key); ok {
		return image.data, image.contentType, nil
	}

	images, err := c.client.productImages(ctx, productID)
	if err != nil {
		return nil, "", err
	}

	matched, ok := matchImage(images, imageID)
	if !ok {
		return nil, "", apperrors.New(apperrors.NotFound,
			fmt.Sprintf("상품 이미지를 찾을 수 없습니다. (상품 ID: %s, 이미지 ID: %s)", productID, imageID))
	}
	if matched.DownloadHref == "" {
		return nil, "", apperrors.New(apperrors.NotFound,
			fmt.Sprintf("상품 이미지의 다운로드 참조가 없습니다. (상품 ID: %s, 이미지 ID: %s)", productID, imageID))
	}

	data, contentType, err := c.client.downloadImage(ctx, matched.DownloadHref)
	if err != nil {
		return nil, "", err
	}
	if contentType == "" {
		contentType = defaultImageContentType
	}

	c.images.put(key, cachedImage{data: data, contentType: contentType})

	applog.WithComponentAndFields(component, applog.Fields{
		"product_id": productID,
		"image_id":   imageID,
		"bytes":      len(data),
	}).Debug("상품 이미지 다운로드 및 캐시 저장 완료")

	return data, contentType, nil
}

// ProductImage 클라이언트에 노출되는 상품 이미지 정보입니다.
type ProductImage struct {
	ID       string `json:"id"`
	Filename string `json:"filename,omitempty"`
	URL      string `json:"url"`
}

// ProductImages 상품에 등록된 전체 이미지 목록을 반환합니다.
// 각 항목의 URL은 이 서버가 제공하는 이미지 경로입니다.
func (c *Catalog) ProductImages(ctx context.Context, productID string) ([]ProductImage, error) {
	images, err := c.client.productImages(ctx, productID)
	if err != nil {
		return nil, err
	}

	result := make([]ProductImage, 0, len(images))
	for _, image := range images {
		result = append(result, ProductImage{
			ID:       image.ID,
			Filename: image.Filename,
			URL:      fmt.Sprintf("/api/images/%s/%s", productID, image.ID),
		})
	}

	return result, nil
}

// matchImage 이미지 목록에서 imageID와 일치하는 항목을 찾습니다.
//
// 파생된 이미지 식별자 외에 확장자를 제외한 파일명과의 일치도 허용하여,
// 식별자 도출 방식이 다른 클라이언트가 만든 URL도 해석할 수 있도록 합니다.
func matchImage(images []upstreamImage, imageID string) (upstreamImage, bool) {
	for _, image := range images {
		if image.ID == imageID {
			return image, true
		}
		if image.Filename != "" && trimExtension(image.Filename) == imageID {
			return image, true
		}
	}
	return upstreamImage{}, false
}

// trimExtension 파일명에서 확장자를 제거합니다.
func trimExtension(filename string) string {
	if idx := strings.LastIndex(filename, "."); idx > 0 {
		return filename[:idx]
	}
	return filename
}

// Placeholder 상품 ID가 표기된 결정적(deterministic) SVG 플레이스홀더 이미지를 생성합니다.
// 상위 API 호출 없이 항상 성공하며, ID 표기가 불가능한 경우 정적 SVG로 대체됩니다.
func (c *Catalog) Placeholder(productID string) ([]byte, string) {
	label := sanitizePlaceholderLabel(productID)
	if label == "" {
		return []byte(staticPlaceholderSVG), svgContentType
	}

	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="400" height="400" viewBox="0 0 400 400"><rect width="400" height="400" fill="#e9ecef"/><text x="200" y="185" font-family="sans-serif" font-size="24" fill="#868e96" text-anchor="middle" dominant-baseline="middle">No Image</text><text x="200" y="225" font-family="monospace" font-size="16" fill="#adb5bd" text-anchor="middle" dominant-baseline="middle">%s</text></svg>`, label)

	return []byte(svg), svgContentType
}

// sanitizePlaceholderLabel 상품 ID를 SVG에 안전하게 삽입할 수 있는 형태로 잘라냅니다.
// 영문/숫자/하이픈 이외의 문자가 포함되어 있으면 빈 문자열을 반환하여 정적 SVG로 대체시킵니다.
func sanitizePlaceholderLabel(productID string) string {
	if productID == "" {
		return ""
	}

	truncated := productID
	if len(truncated) > placeholderIDMaxLength {
		truncated = truncated[:placeholderIDMaxLength]
	}

	for _, r := range truncated {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return ""
		}
	}

	return truncated
}
