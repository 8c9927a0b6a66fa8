package pagination

import (
	"encoding/base64"
	"encoding/json"
	"strconv"
	"time"

	"gorm.io/gorm"
)

type Pagination struct {
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size,default=10" validate:"gte=1,lte=250"` // Min 1, Max 250
}

type Cursor struct {
	ID        string `json:"id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type PageInfo struct {
	NextPageToken     string `json:"next_page_token"`
	PreviousPageToken string `json:"previous_page_token,omitempty"`
	HasMore           bool   `json:"has_more"`
}

func EncodeCursor(data Cursor) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	return base64.StdEncoding.EncodeToString(b), nil
}

func DecodeCursor(data string) (*Cursor, error) {
	b, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}

	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil {
		return nil, err
	}

	return &cursor, nil
}

func BuildCursorPageInfo[T any](data []*T, limit int32, extractCursor func(*T) string) *PageInfo {
	if len(data) == 0 {
		return &PageInfo{HasMore: false}
	}

	hasMore := false
	if len(data) > int(limit) {
		hasMore = true
		data = data[:limit]
	}

	pageInfo := &PageInfo{
		HasMore:       hasMore,
		NextPageToken: extractCursor(data[len(data)-1]),
	}

	return pageInfo
}

// Apply narrows stmt to the rows after the page token, newest first, and
// fetches one extra row so BuildCursorPageInfo can tell whether more remain.
func Apply(stmt *gorm.DB, page Pagination) *gorm.DB {
	size := page.PageSize
	if size <= 0 {
		size = 10
	}
	if page.PageToken != "" {
		if cursor, err := DecodeCursor(page.PageToken); err == nil {
			createdAt, timeErr := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
			id, idErr := strconv.ParseInt(cursor.ID, 10, 64)
			if timeErr == nil && idErr == nil {
				stmt = stmt.Where("(created_at < ? OR (created_at = ? AND id < ?))", createdAt, createdAt, id)
			}
		}
	}
	return stmt.Order("created_at desc, id desc").Limit(size + 1)
}
