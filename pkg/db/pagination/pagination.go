package pagination

type Pagination struct {
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit" binding:"omitempty,gte=0,lte=250"`
}

type PageInfo struct {
	NextCursor string `json:"next_cursor"`
	HasMore    bool   `json:"has_more"`
}

// BuildPageInfo trims data to limit and reports whether more rows follow.
// extractCursor yields the cursor value of the last returned row.
func BuildPageInfo[T any](data []*T, limit int, extractCursor func(*T) string) ([]*T, *PageInfo) {
	if len(data) == 0 || limit <= 0 {
		return data, &PageInfo{HasMore: false}
	}

	hasMore := false
	if len(data) > limit {
		hasMore = true
		data = data[:limit]
	}

	return data, &PageInfo{
		HasMore:    hasMore,
		NextCursor: extractCursor(data[len(data)-1]),
	}
}
