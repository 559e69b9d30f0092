package utils

import (
	"farmacia-service/internal/pkg/dto/requests"
	"net/http"
	"strconv"
)

const maxPageSize = 100

func BuildPaginationRequest(r *http.Request) requests.Pagination {
	pageStr := r.URL.Query().Get("page")
	pageSizeStr := r.URL.Query().Get("page_size")

	page, err := strconv.Atoi(pageStr)
	if err != nil || page <= 0 {
		page = 1
	}

	pageSize, err := strconv.Atoi(pageSizeStr)
	if err != nil || pageSize <= 0 {
		pageSize = 10
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return requests.Pagination{
		Page:     page,
		PageSize: pageSize,
	}
}
