package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/dasam-next/internal/http/handlers/shared"
	"github.com/dasam-next/internal/http/response"
	"github.com/dasam-next/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListErrorLogs 错误审计列表
func (h *Handler) ListErrorLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.ErrorLogListFilter{
		Page:     page,
		PageSize: pageSize,
		Source:   strings.TrimSpace(c.Query("source")),
		Code:     strings.TrimSpace(c.Query("code")),
	}

	entries, total, err := h.ErrorLogRepo.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load error logs", err)
		return
	}
	response.SuccessWithPage(c, entries, handlershared.BuildPagination(page, pageSize, total))
}
