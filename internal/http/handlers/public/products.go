package public

import (
	"strconv"
	"strings"

	handlershared "github.com/dasam-next/internal/http/handlers/shared"
	"github.com/dasam-next/internal/http/response"
	"github.com/dasam-next/internal/repository"
	"github.com/dasam-next/internal/service"

	"github.com/gin-gonic/gin"
)

// GetProducts 上架商品列表
func (h *Handler) GetProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.ProductListFilter{
		Page:        page,
		PageSize:    pageSize,
		ProductType: strings.TrimSpace(c.Query("type")),
		Search:      strings.TrimSpace(c.Query("search")),
	}
	result, err := h.ProductService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load products", err)
		return
	}

	response.SuccessWithPage(c, result.Items, handlershared.BuildPagination(page, pageSize, result.Total))
}

// GetProductBySlug 商品详情
func (h *Handler) GetProductBySlug(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		respondError(c, response.CodeBadRequest, "slug is required", nil)
		return
	}

	product, err := h.ProductService.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		respondWithMappedError(c, err, []mappedHandlerError{
			{target: service.ErrProductNotFound, code: response.CodeNotFound, msg: "product not found"},
		}, response.CodeInternal, "failed to load product")
		return
	}

	response.Success(c, product)
}
