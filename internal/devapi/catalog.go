package devapi

import (
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/diewo77/invoicer-web/httpx"
	"github.com/diewo77/invoicer-web/internal/models"
	"github.com/diewo77/invoicer-web/internal/pagination"
)

func customerFilter(query string) func(*gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		q := strings.ToLower(strings.TrimSpace(query))
		if q == "" {
			return tx
		}
		like := "%" + q + "%"
		return tx.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(city) LIKE ?", like, like, like)
	}
}

func (s *Server) searchCustomers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := pagination.ParseParams(r.URL.Query())
	filter := customerFilter(r.URL.Query().Get("query"))

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Customer{}).Scopes(filter).Count(&total).Error; err != nil {
		s.fail(w, r, err)
		return
	}
	customers := []models.Customer{}
	if err := s.db.WithContext(ctx).Scopes(filter).Order("last_name, first_name, id").
		Limit(p.PerPage).Offset(p.Offset()).Find(&customers).Error; err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"customers":  customers,
		"pagination": pageInfo(p, total),
	})
}

// searchProducts lists products. Filtering by query is not supported.
func (s *Server) searchProducts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p := pagination.ParseParams(r.URL.Query())

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Count(&total).Error; err != nil {
		s.fail(w, r, err)
		return
	}
	products := []models.Product{}
	if err := s.db.WithContext(ctx).Order("label, id").Limit(p.PerPage).Offset(p.Offset()).Find(&products).Error; err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"products":   products,
		"pagination": pageInfo(p, total),
	})
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.fail(w, r, errNotFound)
		return
	}
	var product models.Product
	if err := s.db.WithContext(r.Context()).First(&product, id).Error; err != nil {
		s.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}
