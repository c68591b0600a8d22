package converter

import "time"

// ProductRedisModel — снимок товара в кэше каталога.
type ProductRedisModel struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	CategoryID   int64      `json:"category_id"`
	CategoryName string     `json:"category_name"`
	Price        int64      `json:"price"`
	Stock        int64      `json:"stock"`
	MinStock     *int64     `json:"min_stock,omitempty"`
	ExpiryDate   *time.Time `json:"expiry_date,omitempty"`
	CachedAt     time.Time  `json:"cached_at"`
}
