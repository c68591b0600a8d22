package converter

import "time"

// ProductModel представляет запись таблицы products в PostgreSQL вместе с именем категории.
type ProductModel struct {
	ID           int64      `db:"id"`
	Name         string     `db:"name"`
	Price        int64      `db:"price"`
	Stock        int64      `db:"stock"`
	MinStock     *int64     `db:"min_stock"`
	ExpiryDate   *time.Time `db:"expiry_date"`
	CategoryID   int64      `db:"category_id"`
	CategoryName *string    `db:"category_name"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    *time.Time `db:"updated_at"`
	IsArchived   bool       `db:"is_archived"`
}

// CategoryModel представляет запись таблицы categories в PostgreSQL.
type CategoryModel struct {
	ID         int64      `db:"id"`
	Name       string     `db:"name"`
	CreatedAt  time.Time  `db:"created_at"`
	UpdatedAt  *time.Time `db:"updated_at"`
	IsArchived bool       `db:"is_archived"`
}

// SaleModel представляет запись таблицы sales.
type SaleModel struct {
	ID               string    `db:"id"`
	CreatedAt        time.Time `db:"created_at"`
	CustomerName     string    `db:"customer_name"`
	CustomerDocument string    `db:"customer_document"`
	Total            int64     `db:"total"`
}

// SaleItemModel представляет запись таблицы sale_items.
type SaleItemModel struct {
	SaleID    string `db:"sale_id"`
	Position  int    `db:"position"`
	ProductID int64  `db:"product_id"`
	Name      string `db:"name"`
	UnitPrice int64  `db:"unit_price"`
	Quantity  int64  `db:"quantity"`
	LineTotal int64  `db:"line_total"`
}

// OutboxEventModel представляет запись таблицы outbox_events.
type OutboxEventModel struct {
	ID          int64      `db:"id"`
	EventID     string     `db:"event_id"`
	EventType   string     `db:"event_type"`
	AggregateID string     `db:"aggregate_id"`
	Payload     []byte     `db:"payload"`
	Status      string     `db:"status"`
	CreatedAt   time.Time  `db:"created_at"`
	ProcessedAt *time.Time `db:"processed_at"`
}
