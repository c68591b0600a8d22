package minio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/DRSN-tech/minimarket/internal/cfg"
	"github.com/DRSN-tech/minimarket/internal/domain"
	"github.com/DRSN-tech/minimarket/pkg/e"
	"github.com/DRSN-tech/minimarket/pkg/jitter"
	"github.com/DRSN-tech/minimarket/pkg/money"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

const (
	archiveContentType = "application/json"
	maxPutAttempts     = 3
)

// objectPutter — часть *minio.Client, нужная архиву.
type objectPutter interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64,
		opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ArchiveRepo выгружает продажи за день в MinIO одним JSON-объектом sales/YYYY-MM-DD.json.
type ArchiveRepo struct {
	mc       objectPutter
	cfg      *cfg.MinIOCfg
	backoff  time.Duration
	exported func() time.Time
}

func NewArchiveRepo(mc *minio.Client, cfg *cfg.MinIOCfg) *ArchiveRepo {
	return newArchiveRepo(mc, cfg)
}

func newArchiveRepo(mc objectPutter, cfg *cfg.MinIOCfg) *ArchiveRepo {
	return &ArchiveRepo{
		mc:       mc,
		cfg:      cfg,
		backoff:  time.Second,
		exported: time.Now,
	}
}

type archiveItem struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int64  `json:"quantity"`
	LineTotal string `json:"line_total"`
}

type archiveSale struct {
	ID               string        `json:"id"`
	CreatedAt        time.Time     `json:"created_at"`
	CustomerName     string        `json:"customer_name"`
	CustomerDocument string        `json:"customer_document"`
	Total            string        `json:"total"`
	Items            []archiveItem `json:"items"`
}

type archiveDay struct {
	Date       string        `json:"date"`
	ExportedAt time.Time     `json:"exported_at"`
	Count      int           `json:"count"`
	Total      string        `json:"total"`
	Sales      []archiveSale `json:"sales"`
}

// SaveDay сохраняет продажи дня и возвращает ключ объекта. Повторная выгрузка перезаписывает объект.
func (a *ArchiveRepo) SaveDay(ctx context.Context, day time.Time, sales []domain.Sale) (string, error) {
	key := ObjectKey(day)

	data, err := a.encodeDay(day, sales)
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	for attempt := 0; ; attempt++ {
		info, err := a.mc.PutObject(ctx, a.cfg.BucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
			ContentType: archiveContentType,
		})
		if err == nil {
			return info.Key, nil
		}

		if attempt+1 >= maxPutAttempts {
			return "", e.Wrap(whereami.WhereAmI(), err)
		}

		if err := jitter.Sleep(ctx, jitter.ExponentialBackoff(a.backoff, 10*a.backoff, attempt, jitter.DefaultJitter)); err != nil {
			return "", e.Wrap(whereami.WhereAmI(), err)
		}
	}
}

// ObjectKey возвращает ключ объекта архива для дня.
func ObjectKey(day time.Time) string {
	return fmt.Sprintf("sales/%s.json", day.UTC().Format(time.DateOnly))
}

func (a *ArchiveRepo) encodeDay(day time.Time, sales []domain.Sale) ([]byte, error) {
	doc := archiveDay{
		Date:       day.UTC().Format(time.DateOnly),
		ExportedAt: a.exported().UTC(),
		Count:      len(sales),
		Sales:      make([]archiveSale, 0, len(sales)),
	}

	var total int64
	for _, sale := range sales {
		var err error
		if total, err = money.Add(total, sale.Total); err != nil {
			return nil, err
		}

		items := make([]archiveItem, 0, len(sale.Items))
		for _, item := range sale.Items {
			items = append(items, archiveItem{
				ProductID: item.ProductID,
				Name:      item.Name,
				UnitPrice: money.Format(item.UnitPrice),
				Quantity:  item.Quantity,
				LineTotal: money.Format(item.LineTotal),
			})
		}

		doc.Sales = append(doc.Sales, archiveSale{
			ID:               sale.ID,
			CreatedAt:        sale.CreatedAt,
			CustomerName:     sale.Customer.Name,
			CustomerDocument: sale.Customer.DocumentID,
			Total:            money.Format(sale.Total),
			Items:            items,
		})
	}
	doc.Total = money.Format(total)

	return json.Marshal(doc)
}
