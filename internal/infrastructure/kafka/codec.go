package kafka

import (
	"fmt"
	"strconv"
	"time"

	"github.com/DRSN-tech/minimarket/internal/domain"
	"github.com/DRSN-tech/minimarket/internal/usecase"
	"github.com/DRSN-tech/minimarket/pkg/money"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ContentType — тип содержимого сообщений: сериализованный google.protobuf.Struct.
const ContentType = "application/x-protobuf; messageType=google.protobuf.Struct"

// ProtoEncoder кодирует события продаж в protobuf. Деньги передаются десятичными строками,
// чтобы не терять точность в double.
type ProtoEncoder struct{}

func NewProtoEncoder() *ProtoEncoder {
	return &ProtoEncoder{}
}

func (ProtoEncoder) EncodeSaleCommitted(sale *domain.Sale) ([]byte, error) {
	items := make([]any, 0, len(sale.Items))
	for _, item := range sale.Items {
		items = append(items, map[string]any{
			"product_id": strconv.FormatInt(item.ProductID, 10),
			"name":       item.Name,
			"unit_price": money.Format(item.UnitPrice),
			"quantity":   strconv.FormatInt(item.Quantity, 10),
			"line_total": money.Format(item.LineTotal),
		})
	}

	event, err := structpb.NewStruct(map[string]any{
		"event_type":        string(usecase.SaleCommitted),
		"sale_id":           sale.ID,
		"created_at":        sale.CreatedAt.UTC().Format(time.RFC3339Nano),
		"customer_name":     sale.Customer.Name,
		"customer_document": sale.Customer.DocumentID,
		"total":             money.Format(sale.Total),
		"items":             items,
	})
	if err != nil {
		return nil, fmt.Errorf("build sale event: %w", err)
	}

	return proto.Marshal(event)
}

// DecodeSaleCommitted разбирает событие обратно в поля protobuf.Struct.
func DecodeSaleCommitted(data []byte) (map[string]any, error) {
	var event structpb.Struct
	if err := proto.Unmarshal(data, &event); err != nil {
		return nil, fmt.Errorf("decode sale event: %w", err)
	}

	return event.AsMap(), nil
}
