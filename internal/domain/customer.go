package domain

import (
	"strings"

	"github.com/DRSN-tech/minimarket/pkg/e"
)

// Customer — данные покупателя на момент продажи: имя и документ (cédula).
// Может совпадать с клиентом из справочника или быть введён вручную.
type Customer struct {
	Name       string
	DocumentID string
}

func NewCustomer(name, documentID string) Customer {
	return Customer{
		Name:       strings.TrimSpace(name),
		DocumentID: strings.TrimSpace(documentID),
	}
}

func (c Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" || strings.TrimSpace(c.DocumentID) == "" {
		return e.ErrMissingCustomerInfo
	}

	return nil
}
