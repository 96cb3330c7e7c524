package model

import "fmt"

// The three business failure conditions of the mutation service. They are
// plain typed errors so the transport layer can match them with errors.As;
// anything else coming out of the service is an infrastructure fault.

type OrderNotFoundError struct {
	OrderID int64
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("order %d not found", e.OrderID)
}

type NomenclatureNotFoundError struct {
	NomenclatureID int64
}

func (e *NomenclatureNotFoundError) Error() string {
	return fmt.Sprintf("nomenclature %d not found", e.NomenclatureID)
}

type InsufficientStockError struct {
	NomenclatureID int64
	Available      int
	Requested      int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for nomenclature %d: requested %d, available %d",
		e.NomenclatureID, e.Requested, e.Available)
}
